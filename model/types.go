package model

import (
	"fmt"
	"strings"
)

// PointID identifies one (internal, global) sample pair in the ledger.
// IDs are assigned in strictly increasing insertion order and never reused
// within a pass.
type PointID uint64

// PhaseID is the identity of a phase (e.g. "FCC_A1", "LIQUID").
type PhaseID string

// Point is an ordered coordinate vector. Points are immutable once inserted.
type Point []float64

// Dim returns the dimensionality of the point.
func (p Point) Dim() int { return len(p) }

// Clone returns a deep copy of the point.
func (p Point) Clone() Point {
	if p == nil {
		return nil
	}
	out := make(Point, len(p))
	copy(out, p)
	return out
}

// Project returns the first n coordinates of p without copying.
// It panics if n exceeds the dimensionality.
func (p Point) Project(n int) Point {
	return p[:n:n]
}

// String returns a compact representation of the point.
func (p Point) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Hyperplane is the supporting hyperplane of a facet.
// Points p on the plane satisfy Normal·p + Offset = 0. The normal points
// away from the hull interior.
type Hyperplane struct {
	Normal []float64
	Offset float64
}

// Distance returns the signed distance of p from the plane, scaled by the
// norm of Normal. Positive values lie on the outward side.
func (h Hyperplane) Distance(p []float64) float64 {
	d := h.Offset
	for i, n := range h.Normal {
		d += n * p[i]
	}
	return d
}

// Facet is a maximal flat face of the hull. Vertices are PointIDs, never
// positions in the hull input.
type Facet struct {
	Vertices []PointID
	Plane    Hyperplane
}

// String returns a string representation of the facet.
func (f Facet) String() string {
	ids := make([]string, len(f.Vertices))
	for i, id := range f.Vertices {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return "Facet[" + strings.Join(ids, " ") + "]"
}

// Candidate is a facet that survived constraint filtering.
type Candidate struct {
	Facet Facet
	// Phases is the number of distinct phase identities among the vertices.
	// Zero means the selector was not given a phase source.
	Phases int
}
