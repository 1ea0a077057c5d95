package hull

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/hullmap/model"
)

// ErrDegenerateHull is returned when the input yields no usable facets.
var ErrDegenerateHull = errors.New("hull: degenerate hull")

// DefaultTolerance is the default on-plane distance tolerance.
const DefaultTolerance = 1e-9

// Facet is a raw hull facet in positional form.
type Facet struct {
	// Positions are indices into the builder input.
	Positions []int
	// Normal is the unit outward normal.
	Normal []float64
	// Offset satisfies Normal·p + Offset = 0 for points on the facet.
	Offset float64
}

// Builder computes the convex hull of a point set.
// Implementations must be safe for concurrent use.
type Builder interface {
	Build(ctx context.Context, points [][]float64) ([]Facet, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, points [][]float64) ([]Facet, error)

// Build implements Builder.
func (f BuilderFunc) Build(ctx context.Context, points [][]float64) ([]Facet, error) {
	return f(ctx, points)
}

// Source provides the ledger records used as hull input.
type Source interface {
	Len() int
	FindGlobalPoint(id model.PointID) (model.Point, error)
}

// Table translates hull input positions back to PointIDs.
// A nil table is the identity mapping.
type Table struct {
	ids []model.PointID
}

// PointID returns the PointID of the point at position pos.
func (t *Table) PointID(pos int) (model.PointID, error) {
	if t == nil || t.ids == nil {
		if pos < 0 {
			return 0, fmt.Errorf("hull: negative position %d", pos)
		}
		return model.PointID(pos), nil
	}
	if pos < 0 || pos >= len(t.ids) {
		return 0, fmt.Errorf("hull: position %d out of range [0, %d)", pos, len(t.ids))
	}
	return t.ids[pos], nil
}

// Len returns the number of mapped positions, or -1 for the identity.
func (t *Table) Len() int {
	if t == nil || t.ids == nil {
		return -1
	}
	return len(t.ids)
}

// Collect gathers the global points of src in PointID order, skipping any
// ID present in exclude. When nothing is excluded the returned table is nil
// (identity).
func Collect(src Source, exclude *roaring.Bitmap) ([][]float64, *Table, error) {
	n := src.Len()
	points := make([][]float64, 0, n)

	filtering := exclude != nil && !exclude.IsEmpty()
	var ids []model.PointID
	if filtering {
		ids = make([]model.PointID, 0, n)
	}

	for i := 0; i < n; i++ {
		id := model.PointID(i)
		if filtering && exclude.Contains(uint32(i)) {
			continue
		}
		p, err := src.FindGlobalPoint(id)
		if err != nil {
			return nil, nil, err
		}
		points = append(points, p)
		if filtering {
			ids = append(ids, id)
		}
	}

	if !filtering {
		return points, nil, nil
	}
	return points, &Table{ids: ids}, nil
}

// Translate converts positional facets into model facets.
func Translate(facets []Facet, table *Table) ([]model.Facet, error) {
	out := make([]model.Facet, 0, len(facets))
	for _, f := range facets {
		vertices := make([]model.PointID, len(f.Positions))
		for i, pos := range f.Positions {
			id, err := table.PointID(pos)
			if err != nil {
				return nil, err
			}
			vertices[i] = id
		}
		out = append(out, model.Facet{
			Vertices: vertices,
			Plane:    model.Hyperplane{Normal: f.Normal, Offset: f.Offset},
		})
	}
	return out, nil
}

// dimension validates the input and returns its dimensionality.
func dimension(points [][]float64) (int, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: empty point set", ErrDegenerateHull)
	}
	d := len(points[0])
	for i, p := range points {
		if len(p) != d {
			return 0, fmt.Errorf("hull: point %d has %d coordinates, want %d", i, len(p), d)
		}
	}
	if d < 2 {
		return 0, fmt.Errorf("%w: dimension %d", ErrDegenerateHull, d)
	}
	if len(points) <= d {
		return 0, fmt.Errorf("%w: %d points in %d dimensions", ErrDegenerateHull, len(points), d)
	}
	return d, nil
}

// Auto dispatches to Monotone for 2-D input and Exhaustive otherwise.
// Input of three or more dimensions therefore costs O(C(n, d)·n): a few
// hundred ternary samples take far too long. Supply a dedicated builder for
// large inputs, or bound the build with a context deadline.
type Auto struct {
	Tolerance float64
}

// Build implements Builder.
func (a Auto) Build(ctx context.Context, points [][]float64) ([]Facet, error) {
	if len(points) > 0 && len(points[0]) == 2 {
		return Monotone{Tolerance: a.Tolerance}.Build(ctx, points)
	}
	return Exhaustive{Tolerance: a.Tolerance}.Build(ctx, points)
}

// Default is the builder used when none is configured.
var Default Builder = Auto{Tolerance: DefaultTolerance}
