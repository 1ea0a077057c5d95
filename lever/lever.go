package lever

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hullmap/internal/linalg"
	"github.com/hupe1980/hullmap/model"
)

var (
	// ErrSingularSystem is returned when the facet vertices are affinely
	// dependent in composition space.
	ErrSingularSystem = errors.New("lever: singular system")
	// ErrInfeasibleWeights is returned when the target is not a convex
	// combination of the facet vertices.
	ErrInfeasibleWeights = errors.New("lever: infeasible weights")
)

// DefaultEpsilon is the default weight and residual tolerance.
const DefaultEpsilon = 1e-9

// SingularSystemError reports a rank-deficient lever system.
type SingularSystemError struct {
	Facet  model.Facet
	Rank   int
	Values []float64
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("lever: facet %s is singular (rank %d of %d, singular values %v)",
		e.Facet, e.Rank, len(e.Facet.Vertices), e.Values)
}

// Is reports whether target matches ErrSingularSystem.
func (e *SingularSystemError) Is(target error) bool { return target == ErrSingularSystem }

// InfeasibleWeightsError reports weights outside [0, 1] or a target off the
// facet's affine hull.
type InfeasibleWeightsError struct {
	Facet    model.Facet
	Weights  []float64
	Residual float64
}

func (e *InfeasibleWeightsError) Error() string {
	return fmt.Sprintf("lever: facet %s does not contain target (weights %v, residual %.3g)",
		e.Facet, e.Weights, e.Residual)
}

// Is reports whether target matches ErrInfeasibleWeights.
func (e *InfeasibleWeightsError) Is(target error) bool { return target == ErrInfeasibleWeights }

// PointSource resolves both coordinate views of a sample.
type PointSource interface {
	FindInternalPoint(id model.PointID) (model.Point, error)
	FindGlobalPoint(id model.PointID) (model.Point, error)
}

// PhaseSource resolves the phase of a sample.
type PhaseSource interface {
	Lookup(id model.PointID) (model.PhaseID, int, error)
}

// Vertex is one facet vertex with its phase fraction.
type Vertex struct {
	ID       model.PointID
	Phase    model.PhaseID
	Internal model.Point
	Global   model.Point
	Fraction float64
}

// ByID returns the vertices keyed by PointID.
func ByID(vertices []Vertex) map[model.PointID]Vertex {
	out := make(map[model.PointID]Vertex, len(vertices))
	for _, v := range vertices {
		out[v.ID] = v
	}
	return out
}

// Option configures a Solver.
type Option func(*Solver)

// WithEpsilon sets the tolerance for negative weights and residuals.
func WithEpsilon(eps float64) Option {
	return func(s *Solver) {
		if eps > 0 {
			s.eps = eps
		}
	}
}

// Solver applies the lever rule.
type Solver struct {
	points PointSource
	phases PhaseSource
	eps    float64
}

// New creates a Solver. phases may be nil, in which case Vertex.Phase is empty.
func New(points PointSource, phases PhaseSource, opts ...Option) *Solver {
	s := &Solver{
		points: points,
		phases: phases,
		eps:    DefaultEpsilon,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve returns the vertices of f in facet order with their phase fractions
// at target. Fractions are non-negative and sum to 1.
func (s *Solver) Solve(f model.Facet, target []float64) ([]Vertex, error) {
	if len(f.Vertices) == 0 {
		return nil, &SingularSystemError{Facet: f}
	}

	verts := make([]Vertex, len(f.Vertices))
	coords := make([][]float64, len(f.Vertices))
	for i, id := range f.Vertices {
		global, err := s.points.FindGlobalPoint(id)
		if err != nil {
			return nil, fmt.Errorf("lever: vertex %d: %w", id, err)
		}
		internal, err := s.points.FindInternalPoint(id)
		if err != nil {
			return nil, fmt.Errorf("lever: vertex %d: %w", id, err)
		}
		verts[i] = Vertex{ID: id, Internal: internal, Global: global}
		coords[i] = global

		if s.phases != nil {
			if verts[i].Phase, _, err = s.phases.Lookup(id); err != nil {
				return nil, fmt.Errorf("lever: vertex %d: %w", id, err)
			}
		}
	}

	b, err := linalg.Solve(coords, target)
	if err != nil {
		var se *linalg.SingularError
		if errors.As(err, &se) {
			return nil, &SingularSystemError{Facet: f, Rank: se.Rank, Values: se.Values}
		}
		return nil, fmt.Errorf("lever: %w", err)
	}

	weights, err := s.clamp(b)
	if err != nil {
		return nil, &InfeasibleWeightsError{Facet: f, Weights: b.Weights, Residual: b.Residual}
	}
	for i := range verts {
		verts[i].Fraction = weights[i]
	}
	return verts, nil
}

// clamp zeroes weights within eps below zero and renormalizes.
func (s *Solver) clamp(b linalg.Barycentric) ([]float64, error) {
	if b.Residual > s.eps {
		return nil, ErrInfeasibleWeights
	}

	weights := make([]float64, len(b.Weights))
	var sum float64
	for i, w := range b.Weights {
		switch {
		case w < -s.eps || w > 1+s.eps:
			return nil, ErrInfeasibleWeights
		case w < 0:
			w = 0
		}
		weights[i] = w
		sum += w
	}
	if sum <= 0 {
		return nil, ErrInfeasibleWeights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}
