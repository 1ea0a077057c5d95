// Package selector filters hull facets down to the candidates consistent with
// a target composition and a set of activity constraints.
//
// A facet is feasible when the target is a non-negative combination of the
// facet's vertex compositions summing to one and every constraint admits it.
// All feasible facets are returned; choosing among ties is the caller's job.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/hullmap/internal/linalg"
	"github.com/hupe1980/hullmap/model"
)

// ErrNoFeasibleCandidate is returned when no facet contains the target.
// It means the target lies outside the sampled region; callers typically
// widen sampling and retry.
var ErrNoFeasibleCandidate = errors.New("selector: no feasible candidate")

// DefaultTolerance is the default barycentric tolerance.
const DefaultTolerance = 1e-9

// VertexSource resolves vertex coordinates.
type VertexSource interface {
	FindGlobalPoint(id model.PointID) (model.Point, error)
}

// PhaseSource resolves the phase of a vertex.
type PhaseSource interface {
	Lookup(id model.PointID) (model.PhaseID, int, error)
}

// Option configures a Selector.
type Option func(*Selector)

// WithTolerance sets the containment tolerance.
func WithTolerance(tol float64) Option {
	return func(s *Selector) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

// WithLowerEnvelope restricts selection to facets on the lower envelope:
// their outward normal must point down the trailing energy axis.
func WithLowerEnvelope(enabled bool) Option {
	return func(s *Selector) {
		s.lower = enabled
	}
}

// WithPhaseSource enables distinct-phase counting on candidates.
func WithPhaseSource(src PhaseSource) Option {
	return func(s *Selector) {
		s.phases = src
	}
}

// WithLogger sets the logger. Pass nil to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		s.logger = logger
	}
}

// Selector is the candidate selector.
type Selector struct {
	points VertexSource
	phases PhaseSource
	tol    float64
	lower  bool
	logger *slog.Logger
}

// New creates a Selector over the given vertex source.
func New(points VertexSource, opts ...Option) *Selector {
	s := &Selector{
		points: points,
		tol:    DefaultTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns every facet that contains target and satisfies all
// constraints, in input order.
func (s *Selector) Select(ctx context.Context, facets []model.Facet, target []float64, constraints ...Constraint) ([]model.Candidate, error) {
	var out []model.Candidate
	var skipped int

	for i, f := range facets {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if s.lower && !s.isLower(f, len(target)) {
			continue
		}

		ok, err := s.contains(f, target)
		if err != nil {
			if errors.Is(err, linalg.ErrSingular) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("selector: facet %s: %w", f, err)
		}
		if !ok {
			continue
		}

		admitted, err := admits(f, target, constraints)
		if err != nil {
			return nil, fmt.Errorf("selector: facet %s: %w", f, err)
		}
		if !admitted {
			continue
		}

		c := model.Candidate{Facet: f}
		if s.phases != nil {
			if c.Phases, err = s.distinctPhases(f); err != nil {
				return nil, err
			}
		}
		out = append(out, c)
	}

	if skipped > 0 && s.logger != nil {
		s.logger.DebugContext(ctx, "skipped degenerate facets", "count", skipped)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: target %v over %d facets", ErrNoFeasibleCandidate, model.Point(target), len(facets))
	}
	return out, nil
}

func (s *Selector) isLower(f model.Facet, m int) bool {
	n := f.Plane.Normal
	return len(n) > m && n[len(n)-1] < -s.tol
}

func (s *Selector) contains(f model.Facet, target []float64) (bool, error) {
	verts := make([][]float64, len(f.Vertices))
	for i, id := range f.Vertices {
		p, err := s.points.FindGlobalPoint(id)
		if err != nil {
			return false, err
		}
		verts[i] = p
	}

	if len(verts) > len(target)+1 {
		_, err := linalg.Feasible(verts, target, s.tol)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, linalg.ErrInfeasible):
			return false, nil
		case errors.Is(err, linalg.ErrShape):
			return false, err
		default:
			// Simplex failures on rank-deficient facets count as degenerate.
			return false, fmt.Errorf("%w: %w", linalg.ErrSingular, err)
		}
	}

	b, err := linalg.Solve(verts, target)
	if err != nil {
		return false, err
	}
	if b.Residual > s.tol {
		return false, nil
	}
	w, _ := b.MinWeight()
	return w >= -s.tol, nil
}

func admits(f model.Facet, target []float64, constraints []Constraint) (bool, error) {
	for _, c := range constraints {
		ok, err := c.Admits(f, target)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (s *Selector) distinctPhases(f model.Facet) (int, error) {
	seen := make(map[model.PhaseID]struct{}, len(f.Vertices))
	for _, id := range f.Vertices {
		phase, _, err := s.phases.Lookup(id)
		if err != nil {
			return 0, err
		}
		seen[phase] = struct{}{}
	}
	return len(seen), nil
}
