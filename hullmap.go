package hullmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/hullmap/blobstore"
	"github.com/hupe1980/hullmap/hull"
	"github.com/hupe1980/hullmap/internal/resource"
	"github.com/hupe1980/hullmap/ledger"
	"github.com/hupe1980/hullmap/lever"
	"github.com/hupe1980/hullmap/model"
	"github.com/hupe1980/hullmap/phaseindex"
	"github.com/hupe1980/hullmap/selector"
	"github.com/hupe1980/hullmap/snapshot"
)

// Sample is one point produced by an energy model: a phase's internal
// coordinates and their projection into global composition-energy space.
type Sample struct {
	Internal []float64
	Global   []float64
}

// EquilibriumResult is one phase of an equilibrium solution.
type EquilibriumResult struct {
	PointID  model.PointID
	Phase    model.PhaseID
	Internal model.Point
	Global   model.Point
	Fraction float64
}

// Candidate is a feasible facet together with its lever-rule solution.
type Candidate struct {
	model.Candidate
	Vertices []lever.Vertex
}

// TieBreaker picks one of several feasible candidates and returns its index.
type TieBreaker func(candidates []Candidate) int

// FewestPhases prefers the candidate with the fewest distinct phases and
// falls back to hull order.
func FewestPhases(candidates []Candidate) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Phases < candidates[best].Phases {
			best = i
		}
	}
	return best
}

// FirstCandidate always picks the first candidate in hull order.
func FirstCandidate([]Candidate) int { return 0 }

// Stats describes the current pass.
type Stats struct {
	Pass        uint64
	Points      int
	Boundaries  int
	Phases      int
	Excluded    uint64
	Facets      int
	Frozen      bool
	MemoryBytes int64
}

// Map owns the ledger and phase index of one global-minimization pass and
// runs hull construction, candidate selection and the lever rule over them.
//
// A Map is not safe for concurrent mutation. After BuildHull the ledger is
// frozen and the query methods may be called concurrently.
type Map struct {
	opts   options
	logger *Logger
	rc     *resource.Controller

	ledger   *ledger.Ledger
	index    *phaseindex.Index
	excluded *roaring.Bitmap

	facets []model.Facet
	built  bool
	pass   uint64
}

// New creates a Map for global points of dimensionality dim. By convention
// the leading coordinates are composition and the trailing one is energy.
func New(dim int, optFns ...Option) (*Map, error) {
	o := applyOptions(optFns)
	rc := newController(o)

	l, err := ledger.New(dim, ledger.WithMemoryAcquirer(rc))
	if err != nil {
		return nil, translateError(err)
	}
	return newMap(o, rc, l, phaseindex.New()), nil
}

// Load creates a Map from a decoded snapshot. The ledger comes back frozen,
// so the next step is BuildHull.
func Load(s *snapshot.Snapshot, optFns ...Option) (*Map, error) {
	o := applyOptions(optFns)
	rc := newController(o)

	l, x, err := snapshot.Restore(s, ledger.WithMemoryAcquirer(rc))
	if err != nil {
		return nil, translateError(err)
	}
	m := newMap(o, rc, l, x)
	if o.excluded == nil && s.Excluded != nil && !s.Excluded.IsEmpty() {
		m.opts.excluded = s.Excluded.Clone()
		m.excluded = s.Excluded.Clone()
	}
	return m, nil
}

func newController(o options) *resource.Controller {
	cfg := ResourceConfig{MaxWorkers: int64(runtime.GOMAXPROCS(0))}
	if o.resources != nil {
		cfg = *o.resources
	}
	return resource.NewController(cfg)
}

func newMap(o options, rc *resource.Controller, l *ledger.Ledger, x *phaseindex.Index) *Map {
	m := &Map{
		opts:   o,
		logger: o.logger.WithDimension(l.Dimension()),
		rc:     rc,
		ledger: l,
		index:  x,
	}
	m.resetExcluded()
	return m
}

func (m *Map) resetExcluded() {
	if m.opts.excluded != nil {
		m.excluded = m.opts.excluded.Clone()
	} else {
		m.excluded = roaring.New()
	}
}

// Dimension returns the global dimensionality.
func (m *Map) Dimension() int { return m.ledger.Dimension() }

// Len returns the number of recorded points.
func (m *Map) Len() int { return m.ledger.Len() }

// AddPoint records one paired sample. It is the raw append protocol: callers
// must follow each phase's points with AddPhaseBoundary. AddPhase does both.
//
// AddPoint panics once BuildHull has started.
func (m *Map) AddPoint(internal, global []float64) (model.PointID, error) {
	id, err := m.ledger.AddPoint(internal, global)
	return id, translateError(err)
}

// AddPhaseBoundary records that the last count unbounded points belong to
// phase. It panics if count is not positive or exceeds the number of points
// recorded since the previous boundary.
func (m *Map) AddPhaseBoundary(phase model.PhaseID, count int) {
	if m.built {
		panic("hullmap: AddPhaseBoundary after BuildHull")
	}
	if pending := m.pending(); count > pending {
		panic(fmt.Sprintf("hullmap: boundary of %d points for phase %q, only %d unbounded", count, phase, pending))
	}
	m.index.AddPhaseBoundary(phase, count)
}

// pending is the number of recorded points not yet covered by a boundary.
func (m *Map) pending() int {
	return m.ledger.Len() - int(m.index.Total())
}

// AddPhase appends a batch of samples for one phase and records its
// boundary. Every sample is validated before anything is appended. Empty
// batches are skipped with a warning and yield an empty span.
//
// If an append fails part way (memory limit), the boundary still covers the
// points already appended so the ledger and index stay consistent.
func (m *Map) AddPhase(ctx context.Context, phase model.PhaseID, samples []Sample) (phaseindex.Span, error) {
	start := time.Now()
	span, err := m.addPhase(ctx, phase, samples)
	m.opts.metricsCollector.RecordAddPhase(span.Len(), time.Since(start), err)
	m.logger.LogAddPhase(ctx, phase, span.Len(), err)
	return span, err
}

func (m *Map) addPhase(ctx context.Context, phase model.PhaseID, samples []Sample) (phaseindex.Span, error) {
	if m.built || m.ledger.Frozen() {
		panic("hullmap: AddPhase after BuildHull")
	}
	if pending := m.pending(); pending != 0 {
		panic(fmt.Sprintf("hullmap: AddPhase with %d points lacking a boundary", pending))
	}

	first := model.PointID(m.ledger.Len())
	span := phaseindex.Span{Phase: phase, Start: first, End: first}
	if len(samples) == 0 {
		return span, nil
	}
	if err := ctx.Err(); err != nil {
		return span, err
	}

	if err := m.validate(phase, samples); err != nil {
		return span, err
	}

	var err error
	for _, s := range samples {
		if _, err = m.ledger.AddPoint(s.Internal, s.Global); err != nil {
			err = fmt.Errorf("hullmap: phase %q: %w", phase, translateError(err))
			break
		}
		span.End++
	}
	if n := span.Len(); n > 0 {
		m.index.AddPhaseBoundary(phase, n)
	}
	return span, err
}

// validate checks a batch against the ledger dimension without appending.
func (m *Map) validate(phase model.PhaseID, samples []Sample) error {
	dim := m.ledger.Dimension()
	for i, s := range samples {
		if len(s.Internal) == 0 {
			return fmt.Errorf("hullmap: phase %q sample %d: %w", phase, i, ledger.ErrEmptyPoint)
		}
		if len(s.Global) != dim {
			return &ErrDimensionMismatch{Expected: dim, Actual: len(s.Global)}
		}
	}
	return nil
}

// Exclude withholds points from the hull. It panics after BuildHull.
func (m *Map) Exclude(ids ...model.PointID) error {
	if m.built {
		panic("hullmap: Exclude after BuildHull")
	}
	n := m.ledger.Len()
	for _, id := range ids {
		if id > math.MaxUint32 {
			return fmt.Errorf("%w: point %d exceeds exclusion range", ErrOutOfRange, id)
		}
		if int(id) >= n {
			return fmt.Errorf("%w: point %d (len %d)", ErrNotFound, id, n)
		}
	}
	for _, id := range ids {
		m.excluded.Add(uint32(id))
	}
	return nil
}

// FindInternalPoint returns the internal coordinates recorded at id.
// The returned point must not be modified.
func (m *Map) FindInternalPoint(id model.PointID) (model.Point, error) {
	p, err := m.ledger.FindInternalPoint(id)
	return p, translateError(err)
}

// FindGlobalPoint returns the global coordinates recorded at id.
// The returned point must not be modified.
func (m *Map) FindGlobalPoint(id model.PointID) (model.Point, error) {
	p, err := m.ledger.FindGlobalPoint(id)
	return p, translateError(err)
}

// Lookup returns the phase of id and its offset within that phase's run.
func (m *Map) Lookup(id model.PointID) (model.PhaseID, int, error) {
	phase, offset, err := m.index.Lookup(id)
	return phase, offset, translateError(err)
}

// BuildHull freezes the ledger and computes the convex hull of every
// non-excluded global point. Calling it again returns the cached facets.
//
// A hull with no facets fails with ErrDegenerateHull. The ledger stays
// frozen; call Reset and re-sample.
func (m *Map) BuildHull(ctx context.Context) ([]model.Facet, error) {
	if m.built {
		return m.facets, nil
	}

	start := time.Now()
	facets, points, err := m.buildHull(ctx)
	m.opts.metricsCollector.RecordHull(points, len(facets), time.Since(start), err)
	m.logger.LogHull(ctx, points, len(facets), err)
	if err != nil {
		if errors.Is(err, ErrDegenerateHull) {
			m.diagnose(ctx, "degenerate")
		}
		return nil, err
	}
	return facets, nil
}

func (m *Map) buildHull(ctx context.Context) ([]model.Facet, int, error) {
	if err := m.index.Verify(m.ledger.Len()); err != nil {
		return nil, 0, translateError(err)
	}
	m.ledger.Freeze()

	points, table, err := hull.Collect(m.ledger, m.excluded)
	if err != nil {
		return nil, 0, translateError(err)
	}

	raw, err := m.opts.builder.Build(ctx, points)
	if err != nil {
		return nil, len(points), translateError(err)
	}
	if len(raw) == 0 {
		return nil, len(points), fmt.Errorf("%w: builder returned no facets for %d points", ErrDegenerateHull, len(points))
	}

	facets, err := hull.Translate(raw, table)
	if err != nil {
		return nil, len(points), err
	}
	m.facets = facets
	m.built = true
	return facets, len(points), nil
}

// Facets returns the facets of the last BuildHull, or nil.
func (m *Map) Facets() []model.Facet { return m.facets }

// Candidates returns every facet that admits target under the constraints,
// each with its lever-rule fractions. target holds the leading composition
// coordinates of a global point.
//
// Facets whose lever solve fails are dropped. If every selected facet fails,
// the first lever error is returned so its residuals reach the caller.
func (m *Map) Candidates(ctx context.Context, target []float64, constraints ...selector.Constraint) ([]Candidate, error) {
	if !m.built {
		return nil, ErrHullNotBuilt
	}
	if dim := m.ledger.Dimension(); len(target) == 0 || len(target) > dim {
		return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(target)}
	}

	start := time.Now()
	out, err := m.candidates(ctx, target, constraints)
	m.opts.metricsCollector.RecordSelect(len(out), time.Since(start), err)
	m.logger.LogSelect(ctx, target, len(out), err)
	return out, err
}

func (m *Map) candidates(ctx context.Context, target []float64, constraints []selector.Constraint) ([]Candidate, error) {
	lower := m.opts.lowerEnvelope && len(target) < m.ledger.Dimension()
	sel := selector.New(m.ledger,
		selector.WithTolerance(m.opts.tolerance),
		selector.WithLowerEnvelope(lower),
		selector.WithPhaseSource(m.index),
		selector.WithLogger(m.logger.Logger),
	)
	picked, err := sel.Select(ctx, m.facets, target, constraints...)
	if err != nil {
		return nil, translateError(err)
	}

	solver := lever.New(m.ledger, m.index, lever.WithEpsilon(m.opts.epsilon))
	out := make([]Candidate, 0, len(picked))
	var firstErr error
	for _, c := range picked {
		verts, err := solver.Solve(c.Facet, target)
		if err != nil {
			if !errors.Is(err, lever.ErrSingularSystem) && !errors.Is(err, lever.ErrInfeasibleWeights) {
				return nil, translateError(err)
			}
			m.logger.DebugContext(ctx, "lever solve rejected facet", "facet", c.Facet.String(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, Candidate{Candidate: c, Vertices: verts})
	}

	if len(out) == 0 {
		return nil, translateError(firstErr)
	}
	return out, nil
}

// Solve selects one candidate with the configured TieBreaker and returns
// one result per facet vertex, in facet order. Vertices with zero fraction
// are kept.
func (m *Map) Solve(ctx context.Context, target []float64, constraints ...selector.Constraint) ([]EquilibriumResult, error) {
	start := time.Now()
	results, phases, err := m.solve(ctx, target, constraints)
	m.opts.metricsCollector.RecordSolve(phases, time.Since(start), err)
	m.logger.LogSolve(ctx, target, phases, err)
	if errors.Is(err, ErrNoFeasibleCandidate) {
		m.diagnose(ctx, "infeasible")
	}
	return results, err
}

func (m *Map) solve(ctx context.Context, target []float64, constraints []selector.Constraint) ([]EquilibriumResult, int, error) {
	cands, err := m.Candidates(ctx, target, constraints...)
	if err != nil {
		return nil, 0, err
	}

	i := m.opts.tieBreaker(cands)
	if i < 0 || i >= len(cands) {
		return nil, 0, fmt.Errorf("hullmap: tie breaker picked %d of %d candidates", i, len(cands))
	}
	c := cands[i]

	results := make([]EquilibriumResult, len(c.Vertices))
	for j, v := range c.Vertices {
		results[j] = EquilibriumResult{
			PointID:  v.ID,
			Phase:    v.Phase,
			Internal: v.Internal,
			Global:   v.Global,
			Fraction: v.Fraction,
		}
	}
	return results, c.Phases, nil
}

// Reset abandons the pass: the ledger, index, exclusions and facets are
// discarded and the ledger accepts appends again.
func (m *Map) Reset() {
	m.ledger.Reset()
	m.index.Reset()
	m.resetExcluded()
	m.facets = nil
	m.built = false
	m.pass++
	m.logger.DebugContext(context.Background(), "pass reset", "pass", m.pass)
}

// Archive writes a snapshot of the pass to store under name and returns its
// encoded size. It fails with ErrInconsistent while points lack a boundary.
func (m *Map) Archive(ctx context.Context, store blobstore.BlobStore, name string) (int64, error) {
	start := time.Now()
	n, err := m.archive(ctx, store, name)
	m.opts.metricsCollector.RecordArchive(n, time.Since(start), err)
	m.logger.LogArchive(ctx, name, n, err)
	return n, err
}

func (m *Map) archive(ctx context.Context, store blobstore.BlobStore, name string) (int64, error) {
	if err := m.index.Verify(m.ledger.Len()); err != nil {
		return 0, translateError(err)
	}
	return snapshot.Archive(ctx, store, name, m.rc, m.ledger, m.index,
		snapshot.WithCompression(m.opts.compression),
		snapshot.WithExcluded(m.excluded),
	)
}

// diagnose archives the pass to the diagnostics store, if one is configured.
func (m *Map) diagnose(ctx context.Context, reason string) {
	if m.opts.diagnostics == nil {
		return
	}
	_, _ = m.Archive(ctx, m.opts.diagnostics, DiagnosticsName(m.pass, reason))
}

// DiagnosticsName returns the blob name used for automatic snapshots.
func DiagnosticsName(pass uint64, reason string) string {
	return fmt.Sprintf("diagnostics/pass-%06d-%s.hmap", pass, reason)
}

// Stats returns counters for the current pass.
func (m *Map) Stats() Stats {
	return Stats{
		Pass:        m.pass,
		Points:      m.ledger.Len(),
		Boundaries:  m.index.Len(),
		Phases:      len(m.index.Phases()),
		Excluded:    m.excluded.GetCardinality(),
		Facets:      len(m.facets),
		Frozen:      m.ledger.Frozen(),
		MemoryBytes: m.rc.MemoryUsage(),
	}
}
