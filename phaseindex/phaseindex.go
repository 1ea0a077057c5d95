// Package phaseindex maps PointID ranges to the phase that contributed them.
//
// Phases append their points to the ledger contiguously. After a phase's run
// is complete the caller records a boundary; boundaries are cumulative
// thresholds, so the run of a phase is [previous threshold, threshold).
//
// Boundaries must be added in the same order the phases were appended to the
// ledger. The index cannot detect a reordering; Verify compares the final
// threshold against the ledger length as a consistency check.
package phaseindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/hullmap/model"
)

var (
	// ErrOutOfRange is returned when a PointID lies at or beyond the last threshold.
	ErrOutOfRange = errors.New("phaseindex: id out of range")
	// ErrInconsistent is returned by Verify when the index and ledger disagree.
	ErrInconsistent = errors.New("phaseindex: inconsistent with ledger")
)

// Boundary records that all IDs below Threshold (and at or above the
// previous threshold) belong to Phase.
type Boundary struct {
	Threshold model.PointID
	Phase     model.PhaseID
}

// Span is the contiguous run of IDs contributed by one phase batch.
type Span struct {
	Phase model.PhaseID
	Start model.PointID // inclusive
	End   model.PointID // exclusive
}

// Len returns the number of points in the span.
func (s Span) Len() int { return int(s.End - s.Start) }

// Contains reports whether id lies in the span.
func (s Span) Contains(id model.PointID) bool { return id >= s.Start && id < s.End }

// Index is an ordered set of phase boundaries.
type Index struct {
	bounds []Boundary
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// AddPhaseBoundary records that the next count points belong to phase.
// It panics if count is not positive, since the thresholds must increase
// strictly.
func (x *Index) AddPhaseBoundary(phase model.PhaseID, count int) {
	if count <= 0 {
		panic(fmt.Sprintf("phaseindex: non-positive point count %d for phase %q", count, phase))
	}
	x.bounds = append(x.bounds, Boundary{
		Threshold: x.Total() + model.PointID(count),
		Phase:     phase,
	})
}

// Total returns the last threshold, i.e. the number of indexed points.
func (x *Index) Total() model.PointID {
	if len(x.bounds) == 0 {
		return 0
	}
	return x.bounds[len(x.bounds)-1].Threshold
}

// Len returns the number of recorded boundaries.
func (x *Index) Len() int { return len(x.bounds) }

// Boundaries returns a copy of the recorded boundaries in threshold order.
func (x *Index) Boundaries() []Boundary {
	out := make([]Boundary, len(x.bounds))
	copy(out, x.bounds)
	return out
}

// search returns the position of the first boundary whose threshold is
// strictly greater than id.
func (x *Index) search(id model.PointID) (int, error) {
	i := sort.Search(len(x.bounds), func(i int) bool {
		return x.bounds[i].Threshold > id
	})
	if i == len(x.bounds) {
		return 0, fmt.Errorf("%w: id %d, last threshold %d", ErrOutOfRange, id, x.Total())
	}
	return i, nil
}

func (x *Index) start(i int) model.PointID {
	if i == 0 {
		return 0
	}
	return x.bounds[i-1].Threshold
}

// Lookup returns the phase owning id and the zero-based offset of id within
// that phase's run of points.
func (x *Index) Lookup(id model.PointID) (model.PhaseID, int, error) {
	i, err := x.search(id)
	if err != nil {
		return "", 0, err
	}
	return x.bounds[i].Phase, int(id - x.start(i)), nil
}

// Span returns the run of IDs containing id.
func (x *Index) Span(id model.PointID) (Span, error) {
	i, err := x.search(id)
	if err != nil {
		return Span{}, err
	}
	return Span{Phase: x.bounds[i].Phase, Start: x.start(i), End: x.bounds[i].Threshold}, nil
}

// Spans returns every run contributed by phase, in ID order.
func (x *Index) Spans(phase model.PhaseID) []Span {
	var out []Span
	for i, b := range x.bounds {
		if b.Phase == phase {
			out = append(out, Span{Phase: phase, Start: x.start(i), End: b.Threshold})
		}
	}
	return out
}

// Phases returns the distinct phase identities in first-seen order.
func (x *Index) Phases() []model.PhaseID {
	seen := make(map[model.PhaseID]struct{}, len(x.bounds))
	var out []model.PhaseID
	for _, b := range x.bounds {
		if _, ok := seen[b.Phase]; ok {
			continue
		}
		seen[b.Phase] = struct{}{}
		out = append(out, b.Phase)
	}
	return out
}

// Verify checks that the index covers exactly pointCount ledger points.
func (x *Index) Verify(pointCount int) error {
	if int(x.Total()) != pointCount {
		return fmt.Errorf("%w: last threshold %d, ledger holds %d points", ErrInconsistent, x.Total(), pointCount)
	}
	return nil
}

// Reset removes all boundaries.
func (x *Index) Reset() {
	x.bounds = x.bounds[:0]
}
