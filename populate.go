package hullmap

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/hullmap/model"
	"github.com/hupe1980/hullmap/phaseindex"
)

// PhaseSampler produces the sample batch of one phase.
// Sample may be called concurrently with other samplers.
type PhaseSampler interface {
	Phase() model.PhaseID
	Sample(ctx context.Context) ([]Sample, error)
}

// SamplerFunc adapts a function to the PhaseSampler interface.
type SamplerFunc struct {
	ID model.PhaseID
	Fn func(ctx context.Context) ([]Sample, error)
}

// Phase implements PhaseSampler.
func (s SamplerFunc) Phase() model.PhaseID { return s.ID }

// Sample implements PhaseSampler.
func (s SamplerFunc) Sample(ctx context.Context) ([]Sample, error) { return s.Fn(ctx) }

// Populate runs the samplers in parallel, bounded by the worker limit, and
// then appends their batches in sampler order. Nothing is appended unless
// every sampler succeeds and every batch is valid. A memory limit reached
// during the merge stops it at a phase boundary. It returns one span per
// sampler.
func (m *Map) Populate(ctx context.Context, samplers ...PhaseSampler) ([]phaseindex.Span, error) {
	batches := make([][]Sample, len(samplers))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range samplers {
		g.Go(func() error {
			if err := m.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer m.rc.ReleaseWorker()

			batch, err := s.Sample(gctx)
			if err != nil {
				return fmt.Errorf("hullmap: sample phase %q: %w", s.Phase(), err)
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range samplers {
		if err := m.validate(s.Phase(), batches[i]); err != nil {
			return nil, err
		}
	}

	// Merge barrier: one phase at a time, in sampler order.
	spans := make([]phaseindex.Span, 0, len(samplers))
	for i, s := range samplers {
		span, err := m.AddPhase(ctx, s.Phase(), batches[i])
		if err != nil {
			return spans, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}
