package testutil

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/hullmap"
	"github.com/hupe1980/hullmap/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Compositions returns n sorted mole fractions drawn uniformly from [0, 1).
// Locks only once per call.
func (r *RNG) Compositions(n int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = r.rand.Float64()
	}
	sort.Float64s(xs)
	return xs
}

// Grid returns n+1 evenly spaced mole fractions covering [0, 1].
func Grid(n int) []float64 {
	if n <= 0 {
		return []float64{0}
	}
	xs := make([]float64, n+1)
	for i := range xs {
		xs[i] = float64(i) / float64(n)
	}
	return xs
}

func xlogx(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x * math.Log(x)
}

// Binary is a synthetic binary regular-solution phase:
//
//	G(x) = (1-x)·G0 + x·G1 + RT·(x ln x + (1-x) ln(1-x)) + Omega·x·(1-x)
//
// Internal coordinates are the site fractions (1-x, x); global coordinates
// are (x, G).
type Binary struct {
	ID     model.PhaseID
	G0, G1 float64
	Omega  float64
	RT     float64
	// Points is the number of grid intervals. Ignored when RNG is set.
	Points int
	// RNG, when set, draws Points compositions at random instead.
	RNG *RNG
	// Delay is slept before returning, honoring ctx.
	Delay time.Duration
	// Err, when set, is returned instead of samples.
	Err error
}

// Energy returns G(x).
func (b Binary) Energy(x float64) float64 {
	return (1-x)*b.G0 + x*b.G1 + b.RT*(xlogx(x)+xlogx(1-x)) + b.Omega*x*(1-x)
}

// Phase implements hullmap.PhaseSampler.
func (b Binary) Phase() model.PhaseID { return b.ID }

// Sample implements hullmap.PhaseSampler.
func (b Binary) Sample(ctx context.Context) ([]hullmap.Sample, error) {
	if b.Delay > 0 {
		select {
		case <-time.After(b.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.Err != nil {
		return nil, b.Err
	}

	var xs []float64
	if b.RNG != nil {
		xs = b.RNG.Compositions(b.Points)
	} else {
		xs = Grid(b.Points)
	}

	out := make([]hullmap.Sample, len(xs))
	for i, x := range xs {
		out[i] = hullmap.Sample{
			Internal: []float64{1 - x, x},
			Global:   []float64{x, b.Energy(x)},
		}
	}
	return out, nil
}

// Compound is a stoichiometric phase: a single point at fixed composition.
type Compound struct {
	ID model.PhaseID
	X  float64
	G  float64
}

// Phase implements hullmap.PhaseSampler.
func (c Compound) Phase() model.PhaseID { return c.ID }

// Sample implements hullmap.PhaseSampler.
func (c Compound) Sample(ctx context.Context) ([]hullmap.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []hullmap.Sample{{
		Internal: []float64{1},
		Global:   []float64{c.X, c.G},
	}}, nil
}

// Points builds one sample per global point, using the point's index as
// its single internal coordinate.
func Points(global ...[]float64) []hullmap.Sample {
	out := make([]hullmap.Sample, len(global))
	for i, g := range global {
		out[i] = hullmap.Sample{Internal: []float64{float64(i)}, Global: g}
	}
	return out
}

// FractionSum returns the total phase fraction of a solve result.
func FractionSum(results []hullmap.EquilibriumResult) float64 {
	var sum float64
	for _, r := range results {
		sum += r.Fraction
	}
	return sum
}

// Composition recombines the first m global coordinates of a solve result
// weighted by phase fraction. For a valid solution it equals the target.
func Composition(results []hullmap.EquilibriumResult, m int) []float64 {
	out := make([]float64, m)
	for _, r := range results {
		for i := 0; i < m && i < len(r.Global); i++ {
			out[i] += r.Fraction * r.Global[i]
		}
	}
	return out
}

// Describe renders a solve result as "PHASE@id=fraction" terms.
func Describe(results []hullmap.EquilibriumResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = fmt.Sprintf("%s@%d=%.3f", r.Phase, r.PointID, r.Fraction)
	}
	return out
}
