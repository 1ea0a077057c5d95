package hull

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/hullmap/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource [][]float64

func (s sliceSource) Len() int { return len(s) }

func (s sliceSource) FindGlobalPoint(id model.PointID) (model.Point, error) {
	return s[id], nil
}

// edgeSet canonicalizes facets for comparison.
func edgeSet(facets []Facet) [][]int {
	out := make([][]int, 0, len(facets))
	for _, f := range facets {
		p := append([]int(nil), f.Positions...)
		sort.Ints(p)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

func lowerOnly(facets []Facet) []Facet {
	var out []Facet
	for _, f := range facets {
		if f.Normal[len(f.Normal)-1] < -1e-9 {
			out = append(out, f)
		}
	}
	return out
}

func assertSupporting(t *testing.T, points [][]float64, facets []Facet) {
	t.Helper()
	for _, f := range facets {
		for _, p := range points {
			d := f.Offset
			for k, n := range f.Normal {
				d += n * p[k]
			}
			assert.LessOrEqual(t, d, 1e-9, "facet %v", f.Positions)
		}
		for _, pos := range f.Positions {
			d := f.Offset
			for k, n := range f.Normal {
				d += n * points[pos][k]
			}
			assert.InDelta(t, 0, d, 1e-9)
		}
	}
}

func TestBuilders_EmptyIsDegenerate(t *testing.T) {
	for name, b := range map[string]Builder{
		"monotone":   Monotone{},
		"exhaustive": Exhaustive{},
		"auto":       Default,
	} {
		t.Run(name, func(t *testing.T) {
			facets, err := b.Build(context.Background(), nil)
			assert.ErrorIs(t, err, ErrDegenerateHull)
			assert.Empty(t, facets)
		})
	}
}

func TestBuilders_CollinearIsDegenerate(t *testing.T) {
	points := [][]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {0.25, 0.25}}

	_, err := Monotone{}.Build(context.Background(), points)
	assert.ErrorIs(t, err, ErrDegenerateHull)

	_, err = Exhaustive{}.Build(context.Background(), points)
	assert.ErrorIs(t, err, ErrDegenerateHull)
}

func TestMonotone_Square(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}, {0.5, 0}}

	facets, err := Monotone{}.Build(context.Background(), points)
	require.NoError(t, err)

	// The collinear point (0.5, 0) is not a vertex.
	assert.Equal(t, [][]int{{0, 1}, {0, 3}, {1, 2}, {2, 3}}, edgeSet(facets))
	assertSupporting(t, points, facets)

	lower := lowerOnly(facets)
	require.Len(t, lower, 1)
	assert.Equal(t, []int{0, 1}, lower[0].Positions)
	assert.InDeltaSlice(t, []float64{0, -1}, lower[0].Normal, 1e-12)
}

func TestExhaustive_SquareWithCollinearPoint(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}, {0.5, 0}}

	facets, err := Exhaustive{}.Build(context.Background(), points)
	require.NoError(t, err)

	// The bottom edge is split at the on-plane point.
	assert.Equal(t, [][]int{{0, 3}, {0, 5}, {1, 2}, {1, 5}, {2, 3}}, edgeSet(facets))
	assertSupporting(t, points, facets)
}

func TestExhaustive_Tetrahedron(t *testing.T) {
	points := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.1, 0.1, 0.1}}

	facets, err := Exhaustive{}.Build(context.Background(), points)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}, edgeSet(facets))
	assertSupporting(t, points, facets)
}

func TestExhaustive_Duplicates(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 0}, {0, 1}, {0, 0}}

	facets, err := Exhaustive{}.Build(context.Background(), points)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {1, 2}}, edgeSet(facets))
}

func TestBuilders_AgreeOnLowerHull(t *testing.T) {
	rng := rand.New(rand.NewSource(4711))

	points := make([][]float64, 40)
	for i := range points {
		x := rng.Float64()
		points[i] = []float64{x, 4*(x-0.3)*(x-0.7) + 0.3*rng.Float64()}
	}

	m, err := Monotone{}.Build(context.Background(), points)
	require.NoError(t, err)
	e, err := Exhaustive{}.Build(context.Background(), points)
	require.NoError(t, err)

	assert.Equal(t, edgeSet(m), edgeSet(e))
	assert.Equal(t, edgeSet(lowerOnly(m)), edgeSet(lowerOnly(e)))
}

func TestExhaustive_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	_, err := Exhaustive{}.Build(ctx, points)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectAndTranslate(t *testing.T) {
	src := sliceSource{{0, 0}, {0.5, 5}, {1, 0}, {0.5, -1}}

	points, table, err := Collect(src, nil)
	require.NoError(t, err)
	assert.Nil(t, table)
	assert.Len(t, points, 4)

	exclude := roaring.BitmapOf(1)
	points, table, err = Collect(src, exclude)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []float64{0.5, -1}, points[2])

	id, err := table.PointID(2)
	require.NoError(t, err)
	assert.Equal(t, model.PointID(3), id)

	_, err = table.PointID(3)
	assert.Error(t, err)

	facets, err := Default.Build(context.Background(), points)
	require.NoError(t, err)

	translated, err := Translate(facets, table)
	require.NoError(t, err)
	require.Len(t, translated, 3)
	for _, f := range translated {
		assert.NotContains(t, f.Vertices, model.PointID(1))
	}
}
