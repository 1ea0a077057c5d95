package ledger

import (
	"fmt"
	"testing"

	"github.com/hupe1980/hullmap/internal/container"
	"github.com/hupe1980/hullmap/internal/resource"
	"github.com/hupe1980/hullmap/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidDimension(t *testing.T) {
	_, err := New(0)
	var ide *ErrInvalidDimension
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 0, ide.Dimension)
}

func TestLedger_Pairing(t *testing.T) {
	l, err := New(2)
	require.NoError(t, err)

	type pair struct{ internal, global []float64 }
	var inserted []pair

	// Internal dimensionality varies by phase.
	for i := 0; i < 50; i++ {
		internal := make([]float64, 1+i%3)
		for j := range internal {
			internal[j] = float64(i) + float64(j)/10
		}
		global := []float64{float64(i) / 50, -float64(i)}

		id, err := l.AddPoint(internal, global)
		require.NoError(t, err)
		require.Equal(t, model.PointID(i), id)
		inserted = append(inserted, pair{internal, global})
	}

	require.Equal(t, len(inserted), l.Len())
	for i, p := range inserted {
		in, err := l.FindInternalPoint(model.PointID(i))
		require.NoError(t, err)
		gl, err := l.FindGlobalPoint(model.PointID(i))
		require.NoError(t, err)

		assert.Equal(t, model.Point(p.internal), in, "internal %d", i)
		assert.Equal(t, model.Point(p.global), gl, "global %d", i)
	}
}

func TestLedger_NoInvalidation(t *testing.T) {
	l, err := New(1)
	require.NoError(t, err)

	const n, m = 20, 5000

	internals := make([]model.Point, n)
	refs := make([]*Entry, n)
	for i := 0; i < n; i++ {
		id, err := l.AddPoint([]float64{float64(i)}, []float64{float64(i) * 0.01})
		require.NoError(t, err)

		internals[i], err = l.FindInternalPoint(id)
		require.NoError(t, err)
		refs[i], err = l.Ref(id)
		require.NoError(t, err)
	}

	for i := 0; i < m; i++ {
		_, err := l.AddPoint([]float64{-1, -2}, []float64{0.5})
		require.NoError(t, err)
	}

	for i := 0; i < n; i++ {
		assert.Equal(t, model.Point{float64(i)}, internals[i])
		again, err := l.Ref(model.PointID(i))
		require.NoError(t, err)
		assert.Same(t, refs[i], again)
		assert.Equal(t, model.Point{float64(i) * 0.01}, refs[i].Global)
	}
}

func TestLedger_CopiesInput(t *testing.T) {
	l, err := New(1)
	require.NoError(t, err)

	internal := []float64{0.3, 0.7}
	global := []float64{0.3}
	id, err := l.AddPoint(internal, global)
	require.NoError(t, err)

	internal[0] = 42
	global[0] = 42

	in, _ := l.FindInternalPoint(id)
	gl, _ := l.FindGlobalPoint(id)
	assert.Equal(t, model.Point{0.3, 0.7}, in)
	assert.Equal(t, model.Point{0.3}, gl)
}

func TestLedger_DuplicateGlobalCoordinates(t *testing.T) {
	l, err := New(1)
	require.NoError(t, err)

	// Symmetry-equivalent sublattice configurations project to the same composition.
	a, err := l.AddPoint([]float64{1, 0}, []float64{0.5})
	require.NoError(t, err)
	b, err := l.AddPoint([]float64{0, 1}, []float64{0.5})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, l.Len())
}

func TestLedger_Errors(t *testing.T) {
	l, err := New(2)
	require.NoError(t, err)

	_, err = l.AddPoint(nil, []float64{1, 2})
	assert.ErrorIs(t, err, ErrEmptyPoint)

	_, err = l.AddPoint([]float64{1}, []float64{1})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)

	_, err = l.FindInternalPoint(0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.FindGlobalPoint(7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_FreezeAndReset(t *testing.T) {
	l, err := New(1)
	require.NoError(t, err)

	_, err = l.AddPoint([]float64{1}, []float64{0.1})
	require.NoError(t, err)

	l.Freeze()
	assert.True(t, l.Frozen())
	assert.Panics(t, func() {
		_, _ = l.AddPoint([]float64{1}, []float64{0.2})
	})

	l.Reset()
	assert.False(t, l.Frozen())
	assert.Equal(t, 0, l.Len())

	id, err := l.AddPoint([]float64{2}, []float64{0.2})
	require.NoError(t, err)
	assert.Equal(t, model.PointID(0), id)
}

func TestLedger_GlobalPointsAndAll(t *testing.T) {
	l, err := New(2)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := l.AddPoint([]float64{float64(i)}, []float64{float64(i), float64(i * i)})
		require.NoError(t, err)
	}

	pts := l.GlobalPoints()
	require.Len(t, pts, 4)
	assert.Equal(t, []float64{3, 9}, pts[3])

	var ids []string
	for id, e := range l.All() {
		ids = append(ids, fmt.Sprintf("%d:%v", id, e.Internal[0]))
	}
	assert.Equal(t, []string{"0:0", "1:1", "2:2", "3:3"}, ids)
}

func TestLedger_MemoryAccounting(t *testing.T) {
	segment := container.SegmentBytes[Entry]()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: segment + 2*PointBytes(2, 2)})
	l, err := New(2, WithMemoryAcquirer(rc))
	require.NoError(t, err)

	_, err = l.AddPoint([]float64{0.5, 0.5}, []float64{0.5, -1})
	require.NoError(t, err)
	assert.Equal(t, segment+PointBytes(2, 2), rc.MemoryUsage())

	_, err = l.AddPoint([]float64{1, 0}, []float64{0, 0})
	require.NoError(t, err)

	_, err = l.AddPoint([]float64{0, 1}, []float64{1, 0})
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, segment+2*PointBytes(2, 2), rc.MemoryUsage())

	l.Reset()
	assert.Equal(t, int64(0), rc.MemoryUsage())
}
