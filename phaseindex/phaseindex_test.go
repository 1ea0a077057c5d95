package phaseindex

import (
	"testing"

	"github.com/hupe1980/hullmap/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(t *testing.T, sizes ...int) *Index {
	t.Helper()
	x := New()
	for i, n := range sizes {
		x.AddPhaseBoundary(model.PhaseID(rune('A'+i)), n)
	}
	return x
}

func TestIndex_Lookup(t *testing.T) {
	x := newIndex(t, 3, 5, 2)

	assert.Equal(t, model.PointID(10), x.Total())
	assert.Equal(t, []Boundary{
		{Threshold: 3, Phase: "A"},
		{Threshold: 8, Phase: "B"},
		{Threshold: 10, Phase: "C"},
	}, x.Boundaries())

	tests := []struct {
		id     model.PointID
		phase  model.PhaseID
		offset int
	}{
		{0, "A", 0}, {1, "A", 1}, {2, "A", 2},
		{3, "B", 0}, {4, "B", 1}, {5, "B", 2}, {6, "B", 3}, {7, "B", 4},
		{8, "C", 0}, {9, "C", 1},
	}
	for _, tt := range tests {
		phase, offset, err := x.Lookup(tt.id)
		require.NoError(t, err, "id %d", tt.id)
		assert.Equal(t, tt.phase, phase, "id %d", tt.id)
		assert.Equal(t, tt.offset, offset, "id %d", tt.id)
	}

	_, _, err := x.Lookup(10)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = x.Lookup(1 << 40)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestIndex_EmptyLookup(t *testing.T) {
	x := New()
	_, _, err := x.Lookup(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, model.PointID(0), x.Total())
}

func TestIndex_Span(t *testing.T) {
	x := newIndex(t, 3, 5, 2)

	s, err := x.Span(5)
	require.NoError(t, err)
	assert.Equal(t, Span{Phase: "B", Start: 3, End: 8}, s)
	assert.Equal(t, 5, s.Len())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(8))

	_, err = x.Span(11)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestIndex_RepeatedPhase(t *testing.T) {
	x := New()
	x.AddPhaseBoundary("FCC", 4)
	x.AddPhaseBoundary("LIQUID", 2)
	x.AddPhaseBoundary("FCC", 3)

	assert.Equal(t, []Span{
		{Phase: "FCC", Start: 0, End: 4},
		{Phase: "FCC", Start: 6, End: 9},
	}, x.Spans("FCC"))
	assert.Equal(t, []model.PhaseID{"FCC", "LIQUID"}, x.Phases())

	phase, offset, err := x.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseID("FCC"), phase)
	assert.Equal(t, 1, offset)
}

func TestIndex_NonPositiveCountPanics(t *testing.T) {
	x := New()
	assert.Panics(t, func() { x.AddPhaseBoundary("A", 0) })
	assert.Panics(t, func() { x.AddPhaseBoundary("A", -2) })
}

func TestIndex_VerifyAndReset(t *testing.T) {
	x := newIndex(t, 3, 5)

	require.NoError(t, x.Verify(8))
	assert.ErrorIs(t, x.Verify(9), ErrInconsistent)

	x.Reset()
	assert.Equal(t, 0, x.Len())
	require.NoError(t, x.Verify(0))
}
