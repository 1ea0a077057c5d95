package hullmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hullmap/hull"
	"github.com/hupe1980/hullmap/ledger"
	"github.com/hupe1980/hullmap/lever"
	"github.com/hupe1980/hullmap/model"
	"github.com/hupe1980/hullmap/phaseindex"
	"github.com/hupe1980/hullmap/selector"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	tests := []struct {
		name string
		in   error
		want []error
	}{
		{"not found", fmt.Errorf("lever: vertex 3: %w", ledger.ErrNotFound), []error{ErrNotFound, ledger.ErrNotFound}},
		{"out of range", phaseindex.ErrOutOfRange, []error{ErrOutOfRange}},
		{"inconsistent", phaseindex.ErrInconsistent, []error{ErrInconsistent}},
		{"degenerate", hull.ErrDegenerateHull, []error{ErrDegenerateHull}},
		{"no candidate", selector.ErrNoFeasibleCandidate, []error{ErrNoFeasibleCandidate}},
		{"singular", &lever.SingularSystemError{Facet: model.Facet{Vertices: []model.PointID{0, 1}}, Rank: 1},
			[]error{ErrSingularSystem, ErrDegenerateHull, lever.ErrSingularSystem}},
		{"infeasible", &lever.InfeasibleWeightsError{Weights: []float64{1.2, -0.2}}, []error{ErrInfeasibleWeights}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			for _, want := range tt.want {
				assert.ErrorIs(t, got, want)
			}
		})
	}
}

func TestTranslateError_KeepsDiagnostics(t *testing.T) {
	in := &lever.SingularSystemError{Rank: 1, Values: []float64{1.4, 0}}

	var se *lever.SingularSystemError
	require.ErrorAs(t, translateError(in), &se)
	assert.Equal(t, 1, se.Rank)
}

func TestTranslateError_Dimensions(t *testing.T) {
	var dm *ErrDimensionMismatch
	err := translateError(&ledger.ErrDimensionMismatch{Expected: 3, Actual: 2})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
	assert.Equal(t, "dimension mismatch: expected 3, got 2", dm.Error())

	var ledgerErr *ledger.ErrDimensionMismatch
	assert.ErrorAs(t, errors.Unwrap(dm), &ledgerErr)

	var id *ErrInvalidDimension
	require.ErrorAs(t, translateError(&ledger.ErrInvalidDimension{Dimension: -1}), &id)
	assert.Equal(t, -1, id.Dimension)
}

func TestTranslateError_Passthrough(t *testing.T) {
	boom := errors.New("boom")
	assert.Same(t, boom, translateError(boom))
}
