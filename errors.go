package hullmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hullmap/hull"
	"github.com/hupe1980/hullmap/ledger"
	"github.com/hupe1980/hullmap/lever"
	"github.com/hupe1980/hullmap/phaseindex"
	"github.com/hupe1980/hullmap/selector"
)

var (
	// ErrNotFound is returned when a PointID was never recorded.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange is returned when a PointID lies beyond the last phase
	// boundary.
	ErrOutOfRange = errors.New("out of range")

	// ErrInconsistent is returned when the phase boundaries do not cover the
	// ledger exactly.
	ErrInconsistent = errors.New("phase boundaries inconsistent with ledger")

	// ErrDegenerateHull is returned when the hull has no usable facets.
	// Callers usually re-sample and start a new pass.
	ErrDegenerateHull = errors.New("degenerate hull")

	// ErrNoFeasibleCandidate is returned when no facet admits the target.
	ErrNoFeasibleCandidate = errors.New("no feasible candidate")

	// ErrSingularSystem is returned when a facet's lever system is rank
	// deficient. It also matches ErrDegenerateHull.
	ErrSingularSystem = errors.New("singular lever system")

	// ErrInfeasibleWeights is returned when the lever weights fall outside
	// [0, 1] beyond epsilon.
	ErrInfeasibleWeights = errors.New("infeasible lever weights")

	// ErrHullNotBuilt is returned by queries issued before BuildHull.
	ErrHullNotBuilt = errors.New("hull not built")
)

// ErrDimensionMismatch indicates a point or target of the wrong dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Lookup failures.
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, phaseindex.ErrOutOfRange) {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	if errors.Is(err, phaseindex.ErrInconsistent) {
		return fmt.Errorf("%w: %w", ErrInconsistent, err)
	}

	// Geometry outcomes.
	if errors.Is(err, lever.ErrSingularSystem) {
		return fmt.Errorf("%w: %w: %w", ErrSingularSystem, ErrDegenerateHull, err)
	}
	if errors.Is(err, lever.ErrInfeasibleWeights) {
		return fmt.Errorf("%w: %w", ErrInfeasibleWeights, err)
	}
	if errors.Is(err, hull.ErrDegenerateHull) {
		return fmt.Errorf("%w: %w", ErrDegenerateHull, err)
	}
	if errors.Is(err, selector.ErrNoFeasibleCandidate) {
		return fmt.Errorf("%w: %w", ErrNoFeasibleCandidate, err)
	}

	// Dimension normalization.
	var dm *ledger.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *ledger.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}

	return err
}
