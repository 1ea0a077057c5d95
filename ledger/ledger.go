package ledger

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/hupe1980/hullmap/internal/container"
	"github.com/hupe1980/hullmap/model"
)

var (
	// ErrNotFound is returned when a PointID was never inserted.
	ErrNotFound = errors.New("ledger: point not found")
	// ErrEmptyPoint is returned when an internal coordinate vector is empty.
	ErrEmptyPoint = errors.New("ledger: empty internal coordinates")
)

// ErrInvalidDimension indicates an invalid global dimensionality.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("ledger: invalid dimension: %d", e.Dimension)
}

// ErrDimensionMismatch indicates a global point of the wrong dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("ledger: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Entry is one paired sample.
type Entry struct {
	Internal model.Point
	Global   model.Point
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMemoryAcquirer charges ledger segments and sample coordinates against
// a memory budget.
func WithMemoryAcquirer(acquirer container.MemoryAcquirer) Option {
	return func(l *Ledger) {
		l.acquirer = acquirer
	}
}

// Ledger is the append-only point ledger.
type Ledger struct {
	dim      int
	entries  *container.SegmentedArray[Entry]
	frozen   atomic.Bool
	acquirer container.MemoryAcquirer
	charged  atomic.Int64 // coordinate bytes held against acquirer
}

// PointBytes is the coordinate payload charged for one sample.
func PointBytes(internalLen, globalLen int) int64 {
	return int64(internalLen+globalLen) * 8
}

// New creates a ledger for global points of dimensionality dim.
func New(dim int, opts ...Option) (*Ledger, error) {
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}

	l := &Ledger{dim: dim}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = container.NewSegmentedArray[Entry](l.acquirer)
	return l, nil
}

// Dimension returns the global dimensionality.
func (l *Ledger) Dimension() int { return l.dim }

// Len returns the number of recorded points.
func (l *Ledger) Len() int { return int(l.entries.Len()) }

// AddPoint records one paired sample and returns its PointID.
// Both coordinate vectors are copied.
func (l *Ledger) AddPoint(internal, global []float64) (model.PointID, error) {
	if l.frozen.Load() {
		panic("ledger: AddPoint on frozen ledger")
	}
	if len(internal) == 0 {
		return 0, ErrEmptyPoint
	}
	if len(global) != l.dim {
		return 0, &ErrDimensionMismatch{Expected: l.dim, Actual: len(global)}
	}

	size := PointBytes(len(internal), len(global))
	if l.acquirer != nil {
		if err := l.acquirer.AcquireMemory(size); err != nil {
			return 0, fmt.Errorf("ledger: append: %w", err)
		}
	}

	// One backing array per sample keeps the pair in a single allocation.
	buf := make([]float64, len(internal)+len(global))
	copy(buf, internal)
	copy(buf[len(internal):], global)

	idx, err := l.entries.Append(Entry{
		Internal: model.Point(buf[:len(internal):len(internal)]),
		Global:   model.Point(buf[len(internal):]),
	})
	if err != nil {
		if l.acquirer != nil {
			l.acquirer.ReleaseMemory(size)
		}
		return 0, fmt.Errorf("ledger: append: %w", err)
	}
	if l.acquirer != nil {
		l.charged.Add(size)
	}
	return model.PointID(idx), nil
}

// Ref returns a stable handle to the record for id.
func (l *Ledger) Ref(id model.PointID) (*Entry, error) {
	e := l.entries.At(uint64(id))
	if e == nil {
		return nil, fmt.Errorf("%w: id %d (len %d)", ErrNotFound, id, l.Len())
	}
	return e, nil
}

// FindInternalPoint returns the internal coordinates paired with a global ID.
// The slice aliases ledger storage and must not be modified.
func (l *Ledger) FindInternalPoint(globalID model.PointID) (model.Point, error) {
	e, err := l.Ref(globalID)
	if err != nil {
		return nil, err
	}
	return e.Internal, nil
}

// FindGlobalPoint returns the global coordinates paired with an internal ID.
// The slice aliases ledger storage and must not be modified.
func (l *Ledger) FindGlobalPoint(internalID model.PointID) (model.Point, error) {
	e, err := l.Ref(internalID)
	if err != nil {
		return nil, err
	}
	return e.Global, nil
}

// GlobalPoints returns the dense positional sequence of global points.
// Position i holds the global point of PointID i. The returned slices alias
// ledger storage and must not be modified.
func (l *Ledger) GlobalPoints() [][]float64 {
	out := make([][]float64, 0, l.Len())
	for _, e := range l.entries.All() {
		out = append(out, e.Global)
	}
	return out
}

// All iterates over all records in PointID order.
func (l *Ledger) All() iter.Seq2[model.PointID, *Entry] {
	return func(yield func(model.PointID, *Entry) bool) {
		for i, e := range l.entries.All() {
			if !yield(model.PointID(i), e) {
				return
			}
		}
	}
}

// Freeze marks the ledger read-only for the rest of the pass.
func (l *Ledger) Freeze() { l.frozen.Store(true) }

// Frozen reports whether the ledger has been frozen.
func (l *Ledger) Frozen() bool { return l.frozen.Load() }

// Reset discards all records, releases their accounted memory and unfreezes
// the ledger.
func (l *Ledger) Reset() {
	if n := l.charged.Swap(0); n > 0 {
		l.acquirer.ReleaseMemory(n)
	}
	l.entries.Reset()
	l.frozen.Store(false)
}
