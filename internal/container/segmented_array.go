// Package container implements container data structures.
package container

import (
	"iter"
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	// segmentBits determines the size of each segment.
	// 10 bits = 1024 items per segment.
	segmentBits = 10
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// MemoryAcquirer charges segment allocations against a memory budget.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// SegmentedArray is an append-only array built from fixed-size segments.
//
// Segments are never moved or copied once allocated, so the address of an
// element stays valid for the lifetime of the array (until Reset). Reads are
// lock-free; appends are serialized by a mutex.
type SegmentedArray[T any] struct {
	segments atomic.Pointer[[]*Segment[T]]
	length   atomic.Uint64
	mu       sync.Mutex // Protects growth
	acquirer MemoryAcquirer
	charged  int64
}

// Segment is a fixed-size array of items.
type Segment[T any] struct {
	items [segmentSize]T
}

// NewSegmentedArray creates a new SegmentedArray.
// acquirer may be nil, in which case segment memory is not accounted.
func NewSegmentedArray[T any](acquirer MemoryAcquirer) *SegmentedArray[T] {
	sa := &SegmentedArray[T]{acquirer: acquirer}
	segments := make([]*Segment[T], 0)
	sa.segments.Store(&segments)
	return sa
}

// SegmentBytes returns the number of bytes charged per allocated segment.
func SegmentBytes[T any]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero)) * segmentSize
}

// Len returns the number of appended items.
func (sa *SegmentedArray[T]) Len() uint64 {
	return sa.length.Load()
}

// Append stores value at the next index and returns that index.
// It fails only if the memory acquirer rejects a new segment.
func (sa *SegmentedArray[T]) Append(value T) (uint64, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	index := sa.length.Load()
	segIdx := int(index >> segmentBits)

	current := *sa.segments.Load()
	if segIdx >= len(current) {
		if sa.acquirer != nil {
			if err := sa.acquirer.AcquireMemory(SegmentBytes[T]()); err != nil {
				return 0, err
			}
			sa.charged += SegmentBytes[T]()
		}

		// Copy-on-grow: readers holding the old slice still see valid
		// segment pointers because segments themselves are never copied.
		grown := make([]*Segment[T], segIdx+1)
		copy(grown, current)
		grown[segIdx] = &Segment[T]{}
		sa.segments.Store(&grown)
		current = grown
	}

	current[segIdx].items[index&segmentMask] = value

	// Publish after the item is written.
	sa.length.Store(index + 1)
	return index, nil
}

// At returns a stable pointer to the item at index, or nil if index has not
// been appended yet.
func (sa *SegmentedArray[T]) At(index uint64) *T {
	if index >= sa.length.Load() {
		return nil
	}
	segments := *sa.segments.Load()
	return &segments[index>>segmentBits].items[index&segmentMask]
}

// Get returns the item at the given index.
// Returns zero value if index is out of bounds.
func (sa *SegmentedArray[T]) Get(index uint64) (T, bool) {
	p := sa.At(index)
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// All iterates over all appended items in index order.
// Items appended during iteration are not visited.
func (sa *SegmentedArray[T]) All() iter.Seq2[uint64, *T] {
	return func(yield func(uint64, *T) bool) {
		n := sa.length.Load()
		segments := *sa.segments.Load()
		for i := uint64(0); i < n; i++ {
			if !yield(i, &segments[i>>segmentBits].items[i&segmentMask]) {
				return
			}
		}
	}
}

// Reset drops all segments and releases their accounted memory.
// Pointers obtained before Reset keep the old segments alive but no longer
// belong to the array.
func (sa *SegmentedArray[T]) Reset() {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	segments := make([]*Segment[T], 0)
	sa.segments.Store(&segments)
	sa.length.Store(0)

	if sa.acquirer != nil && sa.charged > 0 {
		sa.acquirer.ReleaseMemory(sa.charged)
	}
	sa.charged = 0
}
