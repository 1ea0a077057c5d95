package container

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budget struct {
	limit int64
	used  int64
}

var errBudget = errors.New("budget exceeded")

func (b *budget) AcquireMemory(n int64) error {
	if b.used+n > b.limit {
		return errBudget
	}
	b.used += n
	return nil
}

func (b *budget) ReleaseMemory(n int64) { b.used -= n }

func TestSegmentedArray_AppendGet(t *testing.T) {
	sa := NewSegmentedArray[int](nil)

	for i := 0; i < 3*segmentSize+7; i++ {
		idx, err := sa.Append(i * 2)
		require.NoError(t, err)
		require.Equal(t, uint64(i), idx)
	}

	assert.Equal(t, uint64(3*segmentSize+7), sa.Len())

	v, ok := sa.Get(segmentSize + 1)
	assert.True(t, ok)
	assert.Equal(t, (segmentSize+1)*2, v)

	_, ok = sa.Get(sa.Len())
	assert.False(t, ok)
	assert.Nil(t, sa.At(sa.Len()))
}

func TestSegmentedArray_StablePointers(t *testing.T) {
	sa := NewSegmentedArray[[2]float64](nil)

	ptrs := make([]*[2]float64, 0, 10)
	for i := 0; i < 10; i++ {
		idx, err := sa.Append([2]float64{float64(i), -float64(i)})
		require.NoError(t, err)
		ptrs = append(ptrs, sa.At(idx))
	}

	// Force several segment allocations.
	for i := 0; i < 4*segmentSize; i++ {
		_, err := sa.Append([2]float64{1, 1})
		require.NoError(t, err)
	}

	for i, p := range ptrs {
		assert.Same(t, p, sa.At(uint64(i)))
		assert.Equal(t, [2]float64{float64(i), -float64(i)}, *p)
	}
}

func TestSegmentedArray_MemoryBudget(t *testing.T) {
	b := &budget{limit: SegmentBytes[int64]()}
	sa := NewSegmentedArray[int64](b)

	for i := 0; i < segmentSize; i++ {
		_, err := sa.Append(int64(i))
		require.NoError(t, err)
	}

	_, err := sa.Append(1)
	require.ErrorIs(t, err, errBudget)
	assert.Equal(t, uint64(segmentSize), sa.Len())

	sa.Reset()
	assert.Equal(t, int64(0), b.used)
	assert.Equal(t, uint64(0), sa.Len())
}

func TestSegmentedArray_ConcurrentReaders(t *testing.T) {
	sa := NewSegmentedArray[int](nil)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			n := sa.Len()
			for i := uint64(0); i < n; i++ {
				v, ok := sa.Get(i)
				if !ok || v != int(i) {
					t.Errorf("index %d: got %d ok=%v", i, v, ok)
					return
				}
			}
		}
	}()

	for i := 0; i < 2*segmentSize; i++ {
		_, err := sa.Append(i)
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
}

func TestSegmentedArray_All(t *testing.T) {
	sa := NewSegmentedArray[string](nil)
	for _, s := range []string{"a", "b", "c"} {
		_, err := sa.Append(s)
		require.NoError(t, err)
	}

	var got []string
	for i, p := range sa.All() {
		got = append(got, *p)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}
