package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("snapshot")
	require.NoError(t, store.Put(ctx, "a/1", data))
	data[0] = 'X'

	w, err := store.Create(ctx, "a/2")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	b, err := store.Open(ctx, "a/1")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(8), b.Size())

	buf := make([]byte, 8)
	_, err = b.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(buf))

	n, err := b.ReadAt(ctx, buf, 4)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "shot", string(buf[:n]))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, names)

	assert.Equal(t, int64(16), store.Bytes())

	require.NoError(t, store.Delete(ctx, "a/1"))
	_, err = store.Open(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(8), store.Bytes())

	require.NoError(t, store.Put(ctx, "a/2", []byte("x")))
	assert.Equal(t, int64(1), store.Bytes())
}

func TestMemoryStore_Canceled(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "a", nil), context.Canceled)
	_, err := store.Open(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

