package minio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hupe1980/hullmap/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_KeyMapping(t *testing.T) {
	s := NewStore(nil, "bucket", "hullmap/")

	assert.Equal(t, "hullmap/passes/1.hmap", s.key("passes/1.hmap"))
	assert.Equal(t, "passes/1.hmap", s.name("hullmap/passes/1.hmap"))
	assert.Equal(t, "hullmap", s.key(""))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

// TestStore_Integration runs against a live server when
// HULLMAP_MINIO_ENDPOINT is set (e.g. localhost:9000 with minioadmin
// credentials).
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("HULLMAP_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("HULLMAP_MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	ctx := context.Background()
	bucket := "hullmap-test"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "pass.hmap", data))

	got, err := blobstore.ReadAll(ctx, store, "pass.hmap")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	w, err := store.Create(ctx, "stream.hmap")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Subset(t, names, []string{"pass.hmap", "stream.hmap"})

	require.NoError(t, store.Delete(ctx, "pass.hmap"))
	require.NoError(t, store.Delete(ctx, "stream.hmap"))

	_, err = store.Open(ctx, "pass.hmap")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
