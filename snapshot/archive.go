package snapshot

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/hullmap/blobstore"
	"github.com/hupe1980/hullmap/internal/resource"
	"github.com/hupe1980/hullmap/ledger"
	"github.com/hupe1980/hullmap/phaseindex"
)

// Archive streams a snapshot to store under name. When rc is non-nil the
// upload is throttled by its IO limit. It returns the encoded size.
func Archive(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller,
	l *ledger.Ledger, x *phaseindex.Index, opts ...Option) (int64, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("snapshot: create %s: %w", name, err)
	}

	cw := &countingWriter{w: resource.NewRateLimitedWriter(ctx, w, rc)}
	if err := Write(cw, l, x, opts...); err != nil {
		_ = w.Abort()
		return cw.n, fmt.Errorf("snapshot: archive %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return cw.n, fmt.Errorf("snapshot: commit %s: %w", name, err)
	}
	return cw.n, nil
}

// Fetch reads and decodes the snapshot stored under name.
func Fetch(ctx context.Context, store blobstore.BlobStore, name string) (*Snapshot, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: fetch %s: %w", name, err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", name, err)
	}
	return s, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
