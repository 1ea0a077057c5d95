// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "diagnostics-bucket", s3.WithPrefix("hullmap/"))
//	if err != nil { ... }
//
//	m, _ := hullmap.New(2, hullmap.WithDiagnostics(store))
//
// # Features
//
//   - Range reads for partial fetches
//   - Managed multipart uploads with CRC32C checksums
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
