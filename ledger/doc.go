// Package ledger implements the point ledger of a global-minimization pass.
//
// The ledger is an append-only arena of (internal, global) coordinate pairs
// keyed by a monotonically increasing PointID. Both halves of a sample are
// stored in one record, so the Nth internal point and the Nth global point
// always describe the same physical sample.
//
// # Stable References
//
// Records live in fixed-size segments that are never relocated on growth.
// Points and *Entry handles returned by the ledger stay valid and unchanged
// while further points are appended:
//
//	l, _ := ledger.New(2)
//	id, _ := l.AddPoint([]float64{0.5, 0.5}, []float64{0.25, -1200})
//	p, _ := l.FindInternalPoint(id)
//	// ... many more AddPoint calls ...
//	// p still refers to (0.5, 0.5)
//
// # Lifecycle
//
// A ledger is populated once per pass, frozen before hull construction and
// Reset before the next pass. Appending to a frozen ledger is a protocol
// violation and panics.
package ledger
