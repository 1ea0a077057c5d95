// Package snapshot encodes a mapping pass (ledger records, phase boundaries
// and the hull exclusion mask) into a compact binary blob.
//
// Layout, little endian:
//
//	"HMAP" | version u16 | compression u8 | reserved u8
//	dimension u32
//	boundary count u32 | { threshold u64 | phase len u16 | phase bytes }...
//	excluded len u32 | roaring bitmap bytes
//	point count u64
//	block stream of records { internal dim u32 | internal f64... | global f64... }
//	crc32c u32 of the uncompressed record stream
//
// The block stream is a sequence of [uncompressed u32][compressed u32][data]
// blocks terminated by a zero header. A compressed size of 0 marks a stored
// block.
//
// Snapshots are diagnostics: Archive writes one to a blob store when a pass
// fails so the point set can be replayed offline with Fetch and Restore.
package snapshot
