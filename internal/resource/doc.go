// Package resource bounds the resources a mapping pass may consume.
//
//	┌────────────────────────────────────────────────────────────┐
//	│                        Controller                          │
//	├──────────────────┬──────────────────┬──────────────────────┤
//	│  Memory budget   │  Sampler workers │  Archive IO          │
//	│  (fail-fast)     │  (semaphore)     │  (token bucket)      │
//	├──────────────────┼──────────────────┼──────────────────────┤
//	│  AcquireMemory   │  AcquireWorker   │  AcquireIO           │
//	│  ReleaseMemory   │  TryAcquire...   │  RateLimitedWriter   │
//	└──────────────────┴──────────────────┴──────────────────────┘
//
// The ledger charges each new segment against the memory budget, so a
// runaway sampler fails with ErrMemoryLimitExceeded instead of exhausting
// the process. Populate runs at most MaxWorkers samplers at once. Snapshot
// uploads are throttled to IOLimitBytesPerSec.
//
// All methods are safe for concurrent use, and all methods on a nil
// *Controller are no-ops.
package resource
