// Package hullmap maps sampled phase energies onto a convex hull in
// composition-energy space and solves for phase equilibrium with the lever
// rule.
//
// A pass records points for each phase, builds the hull once, and then
// answers equilibrium queries against it:
//
//	m, _ := hullmap.New(2) // one composition axis plus energy
//	m.AddPhase(ctx, "FCC_A1", fccSamples)
//	m.AddPhase(ctx, "LIQUID", liquidSamples)
//	m.BuildHull(ctx)
//	res, err := m.Solve(ctx, []float64{0.4})
//
// # Points and phases
//
// Every sample pairs a phase's internal coordinates (for example sublattice
// site fractions) with its global coordinates: composition followed by
// energy. The pair is stored once and addressed by a PointID that never
// changes or moves for the lifetime of the pass. Phase membership is
// recorded as run-length boundaries over PointIDs, so each phase's points
// must be appended contiguously. AddPhase does this for one batch; Populate
// samples many phases in parallel and merges them in order.
//
// # Hull and queries
//
// BuildHull freezes the ledger and computes the hull of all non-excluded
// global points. Candidates returns every facet whose simplex contains the
// target composition and that satisfies the activity constraints, each
// with lever-rule phase fractions. Solve picks one with the configured
// TieBreaker.
//
// # Errors
//
// Recoverable outcomes are reported as errors matching ErrDegenerateHull,
// ErrNoFeasibleCandidate, ErrSingularSystem or ErrInfeasibleWeights; the
// caller decides whether to re-sample. Misuse of the append protocol, such
// as appending after BuildHull, panics.
//
// # Diagnostics
//
// Archive writes a compressed snapshot of the pass to any blobstore
// (local disk, memory, S3, MinIO). With WithDiagnostics a snapshot is
// written automatically when a pass fails; Load replays it.
package hullmap
