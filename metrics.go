package hullmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAddPhase is called after each phase batch append.
	// points is the number of points appended.
	RecordAddPhase(points int, duration time.Duration, err error)

	// RecordHull is called after each hull construction with the number of
	// input points and resulting facets.
	RecordHull(points, facets int, duration time.Duration, err error)

	// RecordSelect is called after each candidate selection.
	RecordSelect(candidates int, duration time.Duration, err error)

	// RecordSolve is called after each equilibrium solve with the number of
	// distinct phases in the result.
	RecordSolve(phases int, duration time.Duration, err error)

	// RecordArchive is called after each snapshot upload.
	RecordArchive(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddPhase(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordHull(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSelect(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordSolve(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordArchive(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddPhaseCount    atomic.Int64
	AddPhasePoints   atomic.Int64
	AddPhaseErrors   atomic.Int64
	HullCount        atomic.Int64
	HullErrors       atomic.Int64
	HullFacets       atomic.Int64
	HullTotalNanos   atomic.Int64
	SelectCount      atomic.Int64
	SelectErrors     atomic.Int64
	SelectCandidates atomic.Int64
	SolveCount       atomic.Int64
	SolveErrors      atomic.Int64
	SolveTotalNanos  atomic.Int64
	ArchiveCount     atomic.Int64
	ArchiveErrors    atomic.Int64
	ArchiveBytes     atomic.Int64
}

// RecordAddPhase implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddPhase(points int, duration time.Duration, err error) {
	b.AddPhaseCount.Add(1)
	b.AddPhasePoints.Add(int64(points))
	if err != nil {
		b.AddPhaseErrors.Add(1)
	}
}

// RecordHull implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHull(points, facets int, duration time.Duration, err error) {
	b.HullCount.Add(1)
	b.HullFacets.Add(int64(facets))
	b.HullTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.HullErrors.Add(1)
	}
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(candidates int, duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectCandidates.Add(int64(candidates))
	if err != nil {
		b.SelectErrors.Add(1)
	}
}

// RecordSolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSolve(phases int, duration time.Duration, err error) {
	b.SolveCount.Add(1)
	b.SolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SolveErrors.Add(1)
	}
}

// RecordArchive implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArchive(bytes int64, duration time.Duration, err error) {
	b.ArchiveCount.Add(1)
	b.ArchiveBytes.Add(bytes)
	if err != nil {
		b.ArchiveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddPhaseCount:    b.AddPhaseCount.Load(),
		AddPhasePoints:   b.AddPhasePoints.Load(),
		AddPhaseErrors:   b.AddPhaseErrors.Load(),
		HullCount:        b.HullCount.Load(),
		HullErrors:       b.HullErrors.Load(),
		HullFacets:       b.HullFacets.Load(),
		HullAvgNanos:     avg(b.HullTotalNanos.Load(), b.HullCount.Load()),
		SelectCount:      b.SelectCount.Load(),
		SelectErrors:     b.SelectErrors.Load(),
		SelectCandidates: b.SelectCandidates.Load(),
		SolveCount:       b.SolveCount.Load(),
		SolveErrors:      b.SolveErrors.Load(),
		SolveAvgNanos:    avg(b.SolveTotalNanos.Load(), b.SolveCount.Load()),
		ArchiveCount:     b.ArchiveCount.Load(),
		ArchiveErrors:    b.ArchiveErrors.Load(),
		ArchiveBytes:     b.ArchiveBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddPhaseCount    int64
	AddPhasePoints   int64
	AddPhaseErrors   int64
	HullCount        int64
	HullErrors       int64
	HullFacets       int64
	HullAvgNanos     int64
	SelectCount      int64
	SelectErrors     int64
	SelectCandidates int64
	SolveCount       int64
	SolveErrors      int64
	SolveAvgNanos    int64
	ArchiveCount     int64
	ArchiveErrors    int64
	ArchiveBytes     int64
}
