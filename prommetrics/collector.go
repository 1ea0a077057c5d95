// Package prommetrics exports hullmap pass metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	m, _ := hullmap.New(2, hullmap.WithMetricsCollector(prommetrics.New(reg)))
package prommetrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/hullmap"
)

const namespace = "hullmap"

// Operation label values.
const (
	OpAddPhase = "add_phase"
	OpHull     = "hull"
	OpSelect   = "select"
	OpSolve    = "solve"
	OpArchive  = "archive"
)

var _ hullmap.MetricsCollector = (*Collector)(nil)

// Collector implements hullmap.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	points       prometheus.Counter
	facets       prometheus.Gauge
	candidates   prometheus.Histogram
	phases       prometheus.Histogram
	archiveBytes prometheus.Counter
}

// New creates a Collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of pass operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Pass operations by outcome",
		}, []string{"op", "status"}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_added_total",
			Help:      "Points appended to the ledger",
		}),
		facets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hull_facets",
			Help:      "Facets of the most recent hull",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "select_candidates",
			Help:      "Feasible candidates per selection",
			Buckets:   []float64{0, 1, 2, 3, 4, 8, 16},
		}),
		phases: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_phases",
			Help:      "Distinct phases per equilibrium solution",
			Buckets:   []float64{1, 2, 3, 4, 5, 6},
		}),
		archiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_bytes_total",
			Help:      "Encoded snapshot bytes written",
		}),
	}

	reg.MustRegister(
		c.opLatency,
		c.ops,
		c.points,
		c.facets,
		c.candidates,
		c.phases,
		c.archiveBytes,
	)
	return c
}

// Status maps an operation error to its status label.
func Status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, hullmap.ErrSingularSystem):
		return "singular"
	case errors.Is(err, hullmap.ErrInfeasibleWeights):
		return "infeasible_weights"
	case errors.Is(err, hullmap.ErrDegenerateHull):
		return "degenerate"
	case errors.Is(err, hullmap.ErrNoFeasibleCandidate):
		return "no_candidate"
	default:
		return "error"
	}
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	status := Status(err)
	c.opLatency.WithLabelValues(op, status).Observe(d.Seconds())
	c.ops.WithLabelValues(op, status).Inc()
}

// RecordAddPhase implements hullmap.MetricsCollector.
func (c *Collector) RecordAddPhase(points int, d time.Duration, err error) {
	c.observe(OpAddPhase, d, err)
	c.points.Add(float64(points))
}

// RecordHull implements hullmap.MetricsCollector.
func (c *Collector) RecordHull(points, facets int, d time.Duration, err error) {
	c.observe(OpHull, d, err)
	c.facets.Set(float64(facets))
}

// RecordSelect implements hullmap.MetricsCollector.
func (c *Collector) RecordSelect(candidates int, d time.Duration, err error) {
	c.observe(OpSelect, d, err)
	c.candidates.Observe(float64(candidates))
}

// RecordSolve implements hullmap.MetricsCollector.
func (c *Collector) RecordSolve(phases int, d time.Duration, err error) {
	c.observe(OpSolve, d, err)
	if err == nil {
		c.phases.Observe(float64(phases))
	}
}

// RecordArchive implements hullmap.MetricsCollector.
func (c *Collector) RecordArchive(bytes int64, d time.Duration, err error) {
	c.observe(OpArchive, d, err)
	c.archiveBytes.Add(float64(bytes))
}
