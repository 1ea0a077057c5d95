package hullmap

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/hullmap/blobstore"
	"github.com/hupe1980/hullmap/hull"
	"github.com/hupe1980/hullmap/internal/resource"
	"github.com/hupe1980/hullmap/lever"
	"github.com/hupe1980/hullmap/selector"
	"github.com/hupe1980/hullmap/snapshot"
)

// ResourceConfig holds the memory, worker and IO limits of a Map.
type ResourceConfig = resource.Config

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	builder          hull.Builder
	tolerance        float64
	epsilon          float64
	lowerEnvelope    bool
	tieBreaker       TieBreaker
	excluded         *roaring.Bitmap
	resources        *ResourceConfig
	diagnostics      blobstore.BlobStore
	compression      snapshot.Compression
}

// Option configures a Map.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring passes.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &hullmap.BasicMetricsCollector{}
//	m, _ := hullmap.New(2, hullmap.WithMetricsCollector(metrics))
//	// ... run a pass ...
//	stats := metrics.GetStats()
//	fmt.Printf("Hulls: %d, Avg latency: %dns\n", stats.HullCount, stats.HullAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for passes.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := hullmap.NewJSONLogger(slog.LevelInfo)
//	m, _ := hullmap.New(2, hullmap.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithHullBuilder replaces the hull builder. If nil, hull.Default is used.
//
// hull.Default is only fast for two global dimensions. For three or more it
// enumerates every vertex subset, which does not scale past small point
// sets; BuildHull then returns the context error once its deadline passes.
func WithHullBuilder(b hull.Builder) Option {
	return func(o *options) {
		if b == nil {
			b = hull.Default
		}
		o.builder = b
	}
}

// WithTolerance sets the facet containment tolerance used by candidate
// selection.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tolerance = tol
		}
	}
}

// WithEpsilon sets how far lever weights may stray outside [0, 1] before
// the solve fails with ErrInfeasibleWeights.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		if eps > 0 {
			o.epsilon = eps
		}
	}
}

// WithLowerEnvelope restricts candidates to facets whose outward normal
// points down the trailing energy axis. Enabled by default; it only applies
// to targets shorter than the global dimension.
func WithLowerEnvelope(enabled bool) Option {
	return func(o *options) {
		o.lowerEnvelope = enabled
	}
}

// WithTieBreaker sets the policy that picks one candidate in Solve.
// If nil, FewestPhases is used.
func WithTieBreaker(tb TieBreaker) Option {
	return func(o *options) {
		if tb == nil {
			tb = FewestPhases
		}
		o.tieBreaker = tb
	}
}

// WithExcluded withholds the given PointIDs from every hull built by the Map.
// The bitmap is copied; Reset restores it.
func WithExcluded(ids *roaring.Bitmap) Option {
	return func(o *options) {
		if ids == nil {
			o.excluded = nil
			return
		}
		o.excluded = ids.Clone()
	}
}

// WithResourceLimits bounds ledger memory (segments plus sample
// coordinates), concurrent samplers and archive throughput. By default memory is only tracked, samplers run up to
// GOMAXPROCS at a time and IO is unthrottled.
func WithResourceLimits(cfg ResourceConfig) Option {
	return func(o *options) {
		o.resources = &cfg
	}
}

// WithDiagnostics archives a snapshot to store whenever a pass ends in
// ErrDegenerateHull or ErrNoFeasibleCandidate.
func WithDiagnostics(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.diagnostics = store
	}
}

// WithCompression selects the snapshot block codec used by Archive.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		builder:          hull.Default,
		tolerance:        selector.DefaultTolerance,
		epsilon:          lever.DefaultEpsilon,
		lowerEnvelope:    true,
		tieBreaker:       FewestPhases,
		compression:      snapshot.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
