package hullmap

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/hupe1980/hullmap/model"
)

// Logger wraps slog.Logger with hullmap-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPhase adds a phase field to the logger.
func (l *Logger) WithPhase(phase model.PhaseID) *Logger {
	return &Logger{
		Logger: l.Logger.With("phase", string(phase)),
	}
}

// WithPass adds a pass counter field to the logger.
func (l *Logger) WithPass(pass uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("pass", pass),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogAddPhase logs a phase batch append.
func (l *Logger) LogAddPhase(ctx context.Context, phase model.PhaseID, points int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "add phase failed",
			"phase", string(phase),
			"points", points,
			"error", err,
		)
	case points == 0:
		l.WarnContext(ctx, "empty phase batch skipped",
			"phase", string(phase),
		)
	default:
		l.DebugContext(ctx, "phase added",
			"phase", string(phase),
			"points", points,
		)
	}
}

// LogHull logs a hull construction. Degenerate hulls are recoverable and
// logged as warnings.
func (l *Logger) LogHull(ctx context.Context, points, facets int, err error) {
	switch {
	case errors.Is(err, ErrDegenerateHull):
		l.WarnContext(ctx, "degenerate hull",
			"points", points,
			"error", err,
		)
	case err != nil:
		l.ErrorContext(ctx, "hull construction failed",
			"points", points,
			"error", err,
		)
	default:
		l.InfoContext(ctx, "hull built",
			"points", points,
			"facets", facets,
		)
	}
}

// LogSelect logs a candidate selection.
func (l *Logger) LogSelect(ctx context.Context, target []float64, candidates int, err error) {
	if err != nil {
		l.DebugContext(ctx, "candidate selection failed",
			"target", model.Point(target).String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "candidates selected",
			"target", model.Point(target).String(),
			"candidates", candidates,
		)
	}
}

// LogSolve logs an equilibrium solve.
func (l *Logger) LogSolve(ctx context.Context, target []float64, phases int, err error) {
	switch {
	case errors.Is(err, ErrNoFeasibleCandidate):
		l.WarnContext(ctx, "no feasible candidate",
			"target", model.Point(target).String(),
		)
	case err != nil:
		l.ErrorContext(ctx, "solve failed",
			"target", model.Point(target).String(),
			"error", err,
		)
	default:
		l.DebugContext(ctx, "solve completed",
			"target", model.Point(target).String(),
			"phases", phases,
		)
	}
}

// LogArchive logs a snapshot upload.
func (l *Logger) LogArchive(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archive failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot archived",
			"name", name,
			"bytes", bytes,
		)
	}
}
