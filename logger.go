package sightline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/sightline/index/bvh"
)

// Logger is the engine's slog.Logger. Its Log* methods emit the load,
// build, query and batch events with fixed attribute keys.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON lines at or above level to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs key=value lines at or above level to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger drops every record.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithSource adds the snapshot name to the logger.
func (l *Logger) WithSource(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", name),
	}
}

// LogLoad logs a snapshot load.
func (l *Logger) LogLoad(ctx context.Context, name string, cells int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"source", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot loaded",
		"source", name,
		"cells", cells,
		"duration", duration,
	)
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, stats bvh.Stats, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"cells", stats.Cells,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"cells", stats.Cells,
		"nodes", stats.Nodes,
		"leaves", stats.Leaves,
		"max_depth", stats.MaxDepth,
		"duration", duration,
	)
}

// LogQuery logs a single ray query.
func (l *Logger) LogQuery(ctx context.Context, op string, segments int, err error) {
	if err != nil {
		l.WarnContext(ctx, "query failed",
			"op", op,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"op", op,
		"segments", segments,
	)
}

// LogBatch logs a batch summary.
func (l *Logger) LogBatch(ctx context.Context, rays, failed int, touched uint64, err error) {
	switch {
	case err != nil:
		l.WarnContext(ctx, "batch interrupted",
			"rays", rays,
			"failed", failed,
			"error", err,
		)
	case failed > 0:
		l.WarnContext(ctx, "batch completed with failures",
			"rays", rays,
			"failed", failed,
			"success", rays-failed,
			"cells_touched", touched,
		)
	default:
		l.DebugContext(ctx, "batch completed",
			"rays", rays,
			"cells_touched", touched,
		)
	}
}
