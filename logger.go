package semdex

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with engine-specific helpers.
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

// NewJSONLogger creates a Logger that writes JSON-formatted logs to w.
// If w is nil, output goes to stderr.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that writes human-readable text logs to w.
// If w is nil, output goes to stderr.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogAdd logs a document upsert.
func (l *Logger) LogAdd(ctx context.Context, id string, added bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add document failed",
			"id", id,
			"error", err,
		)
		return
	}
	if added {
		l.DebugContext(ctx, "document added",
			"id", id,
		)
	} else {
		l.DebugContext(ctx, "document updated",
			"id", id,
		)
	}
}

// LogBatch logs a batch upsert.
func (l *Logger) LogBatch(ctx context.Context, total, failed int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "batch add failed",
			"total", total,
			"failed", failed,
			"error", err,
		)
	case failed > 0:
		l.WarnContext(ctx, "batch add completed with failures",
			"total", total,
			"failed", failed,
			"success", total-failed,
		)
	default:
		l.InfoContext(ctx, "batch add completed",
			"total", total,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"id", id,
		)
	}
}

// LogUsage logs a usage-count touch.
func (l *Logger) LogUsage(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "record usage failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "usage recorded",
			"id", id,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, limit, results int, cached bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"limit", limit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"limit", limit,
			"results", results,
			"cached", cached,
		)
	}
}

// LogCluster logs a clustering run.
func (l *Logger) LogCluster(ctx context.Context, k int, algorithm string, cached bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"k", k,
			"algorithm", algorithm,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "clustering completed",
			"k", k,
			"algorithm", algorithm,
			"cached", cached,
		)
	}
}

// LogRecommend logs a recommendation run.
func (l *Logger) LogRecommend(ctx context.Context, interactions, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recommendation failed",
			"interactions", interactions,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "recommendation completed",
			"interactions", interactions,
			"results", results,
		)
	}
}

// LogDrift logs a drift analysis.
func (l *Logger) LogDrift(ctx context.Context, overall float64, insufficient bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drift analysis failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "drift analysis completed",
			"overall", overall,
			"insufficient_data", insufficient,
		)
	}
}

// LogOptimize logs a maintenance run.
func (l *Logger) LogOptimize(ctx context.Context, failedSteps int, latencyChangePct float64, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "optimize failed",
			"failed_steps", failedSteps,
			"error", err,
		)
	case failedSteps > 0:
		l.WarnContext(ctx, "optimize completed with failures",
			"failed_steps", failedSteps,
			"latency_change_pct", latencyChangePct,
		)
	default:
		l.InfoContext(ctx, "optimize completed",
			"latency_change_pct", latencyChangePct,
		)
	}
}

// LogAnalyticsError logs a rejected analytics event. Sink failures are
// logged here and never propagated to the operation that emitted the event.
func (l *Logger) LogAnalyticsError(eventType string, err error) {
	l.Warn("analytics event rejected",
		"event_type", eventType,
		"error", err,
	)
}
