package infrastructure

import "context"

type contextKey string

const runIDContextKey contextKey = "run_id"

// WithRunID attaches a pipeline run ID to the context so every log record
// emitted during the run carries it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDContextKey, runID)
}

// RunIDFromContext returns the run ID, empty when absent.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(runIDContextKey).(string); ok {
		return v
	}
	return ""
}
