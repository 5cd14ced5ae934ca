package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// DetachTraceContext copies the span context from src into baseCtx. Use
// it when a background goroutine should inherit the server's shutdown
// cancellation while keeping the trace link to the request that spawned
// it.
func DetachTraceContext(src, baseCtx context.Context) context.Context {
	sc := trace.SpanContextFromContext(src)
	if !sc.IsValid() {
		return baseCtx
	}
	return trace.ContextWithRemoteSpanContext(baseCtx, sc)
}
