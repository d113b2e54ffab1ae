package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceInvalidation starts a span covering the key deletions of one mutation
func TraceInvalidation(ctx context.Context, mutation string, keys []string) (context.Context, trace.Span) {
	return otel.Tracer("cache").Start(ctx, "cache.invalidate",
		trace.WithAttributes(
			attribute.String("cache.mutation", mutation),
			attribute.StringSlice("cache.keys", keys),
		),
	)
}

// TraceFanOut starts a span for a real-time publish to a room
func TraceFanOut(ctx context.Context, room, event string) (context.Context, trace.Span) {
	return otel.Tracer("realtime").Start(ctx, "realtime.publish",
		trace.WithAttributes(
			attribute.String("realtime.room", room),
			attribute.String("realtime.event", event),
		),
	)
}

// RecordDeliveries annotates a fan-out span with how many sessions got the frame
func RecordDeliveries(span trace.Span, delivered int) {
	span.SetAttributes(attribute.Int("realtime.delivered", delivered))
}
