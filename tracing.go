package caas

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans emitted by this module in whatever
// TracerProvider the embedding application has configured. No
// exporter is wired here — configuring OTLP, Jaeger, or any other
// backend is the embedding collaborator's concern (§6: transports are
// out of scope for the core).
const tracerName = "github.com/oarkflow/caas-audit"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// startSpan begins a span and returns the derived context plus an end
// function that records err (if any) and closes the span. Grounded on
// paulwilltell-OFFGRIDFLOW's internal/tracing and internal/observability
// packages, trimmed to the span-only subset relevant here (no metrics
// exporter, no OTLP config).
func startSpan(ctx context.Context, name string) (context.Context, func(*error)) {
	ctx, span := tracer().Start(ctx, name)
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
		}
		span.End()
	}
}
