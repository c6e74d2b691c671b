package notify

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Arch199/crontrack/user"
)

// scopeName is the instrumentation scope for alert-delivery telemetry.
const scopeName = "github.com/Arch199/crontrack"

// Tracing returns middleware that wraps each delivery in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes: crontrack.user.id, crontrack.alert.method. On error,
// the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(scopeName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, recipient *user.User, next Handler) error {
		ctx, span := tracer.Start(ctx, "crontrack.alert.send",
			trace.WithAttributes(
				attribute.String("crontrack.user.id", recipient.ID.String()),
				attribute.String("crontrack.alert.method", string(recipient.AlertMethod)),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}

// Metrics returns middleware that records per-delivery metrics using the
// global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - crontrack.alert.duration (Float64Histogram): delivery time in
//     seconds, with attributes: method, status ("ok" or "error")
//   - crontrack.alert.sends (Int64Counter): total delivery attempts,
//     with attributes: method, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(scopeName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"crontrack.alert.duration",
		metric.WithDescription("Duration of alert delivery in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	sends, sErr := meter.Int64Counter(
		"crontrack.alert.sends",
		metric.WithDescription("Total number of alert delivery attempts"),
		metric.WithUnit("{send}"),
	)
	_ = sErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, recipient *user.User, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("method", string(recipient.AlertMethod)),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		sends.Add(ctx, 1, attrs)

		return err
	}
}
