package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/signals/signal"
)

// meterName is the instrumentation scope name for signals metrics.
const meterName = "github.com/xraph/signals"

// Handler outcomes recorded in the status attribute.
const (
	statusOK    = "ok"
	statusError = "error"
	statusPanic = "panic"
)

// Metrics returns middleware that records per-handler metrics using the
// global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - signals.handler.duration (Float64Histogram): handler time in seconds
//   - signals.handler.invocations (Int64Counter): total invocations
//
// Both carry the attributes handler, kind, source, created and status
// ("ok", "error" or "panic").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// OTel returns noop instruments on error.
	duration, _ := meter.Float64Histogram(
		"signals.handler.duration",
		metric.WithDescription("Duration of signal handler execution in seconds"),
		metric.WithUnit("s"),
	)
	invocations, _ := meter.Int64Counter(
		"signals.handler.invocations",
		metric.WithDescription("Total number of signal handler invocations"),
		metric.WithUnit("{invocation}"),
	)

	record := func(ctx context.Context, c *signal.Call, start time.Time, status string) {
		attrs := metric.WithAttributes(
			attribute.String("handler", c.Handler),
			attribute.String("kind", string(c.Event.Kind)),
			attribute.String("source", string(c.Event.Source)),
			attribute.Bool("created", c.Event.Meta.Created),
			attribute.String("status", status),
		)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
		invocations.Add(ctx, 1, attrs)
	}

	return func(ctx context.Context, c *signal.Call, next Handler) error {
		start := time.Now()
		completed := false
		defer func() {
			if !completed {
				record(ctx, c, start, statusPanic)
			}
		}()

		err := next(ctx)
		completed = true

		status := statusOK
		if err != nil {
			status = statusError
		}
		record(ctx, c, start, status)
		return err
	}
}
