package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/signals/ext"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/signals/observability"

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.SignalRaised     = (*MetricsExtension)(nil)
	_ ext.SignalDispatched = (*MetricsExtension)(nil)
	_ ext.HandlerFailed    = (*MetricsExtension)(nil)
	_ ext.ScopeCommitted   = (*MetricsExtension)(nil)
	_ ext.ScopeRolledBack  = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics with OTel
// instruments. Register it as an extension to track raise rates, dispatch
// latency, handler failures and scope outcomes.
type MetricsExtension struct {
	SignalRaised     metric.Int64Counter
	SignalDispatched metric.Int64Counter
	DispatchDuration metric.Float64Histogram
	HandlerFailed    metric.Int64Counter
	ScopeCommitted   metric.Int64Counter
	ScopeRolledBack  metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. OTel returns noop instruments on error, so construction never
// fails.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	duration, _ := meter.Float64Histogram("signals.dispatch.duration",
		metric.WithDescription("Time spent running every handler of a signal, in seconds"),
		metric.WithUnit("s"),
	)
	return &MetricsExtension{
		SignalRaised:     counter("signals.raised", "Signals raised"),
		SignalDispatched: counter("signals.dispatched", "Signals whose handlers all succeeded"),
		DispatchDuration: duration,
		HandlerFailed:    counter("signals.handler.failed", "Handlers that returned an error"),
		ScopeCommitted:   counter("signals.scope.committed", "Units of work committed"),
		ScopeRolledBack:  counter("signals.scope.rolled_back", "Units of work rolled back"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func keyAttrs(e *signal.Event) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("kind", string(e.Kind)),
		attribute.String("source", string(e.Source)),
	)
}

// ── Signal lifecycle hooks ──────────────────────────

// OnSignalRaised implements ext.SignalRaised.
func (m *MetricsExtension) OnSignalRaised(ctx context.Context, e *signal.Event) error {
	m.SignalRaised.Add(ctx, 1, keyAttrs(e))
	return nil
}

// OnSignalDispatched implements ext.SignalDispatched.
func (m *MetricsExtension) OnSignalDispatched(ctx context.Context, e *signal.Event, _ int, elapsed time.Duration) error {
	m.SignalDispatched.Add(ctx, 1, keyAttrs(e))
	m.DispatchDuration.Record(ctx, elapsed.Seconds(), keyAttrs(e))
	return nil
}

// OnHandlerFailed implements ext.HandlerFailed.
func (m *MetricsExtension) OnHandlerFailed(ctx context.Context, e *signal.Event, f *signal.HandlerFailure) error {
	m.HandlerFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(e.Kind)),
		attribute.String("source", string(e.Source)),
		attribute.String("handler", f.Handler),
	))
	return nil
}

// ── Unit-of-work lifecycle hooks ────────────────────

// OnScopeCommitted implements ext.ScopeCommitted.
func (m *MetricsExtension) OnScopeCommitted(ctx context.Context, _ id.ScopeID) error {
	m.ScopeCommitted.Add(ctx, 1)
	return nil
}

// OnScopeRolledBack implements ext.ScopeRolledBack.
func (m *MetricsExtension) OnScopeRolledBack(ctx context.Context, _ id.ScopeID, cause error) error {
	m.ScopeRolledBack.Add(ctx, 1, metric.WithAttributes(attribute.Bool("doomed", cause != nil)))
	return nil
}
