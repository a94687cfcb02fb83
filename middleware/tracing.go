package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/signals/signal"
)

// tracerName is the instrumentation scope name for signals tracing.
const tracerName = "github.com/xraph/signals"

// Tracing returns middleware that wraps each handler call in an
// OpenTelemetry span using the global TracerProvider. Without one the noop
// tracer makes this a pass-through.
//
// Span attributes: signals.event.id, signals.kind, signals.source,
// signals.handler, signals.position, signals.depth, signals.created,
// signals.in_scope and, for scoped events, signals.scope.id.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// Handlers that raise further events get child spans because the span
// travels on the context.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, c *signal.Call, next Handler) (err error) {
		e := c.Event
		attrs := []attribute.KeyValue{
			attribute.String("signals.event.id", e.ID.String()),
			attribute.String("signals.kind", string(e.Kind)),
			attribute.String("signals.source", string(e.Source)),
			attribute.String("signals.handler", c.Handler),
			attribute.Int("signals.position", c.Position),
			attribute.Int("signals.depth", signal.Depth(ctx)),
			attribute.Bool("signals.created", e.Meta.Created),
			attribute.Bool("signals.in_scope", e.Scope != nil),
		}
		if s, ok := e.Scope.(fmt.Stringer); ok {
			attrs = append(attrs, attribute.String("signals.scope.id", s.String()))
		}

		ctx, span := tracer.Start(ctx, "signals.handler.invoke",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer func() {
			if r := recover(); r != nil {
				span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
				span.End()
				panic(r)
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}()

		return next(ctx)
	}
}
