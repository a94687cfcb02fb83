package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/signals/signal"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace; the
// notifier then treats the call as a failed handler.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, c *signal.Call, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("signal handler panicked",
					slog.String("handler", c.Handler),
					slog.String("signal", callKey(c)),
					slog.String("event_id", c.Event.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in handler %s: %v", c.Handler, r)
			}
		}()
		return next(ctx)
	}
}
