package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/signals/signal"
)

// Logging returns middleware that logs handler start and completion at
// debug level. Calls slower than slow are logged as warnings; a zero slow
// disables the warning.
func Logging(logger *slog.Logger, slow time.Duration) Middleware {
	return func(ctx context.Context, c *signal.Call, next Handler) error {
		logger.Debug("signal handler started",
			slog.String("handler", c.Handler),
			slog.String("signal", callKey(c)),
			slog.Int("position", c.Position),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			logger.Error("signal handler returned error",
				slog.String("handler", c.Handler),
				slog.String("signal", callKey(c)),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		case slow > 0 && elapsed > slow:
			logger.Warn("slow signal handler",
				slog.String("handler", c.Handler),
				slog.String("signal", callKey(c)),
				slog.Duration("elapsed", elapsed),
				slog.Duration("threshold", slow),
			)
		default:
			logger.Debug("signal handler completed",
				slog.String("handler", c.Handler),
				slog.String("signal", callKey(c)),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
