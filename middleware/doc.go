// Package middleware provides composable middleware for signal handler
// invocations.
//
// A [Middleware] wraps a single handler call made by the notifier.
// Middleware are composed into a chain using [Chain] or installed with
// signal.WithMiddleware. They are applied right-to-left: the first
// middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger, time.Second), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging]: logs handler name, signal key, duration and outcome; warns on slow handlers
//   - [Recover]: catches panics and converts them to errors
//   - [Tracing]: wraps each handler call in an OpenTelemetry span
//   - [Metrics]: records per-handler duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, c *signal.Call, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting. Handlers run on the raising goroutine, so middleware
// must not hand the call off to another goroutine.
package middleware
