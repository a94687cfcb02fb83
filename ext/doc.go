// Package ext defines the extension system for signals.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, writing audit logs, relaying events after commit.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnHandlerFailed(ctx context.Context, ev *signal.Event, f *signal.HandlerFailure) error {
//	    log.Printf("%s failed for %s", f.Handler, ev.Key())
//	    return nil
//	}
//
// # Signal Lifecycle Hooks
//
//   - [SignalRaised]: Raise was called
//   - [SignalDispatched]: every handler returned successfully
//   - [HandlerFailed]: a handler returned an error and dispatch stopped
//
// # Unit-of-Work Hooks
//
//   - [ScopeCommitted]: a scope committed
//   - [ScopeRolledBack]: a scope rolled back, with its cause
//
// # Other Hooks
//
//   - [Shutdown]: the engine is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. It implements both
// signal.Observer and uow.Observer, so one registry observes the notifier
// and every scope the engine opens.
package ext
