package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/uow"
)

// Registry observes both the notifier and units of work.
var (
	_ signal.Observer = (*Registry)(nil)
	_ uow.Observer    = (*Registry)(nil)
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type signalRaisedEntry struct {
	name string
	hook SignalRaised
}

type signalDispatchedEntry struct {
	name string
	hook SignalDispatched
}

type handlerFailedEntry struct {
	name string
	hook HandlerFailed
}

type scopeCommittedEntry struct {
	name string
	hook ScopeCommitted
}

type scopeRolledBackEntry struct {
	name string
	hook ScopeRolledBack
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register all extensions before the registry is handed to a notifier;
// emit methods do not lock.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	signalRaised     []signalRaisedEntry
	signalDispatched []signalDispatchedEntry
	handlerFailed    []handlerFailedEntry
	scopeCommitted   []scopeCommittedEntry
	scopeRolledBack  []scopeRolledBackEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(SignalRaised); ok {
		r.signalRaised = append(r.signalRaised, signalRaisedEntry{name, h})
	}
	if h, ok := e.(SignalDispatched); ok {
		r.signalDispatched = append(r.signalDispatched, signalDispatchedEntry{name, h})
	}
	if h, ok := e.(HandlerFailed); ok {
		r.handlerFailed = append(r.handlerFailed, handlerFailedEntry{name, h})
	}
	if h, ok := e.(ScopeCommitted); ok {
		r.scopeCommitted = append(r.scopeCommitted, scopeCommittedEntry{name, h})
	}
	if h, ok := e.(ScopeRolledBack); ok {
		r.scopeRolledBack = append(r.scopeRolledBack, scopeRolledBackEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Signal event emitters
// ──────────────────────────────────────────────────

// EmitSignalRaised notifies all extensions that implement SignalRaised.
func (r *Registry) EmitSignalRaised(ctx context.Context, e *signal.Event) {
	for _, x := range r.signalRaised {
		if err := x.hook.OnSignalRaised(ctx, e); err != nil {
			r.logHookError("OnSignalRaised", x.name, err)
		}
	}
}

// EmitSignalDispatched notifies all extensions that implement
// SignalDispatched.
func (r *Registry) EmitSignalDispatched(ctx context.Context, e *signal.Event, handlers int, elapsed time.Duration) {
	for _, x := range r.signalDispatched {
		if err := x.hook.OnSignalDispatched(ctx, e, handlers, elapsed); err != nil {
			r.logHookError("OnSignalDispatched", x.name, err)
		}
	}
}

// EmitHandlerFailed notifies all extensions that implement HandlerFailed.
func (r *Registry) EmitHandlerFailed(ctx context.Context, e *signal.Event, f *signal.HandlerFailure) {
	for _, x := range r.handlerFailed {
		if err := x.hook.OnHandlerFailed(ctx, e, f); err != nil {
			r.logHookError("OnHandlerFailed", x.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Unit-of-work event emitters
// ──────────────────────────────────────────────────

// EmitScopeCommitted notifies all extensions that implement ScopeCommitted.
func (r *Registry) EmitScopeCommitted(ctx context.Context, scopeID id.ScopeID) {
	for _, x := range r.scopeCommitted {
		if err := x.hook.OnScopeCommitted(ctx, scopeID); err != nil {
			r.logHookError("OnScopeCommitted", x.name, err)
		}
	}
}

// EmitScopeRolledBack notifies all extensions that implement
// ScopeRolledBack.
func (r *Registry) EmitScopeRolledBack(ctx context.Context, scopeID id.ScopeID, cause error) {
	for _, x := range r.scopeRolledBack {
		if err := x.hook.OnScopeRolledBack(ctx, scopeID, cause); err != nil {
			r.logHookError("OnScopeRolledBack", x.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, x := range r.shutdown {
		if err := x.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", x.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated to the raising code.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
