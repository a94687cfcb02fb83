// Package ext defines the extension system for signals.
// Extensions are notified of lifecycle events (signal raised, dispatched,
// handler failed, scope committed, etc.) and can react to them: logging,
// metrics, auditing, relaying.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Signal lifecycle hooks
// ──────────────────────────────────────────────────

// SignalRaised is called when Raise is entered, before any handler runs.
type SignalRaised interface {
	OnSignalRaised(ctx context.Context, e *signal.Event) error
}

// SignalDispatched is called after every handler for an event returned
// successfully. handlers is zero when nothing was registered.
type SignalDispatched interface {
	OnSignalDispatched(ctx context.Context, e *signal.Event, handlers int, elapsed time.Duration) error
}

// HandlerFailed is called when a handler returns an error and dispatch
// stops.
type HandlerFailed interface {
	OnHandlerFailed(ctx context.Context, e *signal.Event, f *signal.HandlerFailure) error
}

// ──────────────────────────────────────────────────
// Unit-of-work lifecycle hooks
// ──────────────────────────────────────────────────

// ScopeCommitted is called after a unit of work commits.
type ScopeCommitted interface {
	OnScopeCommitted(ctx context.Context, scopeID id.ScopeID) error
}

// ScopeRolledBack is called after a unit of work rolls back. cause is the
// first rollback reason, or nil for a plain Rollback.
type ScopeRolledBack interface {
	OnScopeRolledBack(ctx context.Context, scopeID id.ScopeID, cause error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
