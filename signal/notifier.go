package signal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/signals"
	"github.com/xraph/signals/id"
)

// DefaultMaxDepth bounds nested Raise calls when no WithMaxDepth is given.
const DefaultMaxDepth = 16

// Observer receives dispatch lifecycle notifications. *ext.Registry
// implements it.
type Observer interface {
	EmitSignalRaised(ctx context.Context, e *Event)
	EmitSignalDispatched(ctx context.Context, e *Event, handlers int, elapsed time.Duration)
	EmitHandlerFailed(ctx context.Context, e *Event, f *HandlerFailure)
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the structured logger for the notifier.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// WithMiddleware appends middleware around every handler invocation.
// The first middleware given is the outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(n *Notifier) { n.mws = append(n.mws, mws...) }
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(n *Notifier) { n.observer = o }
}

// WithMaxDepth bounds how deeply handlers may raise further events.
func WithMaxDepth(depth int) Option {
	return func(n *Notifier) {
		if depth > 0 {
			n.maxDepth = depth
		}
	}
}

// RaiseOption configures a single Raise call.
type RaiseOption func(*raiseOptions)

type raiseOptions struct {
	scope Scope
}

// InScope raises the event inside the given unit of work. A handler failure
// marks the scope rollback-only.
func InScope(s Scope) RaiseOption {
	return func(o *raiseOptions) { o.scope = s }
}

// Notifier raises events against a Registry.
type Notifier struct {
	registry *Registry
	logger   *slog.Logger
	mws      []Middleware
	observer Observer
	maxDepth int
}

// New creates a notifier dispatching to the handlers in reg.
func New(reg *Registry, opts ...Option) *Notifier {
	n := &Notifier{
		registry: reg,
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Registry returns the handler registry.
func (n *Notifier) Registry() *Registry { return n.registry }

// Register adds h to the handlers for (kind, source).
func (n *Notifier) Register(kind Kind, source Source, h Handler) {
	n.registry.Register(kind, source, h)
}

// Raise invokes every handler registered for (kind, source) in registration
// order on the calling goroutine and returns when they have all finished.
//
// The first failing handler stops the dispatch; its error is returned as a
// *HandlerFailure and, when raised InScope, the scope is marked
// rollback-only. A panicking handler also dooms the scope before the panic
// continues up the stack.
func (n *Notifier) Raise(ctx context.Context, kind Kind, source Source, payload any, meta Metadata, opts ...RaiseOption) error {
	var ro raiseOptions
	for _, opt := range opts {
		opt(&ro)
	}

	depth := depthFrom(ctx)
	if depth >= n.maxDepth {
		err := fmt.Errorf("%w: %s/%s at depth %d", signals.ErrMaxDepthExceeded, kind, source, depth)
		if ro.scope != nil {
			ro.scope.MarkRollback(err)
		}
		return err
	}

	e := &Event{
		ID:       id.NewEventID(),
		Kind:     kind,
		Source:   source,
		Payload:  payload,
		Meta:     meta,
		RaisedAt: time.Now().UTC(),
		Scope:    ro.scope,
	}

	entries := n.registry.entries(e.Key())
	if n.observer != nil {
		n.observer.EmitSignalRaised(ctx, e)
	}
	if len(entries) == 0 {
		if n.observer != nil {
			n.observer.EmitSignalDispatched(ctx, e, 0, 0)
		}
		return nil
	}

	ctx = withDepth(ctx, depth+1)
	start := time.Now()
	for pos, ent := range entries {
		if err := n.invoke(ctx, e, ent, pos); err != nil {
			f := &HandlerFailure{
				Kind:     kind,
				Source:   source,
				Handler:  ent.name,
				Position: pos,
				Err:      err,
			}
			if e.Scope != nil {
				e.Scope.MarkRollback(f)
			}
			n.logger.Warn("signal handler failed",
				slog.String("kind", string(kind)),
				slog.String("source", string(source)),
				slog.String("handler", ent.name),
				slog.Int("position", pos),
				slog.Bool("in_scope", e.Scope != nil),
				slog.String("error", err.Error()),
			)
			if n.observer != nil {
				n.observer.EmitHandlerFailed(ctx, e, f)
			}
			return f
		}
	}

	if n.observer != nil {
		n.observer.EmitSignalDispatched(ctx, e, len(entries), time.Since(start))
	}
	return nil
}

func (n *Notifier) invoke(ctx context.Context, e *Event, ent entry, pos int) error {
	completed := false
	defer func() {
		if !completed && e.Scope != nil {
			e.Scope.MarkRollback(fmt.Errorf("%w: handler %s panicked", signals.ErrHandlerFailure, ent.name))
		}
	}()

	next := Next(func(ctx context.Context) error {
		return ent.handler.Handle(ctx, e)
	})
	if len(n.mws) > 0 {
		c := &Call{Event: e, Handler: ent.name, Position: pos}
		for i := len(n.mws) - 1; i >= 0; i-- {
			mw, inner := n.mws[i], next
			next = func(ctx context.Context) error { return mw(ctx, c, inner) }
		}
	}

	err := next(ctx)
	completed = true
	return err
}

type depthKey struct{}

func depthFrom(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

func withDepth(ctx context.Context, d int) context.Context {
	return context.WithValue(ctx, depthKey{}, d)
}

// Depth reports how many dispatches enclose ctx. It is zero outside any
// handler.
func Depth(ctx context.Context) int { return depthFrom(ctx) }
