// Package uow implements the unit of work that signal dispatch composes
// with: a transactional scope over *sql.Tx whose rollback undoes every write
// made through it, including writes made by event handlers.
//
// A scope begun without a database is detached: it has no transaction and
// only runs its commit and rollback callbacks. The memory store relies on
// rollback callbacks to undo its writes.
package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/signals"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

var _ signal.Scope = (*Scope)(nil)

// State is the lifecycle state of a Scope.
type State int

const (
	StateActive State = iota
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives scope lifecycle notifications. *ext.Registry
// implements it.
type Observer interface {
	EmitScopeCommitted(ctx context.Context, scopeID id.ScopeID)
	EmitScopeRolledBack(ctx context.Context, scopeID id.ScopeID, cause error)
}

// Option configures a Scope.
type Option func(*Scope)

// WithTxOptions sets the isolation level and read-only flag of the
// underlying transaction.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(s *Scope) { s.txOpts = opts }
}

// WithLogger sets the structured logger for the scope.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scope) { s.logger = l }
}

// WithObserver sets the lifecycle observer for the scope.
func WithObserver(o Observer) Option {
	return func(s *Scope) { s.observer = o }
}

// Scope is a single unit of work. It is used from one goroutine at a time;
// the mutex only keeps MarkRollback safe when called from a handler that
// spawned its own goroutine.
type Scope struct {
	id       id.ScopeID
	ctx      context.Context
	tx       *sql.Tx
	txOpts   *sql.TxOptions
	logger   *slog.Logger
	observer Observer

	mu         sync.Mutex
	state      State
	cause      error
	onCommit   []func(context.Context)
	onRollback []func()
}

// Begin starts a unit of work. With a nil db the scope is detached.
func Begin(ctx context.Context, db *sql.DB, opts ...Option) (*Scope, error) {
	s := &Scope{
		id:     id.NewScopeID(),
		ctx:    ctx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if db != nil {
		tx, err := db.BeginTx(ctx, s.txOpts)
		if err != nil {
			return nil, fmt.Errorf("signals/uow: begin: %w", err)
		}
		s.tx = tx
	}

	s.logger.Debug("scope begun",
		slog.String("scope_id", s.id.String()),
		slog.Bool("detached", s.tx == nil),
	)
	return s, nil
}

// ID returns the scope identifier.
func (s *Scope) ID() id.ScopeID { return s.id }

// String implements fmt.Stringer.
func (s *Scope) String() string { return s.id.String() }

// Tx returns the underlying transaction, or nil for a detached scope.
func (s *Scope) Tx() *sql.Tx {
	if s == nil {
		return nil
	}
	return s.tx
}

// State returns the lifecycle state.
func (s *Scope) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the scope can still be committed or rolled back.
func (s *Scope) Active() bool { return s.State() == StateActive }

// RollbackOnly reports whether the scope has been doomed.
func (s *Scope) RollbackOnly() bool { return s.Cause() != nil }

// Cause returns the error that made the scope rollback-only, or nil.
func (s *Scope) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// MarkRollback implements signal.Scope. The scope can no longer commit;
// only the first cause is kept.
func (s *Scope) MarkRollback(cause error) {
	if s == nil {
		return
	}
	if cause == nil {
		cause = signals.ErrRollbackOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.cause != nil {
		return
	}
	s.cause = cause
	s.logger.Debug("scope marked rollback-only",
		slog.String("scope_id", s.id.String()),
		slog.String("cause", cause.Error()),
	)
}

// OnCommit registers fn to run after a successful commit, in registration
// order. Callbacks registered on a finished scope are dropped.
func (s *Scope) OnCommit(fn func(ctx context.Context)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.onCommit = append(s.onCommit, fn)
	}
}

// OnRollback registers fn to run when the scope rolls back. Rollback
// callbacks run in reverse registration order, like deferred calls.
func (s *Scope) OnRollback(fn func()) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.onRollback = append(s.onRollback, fn)
	}
}

// Commit makes the scope's writes durable and then runs OnCommit callbacks.
// A rollback-only scope is rolled back instead and Commit returns an error
// wrapping signals.ErrRollbackOnly and the original cause.
func (s *Scope) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return signals.ErrScopeDone
	}
	cause := s.cause
	s.mu.Unlock()

	if cause != nil {
		s.finishRollback(ctx, cause)
		return fmt.Errorf("%w: %w", signals.ErrRollbackOnly, cause)
	}

	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			err = fmt.Errorf("signals/uow: commit: %w", err)
			s.finishRollback(ctx, err)
			return err
		}
	}

	s.mu.Lock()
	s.state = StateCommitted
	callbacks := s.onCommit
	s.onCommit, s.onRollback = nil, nil
	s.mu.Unlock()

	s.logger.Debug("scope committed", slog.String("scope_id", s.id.String()))
	if s.observer != nil {
		s.observer.EmitScopeCommitted(ctx, s.id)
	}
	for _, fn := range callbacks {
		fn(ctx)
	}
	return nil
}

// Rollback discards the scope's writes and runs OnRollback callbacks.
// Rolling back a finished scope is a no-op.
func (s *Scope) Rollback() error {
	if !s.Active() {
		return nil
	}
	return s.finishRollback(s.ctx, s.Cause())
}

func (s *Scope) finishRollback(ctx context.Context, cause error) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return nil
	}
	s.state = StateRolledBack
	callbacks := s.onRollback
	s.onCommit, s.onRollback = nil, nil
	s.mu.Unlock()

	var err error
	if s.tx != nil {
		if rbErr := s.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = fmt.Errorf("signals/uow: rollback: %w", rbErr)
		}
	}
	for i := len(callbacks) - 1; i >= 0; i-- {
		callbacks[i]()
	}

	attrs := []any{slog.String("scope_id", s.id.String())}
	if cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	s.logger.Debug("scope rolled back", attrs...)
	if s.observer != nil {
		s.observer.EmitScopeRolledBack(ctx, s.id, cause)
	}
	return err
}

// Atomic runs fn inside a new scope. The scope commits when fn returns nil
// and rolls back when fn returns an error or panics; a panic is re-raised
// after the rollback.
func Atomic(ctx context.Context, db *sql.DB, fn func(ctx context.Context, s *Scope) error, opts ...Option) (err error) {
	s, err := Begin(ctx, db, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			s.MarkRollback(fmt.Errorf("signals/uow: panic: %v", r))
			_ = s.Rollback()
			panic(r)
		}
	}()

	if fnErr := fn(ctx, s); fnErr != nil {
		s.MarkRollback(fnErr)
		if rbErr := s.Rollback(); rbErr != nil {
			return errors.Join(fnErr, rbErr)
		}
		return fnErr
	}
	return s.Commit(ctx)
}
