package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register the "sqlite" driver

	"github.com/xraph/signals/account"
	"github.com/xraph/signals/internal/migrate"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/store"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txScope is the part of a unit of work the SQL stores need.
// *uow.Scope implements it.
type txScope interface {
	Tx() *sql.Tx
}

// Store is a database/sql implementation of store.Store for SQLite.
type Store struct {
	db     *sql.DB
	q      querier
	tx     *sql.Tx
	owned  bool
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store over db. The caller owns the db lifecycle; the Store
// will not close it on Close().
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		q:      db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a SQLite database and returns a store that owns it.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("signals/sqlite: open: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// Every pooled connection would otherwise see its own database.
		db.SetMaxOpenConns(1)
	}
	s := New(db, opts...)
	s.owned = true
	return s, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate runs the schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	applied, err := migrate.NewOrchestrator(s.db, Migrations, migrate.Question).Migrate(ctx)
	if err != nil {
		return fmt.Errorf("signals/sqlite: migration failed: %w", err)
	}
	if len(applied) > 0 {
		s.logger.Debug("sqlite migrations applied", slog.Int("count", len(applied)))
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if !s.owned || s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// WithScope returns a view whose statements run on the scope's
// transaction. Scopes without a transaction get the store itself.
func (s *Store) WithScope(sc signal.Scope) account.Store {
	ts, ok := sc.(txScope)
	if !ok || ts == nil {
		return s
	}
	tx := ts.Tx()
	if tx == nil {
		return s
	}
	return &Store{db: s.db, q: tx, tx: tx, logger: s.logger}
}

// inTx runs fn on the bound transaction, or on a new one committed when fn
// succeeds.
func (s *Store) inTx(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isDuplicateKey checks if a SQLite error is a unique constraint violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
