// Package store defines the aggregate persistence interface. The account
// subsystem defines its own store interface; the composite Store adds the
// lifecycle operations every backend shares. Backends: Memory, SQLite and
// PostgreSQL.
package store

import (
	"context"

	"github.com/xraph/signals/account"
)

// Store is the aggregate persistence interface.
type Store interface {
	account.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
