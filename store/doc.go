// Package store defines the aggregate persistence interface.
//
// The composite interface:
//
//	type Store interface {
//	    account.Store
//
//	    Migrate(ctx context.Context) error
//	    Ping(ctx context.Context) error
//	    Close() error
//	}
//
// # Available Backends
//
//   - store/memory: in-memory store for development and testing
//   - store/sqlite: SQLite backend (modernc.org/sqlite, no cgo)
//   - store/postgres: PostgreSQL backend using pgx/v5 through database/sql
//
// # Units of Work
//
// account.Store.WithScope binds a store to a *uow.Scope. The SQL backends
// route every statement through the scope's *sql.Tx; the memory backend
// registers compensating writes that run when the scope rolls back.
//
// # Migrations
//
// Call Migrate once at startup to create or update the schema:
//
//	if err := s.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package store
