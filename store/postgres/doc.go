// Package postgres implements store.Store on PostgreSQL using pgx/v5
// through its database/sql adapter, so units of work can bind the store to
// a *sql.Tx. Unique violations (23505) map to the already-exists errors.
package postgres
