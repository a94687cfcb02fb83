// Package sqlite implements store.Store on SQLite through database/sql and
// the pure-Go modernc.org/sqlite driver. Suitable for embedded deployments,
// CLI tools and tests.
//
// The caller owns a *sql.DB passed to New; Open creates and owns one:
//
//	import "github.com/xraph/signals/store/sqlite"
//
//	s, _ := sqlite.Open("file:signals.db?_pragma=busy_timeout(5000)")
//	defer s.Close()
//	s.Migrate(ctx)
//
// WithScope binds every statement to the *sql.Tx of a unit of work, so
// writes made by signal handlers commit or roll back with the caller's.
package sqlite
