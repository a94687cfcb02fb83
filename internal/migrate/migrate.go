// Package migrate runs ordered, versioned schema migrations over
// database/sql. Applied versions are recorded in a bookkeeping table so
// Migrate is safe to call on every startup.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Executor is the subset of *sql.DB and *sql.Tx a migration needs.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Migration is a single schema change.
type Migration struct {
	Name    string
	Version string
	Up      func(ctx context.Context, exec Executor) error
	Down    func(ctx context.Context, exec Executor) error
}

// Group is an ordered set of migrations sharing a bookkeeping table.
type Group struct {
	name       string
	migrations []*Migration
}

// NewGroup creates an empty migration group. Applied versions are
// recorded in the table <name>_migrations.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// MustRegister adds migrations to the group. It panics on a duplicate or
// empty version.
func (g *Group) MustRegister(ms ...*Migration) {
	for _, m := range ms {
		if m.Version == "" || m.Up == nil {
			panic(fmt.Sprintf("migrate: migration %q needs a version and an Up func", m.Name))
		}
		for _, have := range g.migrations {
			if have.Version == m.Version {
				panic(fmt.Sprintf("migrate: duplicate version %s in group %s", m.Version, g.name))
			}
		}
		g.migrations = append(g.migrations, m)
	}
	sort.Slice(g.migrations, func(i, j int) bool {
		return g.migrations[i].Version < g.migrations[j].Version
	})
}

// Migrations returns the registered migrations in version order.
func (g *Group) Migrations() []*Migration {
	out := make([]*Migration, len(g.migrations))
	copy(out, g.migrations)
	return out
}

// Placeholder renders the n-th (1-based) bind parameter for a dialect.
type Placeholder func(n int) string

// Question renders "?" placeholders (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders (PostgreSQL).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Orchestrator applies a group's pending migrations against a database.
type Orchestrator struct {
	db    *sql.DB
	group *Group
	bind  Placeholder
}

// NewOrchestrator creates an orchestrator for group using the given
// placeholder style.
func NewOrchestrator(db *sql.DB, group *Group, bind Placeholder) *Orchestrator {
	return &Orchestrator{db: db, group: group, bind: bind}
}

// Migrate applies every migration not yet recorded, each in its own
// transaction, and returns the versions it applied.
func (o *Orchestrator) Migrate(ctx context.Context) ([]string, error) {
	table := o.group.name + "_migrations"
	if _, err := o.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		version    TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("migrate: create %s: %w", table, err)
	}

	applied, err := o.applied(ctx, table)
	if err != nil {
		return nil, err
	}

	insert := fmt.Sprintf(`INSERT INTO %s (version, name, applied_at) VALUES (%s, %s, %s)`,
		table, o.bind(1), o.bind(2), o.bind(3))

	var done []string
	for _, m := range o.group.migrations {
		if applied[m.Version] {
			continue
		}
		tx, err := o.db.BeginTx(ctx, nil)
		if err != nil {
			return done, fmt.Errorf("migrate: begin %s: %w", m.Version, err)
		}
		if err := m.Up(ctx, tx); err != nil {
			_ = tx.Rollback()
			return done, fmt.Errorf("migrate: %s (%s): %w", m.Name, m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, insert, m.Version, m.Name, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			_ = tx.Rollback()
			return done, fmt.Errorf("migrate: record %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return done, fmt.Errorf("migrate: commit %s: %w", m.Version, err)
		}
		done = append(done, m.Version)
	}
	return done, nil
}

func (o *Orchestrator) applied(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := o.db.QueryContext(ctx, `SELECT version FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("migrate: read %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("migrate: scan version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}
