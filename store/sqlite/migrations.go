package sqlite

import (
	"context"

	"github.com/xraph/signals/internal/migrate"
)

// Migrations is the migration group for the signals sqlite store.
var Migrations = migrate.NewGroup("signals")

func init() {
	Migrations.MustRegister(
		// 001: Create users table.
		&migrate.Migration{
			Name:    "create_users_table",
			Version: "20240101120000",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.ExecContext(ctx, `
					CREATE TABLE IF NOT EXISTS signals_users (
						id         TEXT PRIMARY KEY,
						username   TEXT NOT NULL UNIQUE,
						email      TEXT NOT NULL DEFAULT '',
						active     INTEGER NOT NULL DEFAULT 1,
						created_at TEXT NOT NULL,
						updated_at TEXT NOT NULL
					)`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.ExecContext(ctx, `DROP TABLE IF EXISTS signals_users`)
				return err
			},
		},

		// 002: Create profiles table, one per user.
		&migrate.Migration{
			Name:    "create_profiles_table",
			Version: "20240101120001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.ExecContext(ctx, `
					CREATE TABLE IF NOT EXISTS signals_profiles (
						id         TEXT PRIMARY KEY,
						user_id    TEXT NOT NULL UNIQUE REFERENCES signals_users (id),
						bio        TEXT NOT NULL DEFAULT '',
						created_at TEXT NOT NULL,
						updated_at TEXT NOT NULL
					)`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.ExecContext(ctx, `DROP TABLE IF EXISTS signals_profiles`)
				return err
			},
		},
	)
}
