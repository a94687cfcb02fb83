package postgres

import (
	"context"

	"github.com/xraph/signals/internal/migrate"
)

// Migrations is the migration group for the signals postgres store.
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
						active     BOOLEAN NOT NULL DEFAULT TRUE,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					)`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.ExecContext(ctx, `DROP TABLE IF EXISTS signals_users CASCADE`)
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
						user_id    TEXT NOT NULL UNIQUE REFERENCES signals_users (id) ON DELETE CASCADE,
						bio        TEXT NOT NULL DEFAULT '',
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					)`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.ExecContext(ctx, `DROP TABLE IF EXISTS signals_profiles CASCADE`)
				return err
			},
		},
	)
}
