package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	"github.com/xraph/signals/id"
)

const userColumns = `id, username, email, active, created_at, updated_at`

func scanUser(row *sql.Row) (*account.User, error) {
	var u account.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, u *account.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO signals_users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return signals.ErrUserAlreadyExists
		}
		return fmt.Errorf("signals/postgres: create user: %w", err)
	}
	return nil
}

// UpdateUser persists changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *account.User) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE signals_users
		SET username = $1, email = $2, active = $3, updated_at = $4
		WHERE id = $5`,
		u.Username, u.Email, u.Active, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return signals.ErrUserAlreadyExists
		}
		return fmt.Errorf("signals/postgres: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("signals/postgres: update user rows: %w", err)
	}
	if n == 0 {
		return signals.ErrUserNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*account.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM signals_users WHERE id = $1`, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, signals.ErrUserNotFound
		}
		return nil, fmt.Errorf("signals/postgres: get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*account.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM signals_users WHERE username = $1`, username))
	if err != nil {
		if isNoRows(err) {
			return nil, signals.ErrUserNotFound
		}
		return nil, fmt.Errorf("signals/postgres: get user by username: %w", err)
	}
	return u, nil
}

// UserExists reports whether a user with the given username exists.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM signals_users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("signals/postgres: user exists: %w", err)
	}
	return exists, nil
}

// DeleteUser removes a user; the profile goes with it by ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM signals_users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("signals/postgres: delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("signals/postgres: delete user rows: %w", err)
	}
	if n == 0 {
		return signals.ErrUserNotFound
	}
	return nil
}

// CreateProfile persists a new profile for an existing user.
func (s *Store) CreateProfile(ctx context.Context, p *account.Profile) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO signals_profiles (id, user_id, bio, created_at, updated_at)
		SELECT $1::text, $2::text, $3::text, $4::timestamptz, $5::timestamptz
		WHERE EXISTS (SELECT 1 FROM signals_users WHERE id = $2)`,
		p.ID, p.UserID, p.Bio, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return signals.ErrProfileAlreadyExists
		}
		if isMissingParent(err) {
			return signals.ErrUserNotFound
		}
		return fmt.Errorf("signals/postgres: create profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("signals/postgres: create profile rows: %w", err)
	}
	if n == 0 {
		return signals.ErrUserNotFound
	}
	return nil
}

// GetProfileByUser retrieves the profile belonging to a user.
func (s *Store) GetProfileByUser(ctx context.Context, userID id.UserID) (*account.Profile, error) {
	var p account.Profile
	err := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, bio, created_at, updated_at
		FROM signals_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, signals.ErrProfileNotFound
		}
		return nil, fmt.Errorf("signals/postgres: get profile: %w", err)
	}
	return &p, nil
}

// ProfileExists reports whether the user with the given username has a
// profile.
func (s *Store) ProfileExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM signals_profiles p
			JOIN signals_users u ON u.id = p.user_id
			WHERE u.username = $1
		)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("signals/postgres: profile exists: %w", err)
	}
	return exists, nil
}

// CountProfiles returns the number of stored profiles.
func (s *Store) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("signals/postgres: count profiles: %w", err)
	}
	return n, nil
}
