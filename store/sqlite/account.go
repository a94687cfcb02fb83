package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	"github.com/xraph/signals/id"
)

const userColumns = `id, username, email, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*account.User, error) {
	var (
		u                account.User
		created, updated string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Active, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &u, nil
}

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, u *account.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO signals_users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Active, formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return signals.ErrUserAlreadyExists
		}
		return fmt.Errorf("signals/sqlite: create user: %w", err)
	}
	return nil
}

// UpdateUser persists changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *account.User) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE signals_users
		SET username = ?, email = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.Active, formatTime(u.UpdatedAt), u.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return signals.ErrUserAlreadyExists
		}
		return fmt.Errorf("signals/sqlite: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("signals/sqlite: update user rows: %w", err)
	}
	if n == 0 {
		return signals.ErrUserNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*account.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM signals_users WHERE id = ?`, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, signals.ErrUserNotFound
		}
		return nil, fmt.Errorf("signals/sqlite: get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*account.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM signals_users WHERE username = ?`, username))
	if err != nil {
		if isNoRows(err) {
			return nil, signals.ErrUserNotFound
		}
		return nil, fmt.Errorf("signals/sqlite: get user by username: %w", err)
	}
	return u, nil
}

// UserExists reports whether a user with the given username exists.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM signals_users WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("signals/sqlite: user exists: %w", err)
	}
	return exists, nil
}

// DeleteUser removes a user and its profile.
func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	err := s.inTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM signals_profiles WHERE user_id = ?`, userID); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `DELETE FROM signals_users WHERE id = ?`, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return signals.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, signals.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("signals/sqlite: delete user: %w", err)
	}
	return nil
}

// CreateProfile persists a new profile for an existing user.
func (s *Store) CreateProfile(ctx context.Context, p *account.Profile) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO signals_profiles (id, user_id, bio, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM signals_users WHERE id = ?)`,
		p.ID, p.UserID, p.Bio, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), p.UserID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return signals.ErrProfileAlreadyExists
		}
		return fmt.Errorf("signals/sqlite: create profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("signals/sqlite: create profile rows: %w", err)
	}
	if n == 0 {
		return signals.ErrUserNotFound
	}
	return nil
}

// GetProfileByUser retrieves the profile belonging to a user.
func (s *Store) GetProfileByUser(ctx context.Context, userID id.UserID) (*account.Profile, error) {
	var (
		p                account.Profile
		created, updated string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, user_id, bio, created_at, updated_at
		FROM signals_profiles WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &p.Bio, &created, &updated)
	if err != nil {
		if isNoRows(err) {
			return nil, signals.ErrProfileNotFound
		}
		return nil, fmt.Errorf("signals/sqlite: get profile: %w", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("signals/sqlite: get profile: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("signals/sqlite: get profile: %w", err)
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
			WHERE u.username = ?
		)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("signals/sqlite: profile exists: %w", err)
	}
	return exists, nil
}

// CountProfiles returns the number of stored profiles.
func (s *Store) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("signals/sqlite: count profiles: %w", err)
	}
	return n, nil
}
