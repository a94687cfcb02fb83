package account

import (
	"context"

	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// Store defines the persistence contract for users and profiles.
type Store interface {
	// CreateUser persists a new user. Returns signals.ErrUserAlreadyExists
	// when the ID or username is taken.
	CreateUser(ctx context.Context, u *User) error

	// UpdateUser persists changes to an existing user.
	UpdateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID id.UserID) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UserExists reports whether a user with the given username exists.
	UserExists(ctx context.Context, username string) (bool, error)

	// DeleteUser removes a user and its profile.
	DeleteUser(ctx context.Context, userID id.UserID) error

	// CreateProfile persists a new profile. Returns
	// signals.ErrProfileAlreadyExists when the user already has one.
	CreateProfile(ctx context.Context, p *Profile) error

	// GetProfileByUser retrieves the profile belonging to a user.
	GetProfileByUser(ctx context.Context, userID id.UserID) (*Profile, error)

	// ProfileExists reports whether the user with the given username has a
	// profile.
	ProfileExists(ctx context.Context, username string) (bool, error)

	// CountProfiles returns the number of stored profiles.
	CountProfiles(ctx context.Context) (int64, error)

	// WithScope returns a view of the store whose reads and writes join the
	// given unit of work. A nil scope returns the store itself.
	WithScope(s signal.Scope) Store
}
