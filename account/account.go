package account

import (
	"github.com/xraph/signals"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// Signal sources raised by this package.
const (
	SourceUser    signal.Source = "account.user"
	SourceProfile signal.Source = "account.profile"
)

// User is an account holder.
type User struct {
	signals.Entity

	ID       id.UserID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Active   bool      `json:"active"`
}

// Profile holds the per-user data created alongside a new user.
type Profile struct {
	signals.Entity

	ID     id.ProfileID `json:"id"`
	UserID id.UserID    `json:"user_id"`
	Bio    string       `json:"bio,omitempty"`
}
