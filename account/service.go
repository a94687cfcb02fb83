package account

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xraph/signals"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// Service creates, saves and deletes users, raising model signals around
// each write. Every method takes an optional unit of work; pass nil to
// write outside any scope.
type Service struct {
	store    Store
	notifier *signal.Notifier
	logger   *slog.Logger
}

// NewService creates an account service.
func NewService(store Store, notifier *signal.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// CreateUser inserts a new user and raises pre_save and post_save with
// Created set. A failing handler aborts the call and its error is returned
// unchanged.
func (s *Service) CreateUser(ctx context.Context, scope signal.Scope, username, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: %q", signals.ErrInvalidUsername, username)
	}

	u := &User{
		Entity:   signals.NewEntity(),
		ID:       id.NewUserID(),
		Username: username,
		Email:    strings.TrimSpace(email),
		Active:   true,
	}
	meta := signal.Metadata{Created: true}
	opts := raiseOpts(scope)

	if err := s.notifier.Raise(ctx, signal.PreSave, SourceUser, u, meta, opts...); err != nil {
		return nil, err
	}
	if err := s.bind(scope).CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Debug("user created",
		slog.String("user_id", u.ID.String()),
		slog.String("username", u.Username),
	)
	if err := s.notifier.Raise(ctx, signal.PostSave, SourceUser, u, meta, opts...); err != nil {
		return nil, err
	}
	return u, nil
}

// SaveUser persists changes to an existing user and raises pre_save and
// post_save with Created unset. Fields names the columns that changed and
// is passed through as UpdateFields.
func (s *Service) SaveUser(ctx context.Context, scope signal.Scope, u *User, fields ...string) error {
	meta := signal.Metadata{UpdateFields: fields}
	opts := raiseOpts(scope)

	if err := s.notifier.Raise(ctx, signal.PreSave, SourceUser, u, meta, opts...); err != nil {
		return err
	}
	u.Touch()
	if err := s.bind(scope).UpdateUser(ctx, u); err != nil {
		return err
	}
	return s.notifier.Raise(ctx, signal.PostSave, SourceUser, u, meta, opts...)
}

// DeleteUser removes a user with its profile, raising pre_delete and
// post_delete.
func (s *Service) DeleteUser(ctx context.Context, scope signal.Scope, userID id.UserID) error {
	st := s.bind(scope)
	u, err := st.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	opts := raiseOpts(scope)

	if err := s.notifier.Raise(ctx, signal.PreDelete, SourceUser, u, signal.Metadata{}, opts...); err != nil {
		return err
	}
	if err := st.DeleteUser(ctx, userID); err != nil {
		return err
	}
	return s.notifier.Raise(ctx, signal.PostDelete, SourceUser, u, signal.Metadata{}, opts...)
}

// UserExists reports whether username exists, as seen from scope.
func (s *Service) UserExists(ctx context.Context, scope signal.Scope, username string) (bool, error) {
	return s.bind(scope).UserExists(ctx, username)
}

// ProfileExists reports whether username has a profile, as seen from scope.
func (s *Service) ProfileExists(ctx context.Context, scope signal.Scope, username string) (bool, error) {
	return s.bind(scope).ProfileExists(ctx, username)
}

func (s *Service) bind(scope signal.Scope) Store {
	if scope == nil {
		return s.store
	}
	return s.store.WithScope(scope)
}

func raiseOpts(scope signal.Scope) []signal.RaiseOption {
	if scope == nil {
		return nil
	}
	return []signal.RaiseOption{signal.InScope(scope)}
}
