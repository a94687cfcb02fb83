// Package memory implements store.Store in process memory.
//
// Writes made through a scoped view (see WithScope) are visible immediately
// and are undone by compensating writes when the scope rolls back. There is
// no isolation between concurrent scopes.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/signals"
	"github.com/xraph/signals/account"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
	"github.com/xraph/signals/store"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// rollbackRegistrar is the part of a unit of work the memory store needs.
// *uow.Scope implements it.
type rollbackRegistrar interface {
	OnRollback(fn func())
}

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu sync.RWMutex

	users     map[string]*account.User    // key: user ID
	usernames map[string]string           // username -> user ID
	profiles  map[string]*account.Profile // key: user ID
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		users:     make(map[string]*account.User),
		usernames: make(map[string]string),
		profiles:  make(map[string]*account.Profile),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle: Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// WithScope returns a view whose writes are undone when s rolls back.
// Scopes that cannot register rollback callbacks get the store itself.
func (m *Store) WithScope(s signal.Scope) account.Store {
	reg, ok := s.(rollbackRegistrar)
	if !ok || reg == nil {
		return m
	}
	return &scoped{Store: m, scope: reg}
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

// CreateUser persists a new user.
func (m *Store) CreateUser(_ context.Context, u *account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := u.ID.String()
	if _, exists := m.users[key]; exists {
		return signals.ErrUserAlreadyExists
	}
	if _, taken := m.usernames[u.Username]; taken {
		return signals.ErrUserAlreadyExists
	}
	cp := *u
	m.users[key] = &cp
	m.usernames[u.Username] = key
	return nil
}

// UpdateUser persists changes to an existing user.
func (m *Store) UpdateUser(_ context.Context, u *account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := u.ID.String()
	old, ok := m.users[key]
	if !ok {
		return signals.ErrUserNotFound
	}
	if owner, taken := m.usernames[u.Username]; taken && owner != key {
		return signals.ErrUserAlreadyExists
	}
	delete(m.usernames, old.Username)
	cp := *u
	m.users[key] = &cp
	m.usernames[u.Username] = key
	return nil
}

// GetUser retrieves a user by ID.
func (m *Store) GetUser(_ context.Context, userID id.UserID) (*account.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID.String()]
	if !ok {
		return nil, signals.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByUsername retrieves a user by username.
func (m *Store) GetUserByUsername(_ context.Context, username string) (*account.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.usernames[username]
	if !ok {
		return nil, signals.ErrUserNotFound
	}
	cp := *m.users[key]
	return &cp, nil
}

// UserExists reports whether a user with the given username exists.
func (m *Store) UserExists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.usernames[username]
	return ok, nil
}

// DeleteUser removes a user and its profile.
func (m *Store) DeleteUser(_ context.Context, userID id.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := userID.String()
	u, ok := m.users[key]
	if !ok {
		return signals.ErrUserNotFound
	}
	delete(m.users, key)
	delete(m.usernames, u.Username)
	delete(m.profiles, key)
	return nil
}

// ──────────────────────────────────────────────────
// Profiles
// ──────────────────────────────────────────────────

// CreateProfile persists a new profile.
func (m *Store) CreateProfile(_ context.Context, p *account.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := p.UserID.String()
	if _, ok := m.users[key]; !ok {
		return signals.ErrUserNotFound
	}
	if _, exists := m.profiles[key]; exists {
		return signals.ErrProfileAlreadyExists
	}
	cp := *p
	m.profiles[key] = &cp
	return nil
}

// GetProfileByUser retrieves the profile belonging to a user.
func (m *Store) GetProfileByUser(_ context.Context, userID id.UserID) (*account.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID.String()]
	if !ok {
		return nil, signals.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// ProfileExists reports whether the user with the given username has a
// profile.
func (m *Store) ProfileExists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.usernames[username]
	if !ok {
		return false, nil
	}
	_, ok = m.profiles[key]
	return ok, nil
}

// CountProfiles returns the number of stored profiles.
func (m *Store) CountProfiles(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.profiles)), nil
}

// ──────────────────────────────────────────────────
// Scoped view
// ──────────────────────────────────────────────────

// scoped overrides the write methods to register compensations.
type scoped struct {
	*Store
	scope rollbackRegistrar
}

func (s *scoped) WithScope(sc signal.Scope) account.Store { return s.Store.WithScope(sc) }

func (s *scoped) CreateUser(ctx context.Context, u *account.User) error {
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return err
	}
	userID := u.ID
	s.scope.OnRollback(func() { s.forget(userID) })
	return nil
}

func (s *scoped) UpdateUser(ctx context.Context, u *account.User) error {
	prev, err := s.Store.GetUser(ctx, u.ID)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.scope.OnRollback(func() { s.restore(prev, nil) })
	return nil
}

func (s *scoped) DeleteUser(ctx context.Context, userID id.UserID) error {
	prev, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	prof, err := s.Store.GetProfileByUser(ctx, userID)
	if err != nil {
		prof = nil
	}
	if err := s.Store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.scope.OnRollback(func() { s.restore(prev, prof) })
	return nil
}

func (s *scoped) CreateProfile(ctx context.Context, p *account.Profile) error {
	if err := s.Store.CreateProfile(ctx, p); err != nil {
		return err
	}
	userID := p.UserID
	s.scope.OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.profiles, userID.String())
	})
	return nil
}

// forget removes a user without touching its profile; profile rollbacks
// registered later run first.
func (s *scoped) forget(userID id.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID.String()
	if u, ok := s.users[key]; ok {
		delete(s.usernames, u.Username)
		delete(s.users, key)
	}
}

func (s *scoped) restore(u *account.User, p *account.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := u.ID.String()
	if cur, ok := s.users[key]; ok {
		delete(s.usernames, cur.Username)
	}
	s.users[key] = u
	s.usernames[u.Username] = key
	if p != nil {
		s.profiles[key] = p
	}
}
