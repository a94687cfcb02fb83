package signals

import "errors"

var (
	// Dispatch errors.
	ErrHandlerFailure   = errors.New("signals: handler failure")
	ErrMaxDepthExceeded = errors.New("signals: max dispatch depth exceeded")

	// Unit-of-work errors.
	ErrRollbackOnly = errors.New("signals: scope marked for rollback")
	ErrScopeDone    = errors.New("signals: scope already finished")

	// Store errors.
	ErrNoStore         = errors.New("signals: no store configured")
	ErrNoDatabase      = errors.New("signals: no database configured")
	ErrMigrationFailed = errors.New("signals: migration failed")

	// Not found errors.
	ErrUserNotFound    = errors.New("signals: user not found")
	ErrProfileNotFound = errors.New("signals: profile not found")

	// Conflict errors.
	ErrUserAlreadyExists    = errors.New("signals: user already exists")
	ErrProfileAlreadyExists = errors.New("signals: profile already exists")

	// Validation errors.
	ErrInvalidUsername = errors.New("signals: invalid username")
	ErrInvalidConfig   = errors.New("signals: invalid config")
)
