package signal

import (
	"fmt"

	"github.com/xraph/signals"
)

// HandlerFailure reports that a registered handler did not complete.
// errors.Is(f, signals.ErrHandlerFailure) is always true and Unwrap yields
// the handler's own error.
type HandlerFailure struct {
	Kind     Kind
	Source   Source
	Handler  string
	Position int
	Err      error
}

func (f *HandlerFailure) Error() string {
	return fmt.Sprintf("signals: handler %s (#%d) for %s/%s: %v",
		f.Handler, f.Position, f.Kind, f.Source, f.Err)
}

// Unwrap returns the handler's error.
func (f *HandlerFailure) Unwrap() error { return f.Err }

// Is reports whether target is signals.ErrHandlerFailure.
func (f *HandlerFailure) Is(target error) bool {
	return target == signals.ErrHandlerFailure
}
