package signal

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

// Handler reacts to a raised event. Returning an error aborts the dispatch
// and fails the enclosing unit of work.
type Handler interface {
	Handle(ctx context.Context, e *Event) error
}

// HandlerFunc is an adapter to use a plain function as a Handler.
type HandlerFunc func(ctx context.Context, e *Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, e *Event) error {
	return f(ctx, e)
}

type namedHandler struct {
	name string
	Handler
}

func (h namedHandler) Name() string { return h.name }

// Named attaches a human-readable name to h. The name shows up in logs,
// failures and audit records.
func Named(name string, h Handler) Handler {
	return namedHandler{name: name, Handler: h}
}

// HandlerName returns the name used for h in logs and failures: its Name()
// when it has one, the function name for a HandlerFunc, otherwise its type.
func HandlerName(h Handler) string {
	if n, ok := h.(interface{ Name() string }); ok {
		return n.Name()
	}
	if f, ok := h.(HandlerFunc); ok {
		if fn := runtime.FuncForPC(reflect.ValueOf(f).Pointer()); fn != nil {
			return fn.Name()
		}
	}
	return fmt.Sprintf("%T", h)
}
