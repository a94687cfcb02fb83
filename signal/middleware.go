package signal

import "context"

// Call describes one handler invocation within a dispatch.
type Call struct {
	Event    *Event
	Handler  string
	Position int
}

// Next continues the invocation chain and eventually runs the handler.
type Next func(ctx context.Context) error

// Middleware wraps every handler invocation. It must call next unless it
// short-circuits with an error.
type Middleware func(ctx context.Context, c *Call, next Next) error
