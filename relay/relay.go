package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// Message is the wire form of a relayed signal.
type Message struct {
	EventID  id.EventID      `json:"event_id"`
	Kind     signal.Kind     `json:"kind"`
	Source   signal.Source   `json:"source"`
	Created  bool            `json:"created"`
	RaisedAt time.Time       `json:"raised_at"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Publisher delivers messages to an external system.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// PublisherFunc is an adapter to use a plain function as a Publisher.
type PublisherFunc func(ctx context.Context, msg *Message) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// PayloadFunc builds the payload of a message from an event payload. The
// returned value is JSON-encoded.
type PayloadFunc func(payload any) (any, error)
