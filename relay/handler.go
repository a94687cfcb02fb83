package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xraph/signals/signal"
)

var _ signal.Handler = (*Handler)(nil)

// commitScope is the part of a unit of work the relay needs.
// *uow.Scope implements it.
type commitScope interface {
	OnCommit(fn func(ctx context.Context))
}

// Handler is a signal handler that publishes each event it receives.
type Handler struct {
	pub      Publisher
	logger   *slog.Logger
	payloads map[signal.Source]PayloadFunc
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for failed deferred publications.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithPayloadFunc registers a custom payload builder for events from
// source. Without one the event payload is JSON-encoded as is.
func WithPayloadFunc(source signal.Source, fn PayloadFunc) Option {
	return func(h *Handler) {
		if h.payloads == nil {
			h.payloads = make(map[signal.Source]PayloadFunc)
		}
		h.payloads[source] = fn
	}
}

// NewHandler creates a relay handler publishing through pub.
func NewHandler(pub Publisher, opts ...Option) *Handler {
	h := &Handler{pub: pub, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements the optional handler naming interface.
func (h *Handler) Name() string { return "relay.publish" }

// Handle implements signal.Handler. Encoding errors fail the handler, and
// so the scope. Publication errors fail it only when publishing
// immediately; after commit they are logged.
func (h *Handler) Handle(ctx context.Context, e *signal.Event) error {
	msg, err := h.message(e)
	if err != nil {
		return err
	}

	if cs, ok := e.Scope.(commitScope); ok && cs != nil {
		cs.OnCommit(func(ctx context.Context) {
			if err := h.pub.Publish(ctx, msg); err != nil {
				h.logger.Error("relay publish after commit failed",
					slog.String("event_id", msg.EventID.String()),
					slog.String("signal", e.Key().String()),
					slog.String("error", err.Error()),
				)
			}
		})
		return nil
	}
	return h.pub.Publish(ctx, msg)
}

func (h *Handler) message(e *signal.Event) (*Message, error) {
	payload := e.Payload
	if fn, ok := h.payloads[e.Source]; ok {
		custom, err := fn(payload)
		if err != nil {
			return nil, fmt.Errorf("signals/relay: build payload for %s: %w", e.Key(), err)
		}
		payload = custom
	}

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("signals/relay: encode payload for %s: %w", e.Key(), err)
		}
		raw = b
	}

	return &Message{
		EventID:  e.ID,
		Kind:     e.Kind,
		Source:   e.Source,
		Created:  e.Meta.Created,
		RaisedAt: e.RaisedAt,
		Payload:  raw,
	}, nil
}
