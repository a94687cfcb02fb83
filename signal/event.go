package signal

import (
	"time"

	"github.com/xraph/signals/id"
)

// Kind identifies what happened to the source.
type Kind string

// Model lifecycle kinds. Any other string is a valid custom kind.
const (
	PreSave    Kind = "pre_save"
	PostSave   Kind = "post_save"
	PreDelete  Kind = "pre_delete"
	PostDelete Kind = "post_delete"
)

// Source identifies the kind of object an event is about, e.g. "account.user".
type Source string

// Key is the (kind, source) pair handlers are registered under.
type Key struct {
	Kind   Kind
	Source Source
}

func (k Key) String() string { return string(k.Kind) + "/" + string(k.Source) }

// Metadata carries the flags that accompany an event.
type Metadata struct {
	// Created is true when the save inserted a new record.
	Created bool `json:"created"`

	// Raw is true when the payload was loaded as-is, e.g. from a fixture,
	// and handlers should not query related state.
	Raw bool `json:"raw,omitempty"`

	// UpdateFields names the fields written by a partial update.
	UpdateFields []string `json:"update_fields,omitempty"`

	// Values holds any additional caller-defined metadata.
	Values map[string]any `json:"values,omitempty"`
}

// Event is a single raised notification.
type Event struct {
	ID       id.EventID `json:"id"`
	Kind     Kind       `json:"kind"`
	Source   Source     `json:"source"`
	Payload  any        `json:"payload,omitempty"`
	Meta     Metadata   `json:"meta"`
	RaisedAt time.Time  `json:"raised_at"`

	// Scope is the unit of work the event was raised in, or nil.
	Scope Scope `json:"-"`
}

// Key returns the (kind, source) pair of the event.
func (e *Event) Key() Key { return Key{Kind: e.Kind, Source: e.Source} }

// Scope is the part of a unit of work the notifier needs: the ability to
// doom it. Stores inspect the concrete scope for transaction access.
type Scope interface {
	// MarkRollback makes the scope rollback-only. The first cause wins.
	MarkRollback(cause error)
}
