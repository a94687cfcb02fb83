package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/signals/ext"
	"github.com/xraph/signals/id"
	"github.com/xraph/signals/signal"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.SignalRaised     = (*Extension)(nil)
	_ ext.SignalDispatched = (*Extension)(nil)
	_ ext.HandlerFailed    = (*Extension)(nil)
	_ ext.ScopeCommitted   = (*Extension)(nil)
	_ ext.ScopeRolledBack  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// NewLogRecorder returns a Recorder that writes each audit event as a
// structured log record.
func NewLogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		level := slog.LevelInfo
		switch evt.Severity {
		case SeverityWarning:
			level = slog.LevelWarn
		case SeverityCritical:
			level = slog.LevelError
		}
		logger.LogAttrs(ctx, level, "audit",
			slog.String("action", evt.Action),
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
			slog.Any("metadata", evt.Metadata),
		)
		return nil
	})
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges signals lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Signal lifecycle hooks ──────────────────────────

// OnSignalRaised implements ext.SignalRaised.
func (e *Extension) OnSignalRaised(ctx context.Context, ev *signal.Event) error {
	return e.record(ctx, ActionSignalRaised, SeverityInfo, OutcomeSuccess,
		ResourceEvent, ev.ID.String(), CategorySignal, nil,
		"kind", string(ev.Kind),
		"source", string(ev.Source),
		"created", ev.Meta.Created,
		"in_scope", ev.Scope != nil,
	)
}

// OnSignalDispatched implements ext.SignalDispatched.
func (e *Extension) OnSignalDispatched(ctx context.Context, ev *signal.Event, handlers int, elapsed time.Duration) error {
	return e.record(ctx, ActionSignalDispatched, SeverityInfo, OutcomeSuccess,
		ResourceEvent, ev.ID.String(), CategorySignal, nil,
		"kind", string(ev.Kind),
		"source", string(ev.Source),
		"handlers", handlers,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnHandlerFailed implements ext.HandlerFailed.
func (e *Extension) OnHandlerFailed(ctx context.Context, ev *signal.Event, f *signal.HandlerFailure) error {
	return e.record(ctx, ActionHandlerFailed, SeverityCritical, OutcomeFailure,
		ResourceEvent, ev.ID.String(), CategorySignal, f.Err,
		"kind", string(ev.Kind),
		"source", string(ev.Source),
		"handler", f.Handler,
		"position", f.Position,
		"in_scope", ev.Scope != nil,
	)
}

// ── Unit-of-work lifecycle hooks ────────────────────

// OnScopeCommitted implements ext.ScopeCommitted.
func (e *Extension) OnScopeCommitted(ctx context.Context, scopeID id.ScopeID) error {
	return e.record(ctx, ActionScopeCommitted, SeverityInfo, OutcomeSuccess,
		ResourceScope, scopeID.String(), CategoryScope, nil,
	)
}

// OnScopeRolledBack implements ext.ScopeRolledBack.
func (e *Extension) OnScopeRolledBack(ctx context.Context, scopeID id.ScopeID, cause error) error {
	return e.record(ctx, ActionScopeRolledBack, SeverityWarning, OutcomeFailure,
		ResourceScope, scopeID.String(), CategoryScope, cause,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
