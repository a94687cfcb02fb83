package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionSignalRaised     = "signal.raised"
	ActionSignalDispatched = "signal.dispatched"
	ActionHandlerFailed    = "handler.failed"
	ActionScopeCommitted   = "scope.committed"
	ActionScopeRolledBack  = "scope.rolled_back"
)

// Audit event categories group related actions.
const (
	CategorySignal = "signals.signal"
	CategoryScope  = "signals.scope"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceEvent = "event"
	ResourceScope = "scope"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionSignalRaised,
		ActionSignalDispatched,
		ActionHandlerFailed,
		ActionScopeCommitted,
		ActionScopeRolledBack,
	}
}
