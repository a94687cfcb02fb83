// Package signal implements the event notifier: a registry mapping
// (event kind, source kind) pairs to ordered handler lists, and a Notifier
// that invokes those handlers synchronously when an event is raised.
//
// # Dispatch
//
// Raise runs every matching handler on the calling goroutine, in
// registration order, and returns only after the last one finishes. A
// handler that sleeps or blocks on I/O stalls the caller for that long.
// There is no cancellation and no timeout.
//
// # Failures
//
// The first handler error stops dispatch and surfaces to the caller as a
// [*HandlerFailure]. When the event was raised inside a unit of work (see
// [InScope]) the scope is marked rollback-only before Raise returns, so the
// caller cannot commit the writes that led to the failure.
//
// # Lifecycle
//
// A [Registry] is populated at startup and read during dispatch. There is no
// way to remove a registration.
package signal
