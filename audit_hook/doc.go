// Package audithook is a signals extension that bridges lifecycle events
// to an audit trail backend.
//
// Every signal and unit-of-work lifecycle hook emits a structured audit
// event through the [Recorder] interface. The extension assigns severity
// levels (info for normal operations, warning for rollbacks, critical for
// handler failures) and metadata (signal key, handler, elapsed time,
// errors).
//
// # Logging recorder
//
//	audithook.New(audithook.NewLogRecorder(logger))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionHandlerFailed,
//	        audithook.ActionScopeRolledBack,
//	    ),
//	)
package audithook
