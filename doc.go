// Package signals provides synchronous, in-process change notification for
// Go. Handlers are registered per (event kind, source kind) pair and run on
// the caller's goroutine, in registration order, before Raise returns.
//
// Signals is designed as a library. Build an engine, register handlers as
// ordinary Go values, and raise events from the code that changes state.
//
// # Quick Start
//
//	eng, err := engine.New(sqliteStore, engine.WithDB(db))
//
//	eng.Register(signal.PostSave, account.SourceUser,
//	    signal.HandlerFunc(func(ctx context.Context, e *signal.Event) error {
//	        log.Printf("saved %v (created=%t)", e.Payload, e.Meta.Created)
//	        return nil
//	    }))
//
//	err = eng.Atomic(ctx, func(ctx context.Context, s *uow.Scope) error {
//	    _, err := eng.Accounts().CreateUser(ctx, s, "testuser", "")
//	    return err
//	})
//
// # Units of Work
//
// Raise takes an optional scope. Handlers that write through a store bound
// to that scope join its transaction, and a failing handler marks the scope
// rollback-only so neither the caller's nor the handler's writes survive.
//
// All entity IDs are type-prefixed, K-sortable, UUIDv7-based identifiers.
package signals
