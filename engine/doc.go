// Package engine wires the signals subsystems together and provides the
// application-level API for registering handlers and opening units of work.
//
// The engine package exists to break an import cycle: the signal package
// defines events and handlers, and the stores, extensions and account
// service all import it. Engine sits above those packages and below the
// application layer.
//
// # Building an Engine
//
//	st, err := sqlite.Open("file:app.db")
//	if err := st.Migrate(ctx); err != nil { ... }
//
//	eng, err := engine.New(st,
//	    engine.WithLogger(logger),
//	    engine.WithExtension(audithook.New(audithook.NewLogRecorder(logger))),
//	    engine.WithSlowThreshold(time.Second),
//	)
//
// # Registering Handlers
//
//	eng.Register(signal.PostSave, account.SourceUser, relay.NewHandler(pub))
//
// Handlers run in registration order. The profile handler is registered
// first unless [WithoutProfiles] is given.
//
// # Units of Work
//
//	err := eng.Atomic(ctx, func(ctx context.Context, s *uow.Scope) error {
//	    _, err := eng.Accounts().CreateUser(ctx, s, "testuser", "")
//	    return err
//	})
//
// # Options
//
//   - [WithLogger] sets the shared logger
//   - [WithExtension] registers a lifecycle extension
//   - [WithMiddleware] adds a middleware to the handler chain
//   - [WithHandler] registers a handler at build time
//   - [WithTracerProvider] and [WithMeterProvider] set OpenTelemetry providers
//   - [WithMaxDepth] bounds nested raises
//   - [WithSlowThreshold] sets the slow handler warning
//   - [WithDB] and [WithTxOptions] configure scope transactions
package engine
