// Package relay forwards raised signals to an external stream once their
// unit of work has committed.
//
// Register a [Handler] for the keys to forward. When the event was raised
// inside a scope that supports commit callbacks, publication waits for the
// commit and is dropped on rollback; otherwise the message is published
// immediately.
//
//	pub := relay.NewRedisPublisher(client, "signals:events")
//	notifier.Register(signal.PostSave, account.SourceUser, relay.NewHandler(pub))
package relay
