// Package audit implements async event dispatching for sign-in, sign-up and
// profile-write operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay that drops or blocks when full.
//   - [Event]: one structured audit record.
//
// This package owns event buffering and sink delivery. It does not decide
// which events to emit; the facade does.
package audit
