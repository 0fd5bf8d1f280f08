// Package gotrue is a goAuthBridge.IdentityProvider backed by a GoTrue
// (Supabase Auth) server.
//
// The client owns at most one session at a time, persisted through a
// [Storage] (in-process memory or Redis). It refreshes the access token
// when the stored one is about to expire, finishes PKCE redirects and fans
// state transitions out to subscribers.
//
// # Architecture boundaries
//
// This package speaks HTTP to GoTrue and nothing else. Profile rows and
// user reconciliation belong to goAuthBridge.
//
// # What this package must NOT do
//
//   - Log or persist passwords.
//   - Retry a rejected request.
package gotrue
