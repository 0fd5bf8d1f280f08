// Package redisstore is a Redis-backed goAuthBridge.ProfileStore.
//
// Each profile row is one hash at <prefix>:users:<id>. Field names are the
// profile column names and values are their string forms: timestamps in
// RFC 3339 (UTC) and booleans as "true"/"false". Fields absent from the
// hash are absent from the row.
//
// # What this package must NOT do
//
//   - Create a row from UpdateByID.
//   - Delete fields that a write did not name.
package redisstore
