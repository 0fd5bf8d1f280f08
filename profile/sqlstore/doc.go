// Package sqlstore is a database/sql goAuthBridge.ProfileStore for
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
//
// Rows live in a single table (default "users") keyed by the identity
// provider's user id. Timestamps are stored as RFC 3339 text in UTC so the
// same schema works on both engines. NULL columns are absent fields.
package sqlstore
