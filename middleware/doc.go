// Package middleware exposes net/http guards built on goAuthBridge.Facade.
//
// # Guards
//
//   - [RequireUser] admits the facade's signed-in, active user.
//   - [RequireAdmin] additionally requires the stored ADMIN role.
//   - [RequireBearer] resolves a bearer access token to a stored profile,
//     for servers handling many users.
//
// Each guard injects the resolved [goAuthBridge.LocalUser] into the request
// context; read it back with [UserFromContext].
//
// # What this package must NOT do
//
//   - Parse JWTs itself (delegates to a [TokenVerifier]).
//   - Write profile rows.
package middleware
