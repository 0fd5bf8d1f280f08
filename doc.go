// Package goAuthBridge is an authentication facade over a remote identity
// provider. It forwards sign-up, sign-in, sign-out and federated sign-in
// calls, and keeps a companion "users" profile table in step with the
// provider's accounts.
//
// # Architecture boundaries
//
// goAuthBridge is the public surface. It exposes [Facade], [Builder],
// [Config], [Reconciler] and the value types ([LocalUser], [Session],
// [ProfileFields]). The identity provider and the profile store are
// collaborators behind the [IdentityProvider] and [ProfileStore]
// interfaces; ready-made implementations live in identity/gotrue,
// profile/redisstore and profile/sqlstore.
//
// # Failure policy
//
// Read paths fail open: while a session exists, [Facade.GetCurrentUser]
// and [Reconciler.Reconcile] always return a usable user, falling back to
// the identity claims when the profile store is unreachable. Write paths
// report failure explicitly, as a [*ProviderError] or a false return.
// Nothing is retried.
//
// # What this package must NOT do
//
//   - Implement an identity provider, an OAuth flow or a data store.
//   - Write a profile row on a plain read.
//   - Import any sub-package that re-imports goAuthBridge.
package goAuthBridge
