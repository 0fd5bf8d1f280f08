package goAuthBridge

import "context"

// IdentityProvider is the remote identity service the facade forwards to.
// Fallible calls return an error whose message is safe to show to a user;
// the facade wraps it in a [*ProviderError].
type IdentityProvider interface {
	// CreateAccount registers a new account. The returned session is nil
	// when the provider requires confirmation before signing the user in.
	CreateAccount(ctx context.Context, email, password string, metadata map[string]any) (*Identity, *Session, error)
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	// FederatedSignInURL returns the consent URL the host must redirect to.
	FederatedSignInURL(ctx context.Context, provider, redirectTo string) (string, error)
	TerminateSession(ctx context.Context) error
	// CurrentSession returns nil, nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	CurrentIdentity(ctx context.Context) (*Identity, error)
	// Subscribe registers handler for every future state transition. The
	// returned func deregisters it and must be safe to call more than once.
	Subscribe(handler func(SessionEvent)) (unsubscribe func())
}

// CodeExchanger is implemented by providers that complete a federated
// redirect by trading the returned code for a session.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*Session, error)
}

// ProfileStore is the keyed record store holding the "users" table.
//
// GetByID returns [ErrProfileNotFound] when no row exists. Upsert inserts
// or merges on id, leaving columns absent from fields untouched. UpdateByID
// writes only the present fields and returns [ErrProfileNotFound] when no
// row matched.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*ProfileRecord, error)
	Upsert(ctx context.Context, id string, fields ProfileFields) error
	UpdateByID(ctx context.Context, id string, fields ProfileFields) error
}
