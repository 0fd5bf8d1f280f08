package goAuthBridge

import "errors"

var (
	// ErrProfileNotFound is returned by a ProfileStore when no row has the requested id.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidProfileID is returned for an empty profile id.
	ErrInvalidProfileID = errors.New("invalid profile id")
	// ErrInvalidProfileColumn is returned when a stored column cannot be decoded.
	ErrInvalidProfileColumn = errors.New("invalid profile column")
	// ErrProviderRequired is returned by Build when no identity provider was supplied.
	ErrProviderRequired = errors.New("identity provider required")
	// ErrProfileStoreRequired is returned by Build when no profile store was supplied.
	ErrProfileStoreRequired = errors.New("profile store required")
	// ErrFacadeNotReady is returned when a method is called on a nil or unbuilt Facade.
	ErrFacadeNotReady = errors.New("facade not initialized")
	// ErrSignUpNoUser is returned when the provider accepted a sign-up but returned no user.
	ErrSignUpNoUser = errors.New("sign up returned no user")
	// ErrFederatedUnsupported is returned when the provider cannot complete a federated redirect.
	ErrFederatedUnsupported = errors.New("federated sign-in completion not supported by provider")
)

// ProviderError reports a rejected identity-provider call. Error returns the
// provider's human-readable message so it can be surfaced to a user as is.
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError reports a failed profile-store call.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	return "profile store " + e.Op + " " + e.ID + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func providerError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Op: op, Message: err.Error(), Err: err}
}
