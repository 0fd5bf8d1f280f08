package prometheus

import (
	"context"
	"errors"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

var errRejected = errors.New("invalid login credentials")

type rejectingProvider struct{}

func (rejectingProvider) CreateAccount(context.Context, string, string, map[string]any) (*goAuthBridge.Identity, *goAuthBridge.Session, error) {
	return nil, nil, errRejected
}

func (rejectingProvider) Authenticate(context.Context, string, string) (*goAuthBridge.Session, error) {
	return nil, errRejected
}

func (rejectingProvider) FederatedSignInURL(context.Context, string, string) (string, error) {
	return "", errRejected
}

func (rejectingProvider) TerminateSession(context.Context) error { return nil }

func (rejectingProvider) CurrentSession(context.Context) (*goAuthBridge.Session, error) {
	return nil, nil
}

func (rejectingProvider) CurrentIdentity(context.Context) (*goAuthBridge.Identity, error) {
	return nil, nil
}

func (rejectingProvider) Subscribe(func(goAuthBridge.SessionEvent)) func() { return func() {} }

type emptyStore struct{}

func (emptyStore) GetByID(context.Context, string) (*goAuthBridge.ProfileRecord, error) {
	return nil, goAuthBridge.ErrProfileNotFound
}

func (emptyStore) Upsert(context.Context, string, goAuthBridge.ProfileFields) error { return nil }

func (emptyStore) UpdateByID(context.Context, string, goAuthBridge.ProfileFields) error {
	return goAuthBridge.ErrProfileNotFound
}
