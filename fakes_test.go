package goAuthBridge

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type memoryProfileStore struct {
	mu      sync.Mutex
	rows    map[string]ProfileFields
	getErr  error
	putErr  error
	panicOn string

	upserts []upsertCall
	updates []upsertCall
	gets    int
}

type upsertCall struct {
	id     string
	fields ProfileFields
}

func newMemoryProfileStore() *memoryProfileStore {
	return &memoryProfileStore{rows: map[string]ProfileFields{}}
}

func (s *memoryProfileStore) GetByID(_ context.Context, id string) (*ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.panicOn == "get" {
		panic("store exploded")
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &ProfileRecord{ID: id, ProfileFields: row}, nil
}

func (s *memoryProfileStore) Upsert(_ context.Context, id string, fields ProfileFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, upsertCall{id: id, fields: fields})
	if s.putErr != nil {
		return s.putErr
	}
	s.rows[id] = mergeFields(s.rows[id], fields)
	return nil
}

func (s *memoryProfileStore) UpdateByID(_ context.Context, id string, fields ProfileFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, upsertCall{id: id, fields: fields})
	if s.panicOn == "update" {
		panic("store exploded")
	}
	if s.putErr != nil {
		return s.putErr
	}
	row, ok := s.rows[id]
	if !ok {
		return ErrProfileNotFound
	}
	s.rows[id] = mergeFields(row, fields)
	return nil
}

func (s *memoryProfileStore) put(id string, fields ProfileFields) {
	s.mu.Lock()
	s.rows[id] = fields
	s.mu.Unlock()
}

func (s *memoryProfileStore) row(id string) (ProfileFields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	return row, ok
}

func (s *memoryProfileStore) upsertCalls() []upsertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upsertCall(nil), s.upserts...)
}

func (s *memoryProfileStore) updateCalls() []upsertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upsertCall(nil), s.updates...)
}

func mergeFields(dst, src ProfileFields) ProfileFields {
	if src.Email != nil {
		dst.Email = src.Email
	}
	if src.Name != nil {
		dst.Name = src.Name
	}
	if src.PhotoURL != nil {
		dst.PhotoURL = src.PhotoURL
	}
	if src.Role != nil {
		dst.Role = src.Role
	}
	if src.IsActive != nil {
		dst.IsActive = src.IsActive
	}
	if src.SubscriptionEnd != nil {
		dst.SubscriptionEnd = src.SubscriptionEnd
	}
	if src.CreatedAt != nil {
		dst.CreatedAt = src.CreatedAt
	}
	if src.LastLogin != nil {
		dst.LastLogin = src.LastLogin
	}
	return dst
}

type fakeProvider struct {
	mu sync.Mutex

	session  *Session
	identity *Identity

	createErr   error
	authErr     error
	federateErr error
	signOutErr  error
	currentErr  error
	noUser      bool

	createdMetadata map[string]any
	federatedWith   [2]string
	listeners       map[int]func(SessionEvent)
	nextListener    int
	unsubscribed    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{listeners: map[int]func(SessionEvent){}}
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, _ string, metadata map[string]any) (*Identity, *Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createdMetadata = metadata
	if p.createErr != nil {
		return nil, nil, p.createErr
	}
	if p.noUser {
		return nil, nil, nil
	}
	id := &Identity{ID: "user-" + email, Email: email, Metadata: metadata, CreatedAt: testNow.Add(-time.Hour)}
	return id, nil, nil
}

func (p *fakeProvider) Authenticate(_ context.Context, email, _ string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authErr != nil {
		return nil, p.authErr
	}
	s := &Session{
		AccessToken: "access",
		User:        Identity{ID: "user-" + email, Email: email},
	}
	p.session = s
	p.identity = &s.User
	return s, nil
}

func (p *fakeProvider) FederatedSignInURL(_ context.Context, provider, redirectTo string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.federatedWith = [2]string{provider, redirectTo}
	if p.federateErr != nil {
		return "", p.federateErr
	}
	return "https://idp.example.com/authorize?provider=" + provider, nil
}

func (p *fakeProvider) TerminateSession(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.session = nil
	p.identity = nil
	return nil
}

func (p *fakeProvider) CurrentSession(context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, p.currentErr
}

func (p *fakeProvider) CurrentIdentity(context.Context) (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity, p.currentErr
}

func (p *fakeProvider) Subscribe(fn func(SessionEvent)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
		p.unsubscribed++
	}
}

func (p *fakeProvider) emit(event SessionEvent) {
	p.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(event)
	}
}

func (p *fakeProvider) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *fakeProvider) signInAs(id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = &Session{AccessToken: "access", User: id}
	p.identity = &p.session.User
}

// exchangingProvider adds the redirect-completion step.
type exchangingProvider struct {
	*fakeProvider
	exchanged   string
	exchangeErr error
	result      *Session
}

func (p *exchangingProvider) ExchangeCode(_ context.Context, code string) (*Session, error) {
	p.exchanged = code
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.result, nil
}

var errStoreDown = errors.New("connection refused")

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func buildTestFacade(t *testing.T, cfg Config, provider IdentityProvider, store ProfileStore, sink AuditSink) *Facade {
	t.Helper()

	f, err := New().
		WithConfig(cfg).
		WithIdentityProvider(provider).
		WithProfileStore(store).
		WithAuditSink(sink).
		WithLogger(quietLogger()).
		WithClock(func() time.Time { return testNow }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func metricsTestConfig() Config {
	cfg := defaultConfig()
	cfg.Metrics.Enabled = true
	return cfg
}
