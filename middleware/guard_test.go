package middleware

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

type staticProvider struct {
	identity *goAuthBridge.Identity
}

func (p *staticProvider) CreateAccount(context.Context, string, string, map[string]any) (*goAuthBridge.Identity, *goAuthBridge.Session, error) {
	return nil, nil, errors.New("unsupported")
}

func (p *staticProvider) Authenticate(context.Context, string, string) (*goAuthBridge.Session, error) {
	return nil, errors.New("unsupported")
}

func (p *staticProvider) FederatedSignInURL(context.Context, string, string) (string, error) {
	return "", errors.New("unsupported")
}

func (p *staticProvider) TerminateSession(context.Context) error { return nil }

func (p *staticProvider) CurrentSession(context.Context) (*goAuthBridge.Session, error) {
	if p.identity == nil {
		return nil, nil
	}
	return &goAuthBridge.Session{User: *p.identity}, nil
}

func (p *staticProvider) CurrentIdentity(context.Context) (*goAuthBridge.Identity, error) {
	return p.identity, nil
}

func (p *staticProvider) Subscribe(func(goAuthBridge.SessionEvent)) func() { return func() {} }

type rowStore struct {
	mu   sync.Mutex
	rows map[string]goAuthBridge.ProfileFields
}

func (s *rowStore) GetByID(_ context.Context, id string) (*goAuthBridge.ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, goAuthBridge.ErrProfileNotFound
	}
	return &goAuthBridge.ProfileRecord{ID: id, ProfileFields: row}, nil
}

func (s *rowStore) Upsert(context.Context, string, goAuthBridge.ProfileFields) error { return nil }

func (s *rowStore) UpdateByID(context.Context, string, goAuthBridge.ProfileFields) error {
	return nil
}

type subjectVerifier map[string]string

func (v subjectVerifier) VerifySubject(token string) (string, error) {
	id, ok := v[token]
	if !ok {
		return "", errors.New("bad token")
	}
	return id, nil
}

func newGuardFacade(t *testing.T, identity *goAuthBridge.Identity) *goAuthBridge.Facade {
	t.Helper()
	store := &rowStore{rows: map[string]goAuthBridge.ProfileFields{
		"admin":    {Role: goAuthBridge.RolePtr(goAuthBridge.RoleAdmin)},
		"member":   {Role: goAuthBridge.RolePtr(goAuthBridge.RoleMember)},
		"disabled": {IsActive: goAuthBridge.Bool(false)},
	}}
	f, err := goAuthBridge.New().
		WithIdentityProvider(&staticProvider{identity: identity}).
		WithProfileStore(store).
		WithLogger(log.New(io.Discard, "", 0)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusInternalServerError)
		return
	}
	_, _ = io.WriteString(w, u.ID)
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireUser(t *testing.T) {
	cases := []struct {
		name     string
		identity *goAuthBridge.Identity
		status   int
	}{
		{"signed out", nil, http.StatusUnauthorized},
		{"member", &goAuthBridge.Identity{ID: "member"}, http.StatusOK},
		{"no profile row", &goAuthBridge.Identity{ID: "fresh", Email: "f@example.com"}, http.StatusOK},
		{"deactivated", &goAuthBridge.Identity{ID: "disabled"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGuardFacade(t, tc.identity)
			rec := serve(RequireUser(f)(http.HandlerFunc(okHandler)), "")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	for id, want := range map[string]int{
		"admin":  http.StatusOK,
		"member": http.StatusForbidden,
		"fresh":  http.StatusForbidden,
	} {
		f := newGuardFacade(t, &goAuthBridge.Identity{ID: id})
		h := RequireUser(f)(RequireAdmin(f)(http.HandlerFunc(okHandler)))
		if rec := serve(h, ""); rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", id, want, rec.Code)
		}
	}
}

func TestRequireAdminWithoutUser(t *testing.T) {
	f := newGuardFacade(t, nil)
	if rec := serve(RequireAdmin(f)(http.HandlerFunc(okHandler)), ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireBearer(t *testing.T) {
	f := newGuardFacade(t, nil)
	v := subjectVerifier{"tok-admin": "admin", "tok-ghost": "ghost", "tok-disabled": "disabled"}
	h := RequireBearer(v, f)(http.HandlerFunc(okHandler))

	cases := map[string]int{
		"":                    http.StatusUnauthorized,
		"Basic abc":           http.StatusUnauthorized,
		"Bearer ":             http.StatusUnauthorized,
		"Bearer wrong":        http.StatusUnauthorized,
		"Bearer tok-ghost":    http.StatusUnauthorized,
		"Bearer tok-disabled": http.StatusForbidden,
		"Bearer tok-admin":    http.StatusOK,
	}
	for header, want := range cases {
		rec := serve(h, header)
		if rec.Code != want {
			t.Fatalf("%q: expected %d, got %d", header, want, rec.Code)
		}
		if want == http.StatusOK && rec.Body.String() != "admin" {
			t.Fatalf("expected user id in body, got %q", rec.Body.String())
		}
	}
}

func TestNilFacadeRejects(t *testing.T) {
	if rec := serve(RequireUser(nil)(http.HandlerFunc(okHandler)), ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	f := newGuardFacade(t, nil)
	v := subjectVerifier{"tok-admin": "admin", "tok-member": "member"}
	h := RequireBearer(v, f)(RequireSelfOrAdmin(f, "id")(http.HandlerFunc(okHandler)))

	cases := []struct {
		token  string
		target string
		want   int
	}{
		{"tok-member", "member", http.StatusOK},
		{"tok-member", "admin", http.StatusForbidden},
		{"tok-member", "", http.StatusForbidden},
		{"tok-admin", "member", http.StatusOK},
		{"tok-admin", "admin", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/users/"+tc.target, nil)
		req.SetPathValue("id", tc.target)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s reading %q: expected %d, got %d", tc.token, tc.target, tc.want, rec.Code)
		}
	}
}
