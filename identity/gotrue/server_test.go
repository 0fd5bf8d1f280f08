package gotrue

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("super-secret-jwt-token-with-at-least-32-characters")

// fakeGoTrue is an in-memory stand-in for the GoTrue HTTP API.
type fakeGoTrue struct {
	t *testing.T

	mu          sync.Mutex
	users       map[string]fakeUser
	refresh     map[string]string
	codes       map[string]string
	tokenTTL    time.Duration
	autoConfirm bool
	logouts     int
	refreshes   int
	userCalls   int
	lastAPIKey  string
	rejectUser  bool
	seq         int
}

type fakeUser struct {
	ID       string
	Email    string
	Password string
	Metadata map[string]any
}

func newFakeGoTrue(t *testing.T) (*fakeGoTrue, *httptest.Server) {
	t.Helper()
	f := &fakeGoTrue{
		t:           t,
		users:       map[string]fakeUser{},
		refresh:     map[string]string{},
		codes:       map[string]string{},
		tokenTTL:    time.Hour,
		autoConfirm: true,
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAPIKey = r.Header.Get("apikey")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/signup":
		f.signup(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/token":
		f.token(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/logout":
		f.logouts++
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/user":
		f.user(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGoTrue) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	for _, u := range f.users {
		if u.Email == body.Email {
			writeTestJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"code": 422, "error_code": "user_already_exists", "msg": "User already registered",
			})
			return
		}
	}
	u := fakeUser{ID: "uid-" + body.Email, Email: body.Email, Password: body.Password, Metadata: body.Data}
	f.users[u.ID] = u
	if f.autoConfirm {
		writeTestJSON(w, http.StatusOK, f.sessionFor(u))
		return
	}
	writeTestJSON(w, http.StatusOK, f.userJSON(u))
}

func (f *fakeGoTrue) token(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Query().Get("grant_type") {
	case "password":
		for _, u := range f.users {
			if u.Email == body["email"] && u.Password == body["password"] {
				writeTestJSON(w, http.StatusOK, f.sessionFor(u))
				return
			}
		}
		writeTestJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid_grant", "error_description": "Invalid login credentials",
		})
	case "refresh_token":
		id, ok := f.refresh[body["refresh_token"]]
		if !ok {
			writeTestJSON(w, http.StatusBadRequest, map[string]any{
				"error": "invalid_grant", "error_description": "Invalid Refresh Token: Refresh Token Not Found",
			})
			return
		}
		delete(f.refresh, body["refresh_token"])
		f.refreshes++
		writeTestJSON(w, http.StatusOK, f.sessionFor(f.users[id]))
	case "pkce":
		verifier, ok := f.codes[body["auth_code"]]
		if !ok || verifier == "" || body["code_verifier"] == "" {
			writeTestJSON(w, http.StatusBadRequest, map[string]any{"msg": "invalid flow state"})
			return
		}
		u := fakeUser{ID: "uid-oauth", Email: "g@example.com", Metadata: map[string]any{"full_name": "Grace"}}
		f.users[u.ID] = u
		writeTestJSON(w, http.StatusOK, f.sessionFor(u))
	default:
		writeTestJSON(w, http.StatusBadRequest, map[string]any{"msg": "unsupported grant"})
	}
}

func (f *fakeGoTrue) user(w http.ResponseWriter, r *http.Request) {
	f.userCalls++
	if f.rejectUser {
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := &AccessClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return testSecret, nil }); err != nil {
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
		return
	}
	u, ok := f.users[claims.Subject]
	if !ok {
		writeTestJSON(w, http.StatusNotFound, map[string]any{"msg": "User not found"})
		return
	}
	writeTestJSON(w, http.StatusOK, f.userJSON(u))
}

func (f *fakeGoTrue) sessionFor(u fakeUser) map[string]any {
	f.seq++
	refresh := "refresh-" + strconv.Itoa(f.seq)
	f.refresh[refresh] = u.ID
	return map[string]any{
		"access_token":  signTestToken(f.t, u, f.tokenTTL),
		"token_type":    "bearer",
		"expires_in":    int(f.tokenTTL.Seconds()),
		"refresh_token": refresh,
		"user":          f.userJSON(u),
	}
}

func (f *fakeGoTrue) userJSON(u fakeUser) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"user_metadata": u.Metadata,
		"created_at":    "2026-01-01T00:00:00Z",
	}
}

func (f *fakeGoTrue) allowCode(code, verifier string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = verifier
}

func (f *fakeGoTrue) counts() (logouts, refreshes, userCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts, f.refreshes, f.userCalls
}

func signTestToken(t *testing.T, u fakeUser, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := AccessClaims{
		Email: u.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
