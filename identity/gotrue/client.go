package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const maxErrorBody = 64 << 10

// Client talks to one GoTrue server on behalf of one signed-in user.
type Client struct {
	config   Config
	http     *http.Client
	storage  Storage
	verifier *TokenVerifier
	now      func() time.Time

	refreshMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   map[uuid.UUID]func(goAuthBridge.SessionEvent)
}

var (
	_ goAuthBridge.IdentityProvider = (*Client)(nil)
	_ goAuthBridge.CodeExchanger    = (*Client)(nil)
)

// New returns a Client persisting its session in storage. A nil storage
// uses a [MemoryStorage].
func New(cfg Config, storage Storage) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	c := &Client{
		config:    cfg,
		http:      httpClient,
		storage:   storage,
		now:       time.Now,
		listeners: make(map[uuid.UUID]func(goAuthBridge.SessionEvent)),
	}
	if len(cfg.JWTSecret) > 0 {
		v, err := NewTokenVerifier(cfg.JWTSecret, cfg.Audience, "", 0)
		if err != nil {
			return nil, err
		}
		c.verifier = v
	}
	return c, nil
}

// Verifier returns the local token verifier, or nil when no JWT secret
// was configured.
func (c *Client) Verifier() *TokenVerifier {
	return c.verifier
}

// CreateAccount registers email. GoTrue returns a session only when email
// confirmation is disabled; otherwise the session is nil.
func (c *Client) CreateAccount(ctx context.Context, email, password string, metadata map[string]any) (*goAuthBridge.Identity, *goAuthBridge.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var raw json.RawMessage
	if err := c.do(ctx, "sign up", http.MethodPost, "/signup", nil, "", body, &raw); err != nil {
		return nil, nil, err
	}

	var ws wireSession
	if err := json.Unmarshal(raw, &ws); err == nil && ws.AccessToken != "" {
		session, err := c.establish(ctx, &ws, goAuthBridge.EventSignedIn)
		if err != nil {
			return nil, nil, err
		}
		identity := session.User
		return &identity, session, nil
	}

	var user wireUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, nil, fmt.Errorf("decode sign up response: %w", err)
	}
	if user.ID == "" {
		return nil, nil, nil
	}
	identity := user.identity()
	return &identity, nil, nil
}

// Authenticate exchanges email and password for a session.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*goAuthBridge.Session, error) {
	var ws wireSession
	err := c.do(ctx, "sign in", http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, "", map[string]string{
		"email":    email,
		"password": password,
	}, &ws)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, &ws, goAuthBridge.EventSignedIn)
}

// FederatedSignInURL starts a PKCE sign-in with provider and returns the
// authorize URL. The verifier waits in storage for [Client.ExchangeCode].
func (c *Client) FederatedSignInURL(ctx context.Context, provider, redirectTo string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", &goAuthBridge.ProviderError{Op: "authorize", Message: "provider must be set"}
	}

	verifier := oauth2.GenerateVerifier()
	if err := c.storage.Set(ctx, c.verifierKey(), []byte(verifier)); err != nil {
		return "", err
	}

	q := url.Values{
		"provider":              {provider},
		"code_challenge":        {oauth2.S256ChallengeFromVerifier(verifier)},
		"code_challenge_method": {"s256"},
	}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.config.URL + "/authorize?" + q.Encode(), nil
}

// ExchangeCode finishes the sign-in started by FederatedSignInURL.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*goAuthBridge.Session, error) {
	verifier, err := c.storage.Get(ctx, c.verifierKey())
	if err != nil {
		return nil, err
	}
	if len(verifier) == 0 {
		return nil, &goAuthBridge.ProviderError{Op: "exchange code", Message: ErrNoCodeVerifier.Error(), Err: ErrNoCodeVerifier}
	}

	var ws wireSession
	err = c.do(ctx, "exchange code", http.MethodPost, "/token", url.Values{"grant_type": {"pkce"}}, "", map[string]string{
		"auth_code":     code,
		"code_verifier": string(verifier),
	}, &ws)
	if err != nil {
		return nil, err
	}
	if err := c.storage.Delete(ctx, c.verifierKey()); err != nil {
		return nil, err
	}
	return c.establish(ctx, &ws, goAuthBridge.EventSignedIn)
}

// TerminateSession revokes the current session server-side and forgets
// it locally. A session the server already rejects is still forgotten.
func (c *Client) TerminateSession(ctx context.Context) error {
	ws, err := c.loadSession(ctx)
	if err != nil {
		return err
	}
	if ws != nil {
		err := c.do(ctx, "sign out", http.MethodPost, "/logout", nil, ws.AccessToken, nil, nil)
		if err != nil && !sessionRevoked(err) {
			return err
		}
	}

	if err := c.storage.Delete(ctx, c.config.StorageKey); err != nil {
		return err
	}
	if err := c.storage.Delete(ctx, c.verifierKey()); err != nil {
		return err
	}
	c.emit(goAuthBridge.SessionEvent{Kind: goAuthBridge.EventSignedOut})
	return nil
}

// CurrentSession returns the stored session, refreshing it first when it
// expires within RefreshMargin. It returns nil, nil when nobody is signed
// in.
func (c *Client) CurrentSession(ctx context.Context) (*goAuthBridge.Session, error) {
	ws, err := c.loadSession(ctx)
	if err != nil || ws == nil {
		return nil, err
	}
	session := ws.session()
	if !session.Expired(c.now(), c.config.RefreshMargin) {
		return session, nil
	}
	return c.refresh(ctx)
}

// CurrentIdentity fetches the signed-in user from the server. When the
// server is unreachable the claims cached with the session are used.
func (c *Client) CurrentIdentity(ctx context.Context) (*goAuthBridge.Identity, error) {
	session, err := c.CurrentSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}

	var user wireUser
	err = c.do(ctx, "get user", http.MethodGet, "/user", nil, session.AccessToken, nil, &user)
	if errors.Is(err, ErrUnavailable) {
		identity := session.User
		return &identity, nil
	}
	if err != nil {
		return nil, err
	}
	identity := user.identity()
	return &identity, nil
}

// Subscribe registers fn for every session transition. Events are
// delivered synchronously on the goroutine that caused them.
func (c *Client) Subscribe(fn func(goAuthBridge.SessionEvent)) func() {
	id := uuid.New()
	c.listenersMu.Lock()
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Client) emit(event goAuthBridge.SessionEvent) {
	c.listenersMu.RLock()
	fns := make([]func(goAuthBridge.SessionEvent), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

func (c *Client) refresh(ctx context.Context) (*goAuthBridge.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	ws, err := c.loadSession(ctx)
	if err != nil || ws == nil {
		return nil, err
	}
	if s := ws.session(); !s.Expired(c.now(), c.config.RefreshMargin) {
		return s, nil
	}

	var next wireSession
	err = c.do(ctx, "refresh", http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, "", map[string]string{
		"refresh_token": ws.RefreshToken,
	}, &next)
	if err != nil {
		if sessionRevoked(err) {
			_ = c.storage.Delete(ctx, c.config.StorageKey)
			c.emit(goAuthBridge.SessionEvent{Kind: goAuthBridge.EventSignedOut})
		}
		return nil, err
	}
	if next.User == nil {
		next.User = ws.User
	}
	return c.establish(ctx, &next, goAuthBridge.EventTokenRefreshed)
}

// establish persists ws and announces it.
func (c *Client) establish(ctx context.Context, ws *wireSession, kind goAuthBridge.SessionEventKind) (*goAuthBridge.Session, error) {
	ws.normalize(c.now())
	data, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := c.storage.Set(ctx, c.config.StorageKey, data); err != nil {
		return nil, err
	}

	session := ws.session()
	c.emit(goAuthBridge.SessionEvent{Kind: kind, Session: session})
	return session, nil
}

func (c *Client) loadSession(ctx context.Context) (*wireSession, error) {
	data, err := c.storage.Get(ctx, c.config.StorageKey)
	if err != nil || len(data) == 0 {
		return nil, err
	}
	var ws wireSession
	if err := json.Unmarshal(data, &ws); err != nil || ws.AccessToken == "" {
		// Unreadable sessions are dropped rather than surfaced forever.
		_ = c.storage.Delete(ctx, c.config.StorageKey)
		return nil, nil
	}
	return &ws, nil
}

func (c *Client) verifierKey() string {
	return c.config.StorageKey + "-code-verifier"
}

// do sends one JSON request. Rejections become *goAuthBridge.ProviderError
// carrying the server's message and an *APIError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, bearer string, body, out any) error {
	target := c.config.URL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if bearer == "" {
		bearer = c.config.APIKey
	}
	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func decodeAPIError(op string, resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var we wireError
	if json.Unmarshal(raw, &we) == nil {
		apiErr.Code = we.code()
		apiErr.Message = we.message()
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return &goAuthBridge.ProviderError{Op: op, Message: apiErr.Message, Err: apiErr}
}
