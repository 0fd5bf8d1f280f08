package gotrue

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures a [Client].
type Config struct {
	// URL is the GoTrue base URL, for example https://<project>.supabase.co/auth/v1.
	URL string
	// APIKey is the project's public (anon) key, sent on every request.
	APIKey string
	// JWTSecret enables local access-token verification through
	// [Client.Verifier]. Optional.
	JWTSecret []byte
	// Audience is the expected "aud" claim when JWTSecret is set.
	Audience string
	// StorageKey names the persisted session. The PKCE verifier is kept
	// under StorageKey + "-code-verifier".
	StorageKey string
	// RefreshMargin refreshes a session this long before it expires.
	RefreshMargin time.Duration
	// HTTPClient overrides the default client with RequestTimeout.
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// DefaultConfig returns the settings used for empty fields.
func DefaultConfig() Config {
	return Config{
		Audience:       "authenticated",
		StorageKey:     "goauthbridge-session",
		RefreshMargin:  30 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// Validate checks that cfg can reach a server.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("gotrue config is nil")
	}
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("gotrue URL must be set")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("gotrue URL must be absolute")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("gotrue APIKey must be set")
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return errors.New("gotrue StorageKey must be set")
	}
	if c.RefreshMargin < 0 {
		return errors.New("gotrue RefreshMargin must be >= 0")
	}
	if c.RequestTimeout < 0 {
		return errors.New("gotrue RequestTimeout must be >= 0")
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Audience == "" {
		c.Audience = def.Audience
	}
	if c.StorageKey == "" {
		c.StorageKey = def.StorageKey
	}
	if c.RefreshMargin == 0 {
		c.RefreshMargin = def.RefreshMargin
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	c.URL = strings.TrimRight(c.URL, "/")
	return c
}
