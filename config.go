package goAuthBridge

import (
	"errors"
	"net/url"
	"strings"
)

const googleProvider = "google"

// Config controls facade behavior. Obtain defaults with [DefaultConfig]
// and adjust before passing it to [Builder.WithConfig].
type Config struct {
	Federated FederatedConfig
	Profile   ProfileConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// FederatedConfig controls OAuth redirect sign-in.
type FederatedConfig struct {
	// DefaultProvider is used by SignInWithProvider when called with "".
	// Empty means "google".
	DefaultProvider string
	// RedirectURL is where the identity provider sends the browser after
	// consent. Empty lets the provider use its configured site URL.
	RedirectURL string
}

// ProfileConfig controls profile-row writes made by the facade. The zero
// value keeps every write enabled.
type ProfileConfig struct {
	// SkipUpsertOnAuthEvent disables the best-effort profile upsert
	// performed for SIGNED_IN and TOKEN_REFRESHED events delivered to
	// OnAuthChange.
	SkipUpsertOnAuthEvent bool
	// SkipLastLoginTouch disables the last_login update made by SignIn.
	SkipLastLoginTouch bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the reconcile histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration matching the documented
// behavior of every facade operation.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Federated: FederatedConfig{
			DefaultProvider: googleProvider,
		},
		Profile: ProfileConfig{},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Federated.DefaultProvider) != c.Federated.DefaultProvider {
		return errors.New("Federated DefaultProvider must not have surrounding whitespace")
	}
	if c.Federated.RedirectURL != "" {
		u, err := url.Parse(c.Federated.RedirectURL)
		if err != nil {
			return errors.New("Federated RedirectURL is not a valid URL")
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.New("Federated RedirectURL must be absolute")
		}
	}

	if c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize == 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
