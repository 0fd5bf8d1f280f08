package goAuthBridge

import (
	"errors"
	"log"
	"time"

	internalaudit "github.com/MrEthical07/goAuthBridge/internal/audit"
)

// Builder assembles a [Facade]. A Builder can be built only once.
//
//	f, err := goAuthBridge.New().
//		WithIdentityProvider(provider).
//		WithProfileStore(store).
//		Build()
type Builder struct {
	config   Config
	provider IdentityProvider
	store    ProfileStore

	auditSink AuditSink
	logger    *log.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

func (b *Builder) WithProfileStore(s ProfileStore) *Builder {
	b.store = s
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for best-effort failures. Defaults to
// [log.Default].
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source used for last_login and created_at.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Facade.
func (b *Builder) Build() (*Facade, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, ErrProviderRequired
	}
	if b.store == nil {
		return nil, ErrProfileStoreRequired
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	metrics := NewMetrics(cfg.Metrics)

	reconciler := NewReconciler(b.store, logger)
	reconciler.now = now
	reconciler.metrics = metrics

	f := &Facade{
		config:     cfg,
		provider:   b.provider,
		store:      b.store,
		reconciler: reconciler,
		metrics:    metrics,
		logger:     logger,
		now:        now,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	b.built = true

	return f, nil
}
