package admitkit

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/admitkit/admitkit/internal/audit"
	"github.com/admitkit/admitkit/internal/rate"
	"github.com/admitkit/admitkit/password"
	"github.com/admitkit/admitkit/token"
)

// Builder assembles a [Pipeline] from configuration and collaborators.
// A Builder is single-use; Build fails on the second call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore UserStore
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing secret without replacing the rest of
// the configuration.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithUserStore sets the account storage collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithRedis makes the rate limiter count in Redis instead of process
// memory, so limits hold across replicas. Optional.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events. Events are only
// emitted when [AuditConfig.Enabled] is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source used for rate windows, token expiry,
// and record timestamps. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the pipeline latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, constructs every collaborator, and
// returns the ready Pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}

	var store rate.Store
	if b.redis != nil {
		store = rate.NewRedisStore(b.redis, "rl", now)
	} else {
		store = rate.NewMemoryStore(now)
	}

	tm, err := token.NewManager(token.Config{
		Secret:     cloneBytes(cfg.Token.Secret),
		Lifetime:   cfg.Token.Lifetime,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
		CookieName: cfg.Token.CookieName,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:      cfg,
		limiter:     rate.New(store),
		tokens:      tm,
		hasher:      hasher,
		users:       b.userStore,
		metrics:     NewMetrics(cfg.Metrics),
		now:         now,
		distributed: b.redis != nil,
	}

	p.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	p.schemas = newSchemaSet(cfg)

	b.built = true

	return p, nil
}
