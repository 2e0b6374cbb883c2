package admitkit

import (
	"errors"
	"time"
)

// Role names recognized by the pipeline. Roles beyond these two can be
// added through [Config.Roles].
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Config defines the pipeline configuration. Instances are intended to be
// populated during initialization and then treated as immutable.
type Config struct {
	Token     TokenConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Register  RegisterConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig

	// Roles is the closed set of accepted role names. The first entry is
	// the implicit default when [RegisterConfig.DefaultRole] is empty.
	Roles []string
}

// TokenConfig holds the credential signing parameters.
type TokenConfig struct {
	Secret     []byte
	Lifetime   time.Duration
	Issuer     string
	Leeway     time.Duration
	CookieName string
}

// RateLimitConfig holds the fixed-window policies applied per operation
// class. Auth covers register and login, Sensitive covers profile
// mutation, General covers everything else.
type RateLimitConfig struct {
	Enabled   bool
	Auth      RatePolicy
	General   RatePolicy
	Sensitive RatePolicy
}

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// RegisterConfig controls account creation behavior.
type RegisterConfig struct {
	Enabled     bool
	AutoLogin   bool
	DefaultRole string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metric collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig holds the hardening switches.
type SecurityConfig struct {
	ProductionMode       bool
	RequireSecureCookies bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Lifetime:   time.Hour,
			Issuer:     "admitkit",
			Leeway:     0,
			CookieName: "account_session",
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			Auth:      RatePolicy{Limit: 5, Window: 15 * time.Minute},
			General:   RatePolicy{Limit: 100, Window: time.Minute},
			Sensitive: RatePolicy{Limit: 20, Window: time.Hour},
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Register: RegisterConfig{
			Enabled:     true,
			AutoLogin:   false,
			DefaultRole: RoleMember,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:       false,
			RequireSecureCookies: false,
		},
		Roles: []string{RoleMember, RoleAdmin},
	}
}

// DefaultConfig returns the development-oriented baseline configuration.
// The token secret must still be supplied by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

// ProductionConfig returns the hardened baseline: production mode, secure
// cookies, audit and metrics on.
func ProductionConfig() Config {
	cfg := defaultConfig()
	cfg.Security.ProductionMode = true
	cfg.Security.RequireSecureCookies = true
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	if len(cfg.Roles) > 0 {
		out.Roles = make([]string, len(cfg.Roles))
		copy(out.Roles, cfg.Roles)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency. It is called
// by the builder before any component is constructed.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.Lifetime <= 0 {
		return errors.New("Token Lifetime must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		for _, p := range []RatePolicy{c.RateLimit.Auth, c.RateLimit.General, c.RateLimit.Sensitive} {
			if p.Limit <= 0 {
				return errors.New("RateLimit policy Limit must be > 0")
			}
			if p.Window <= 0 {
				return errors.New("RateLimit policy Window must be > 0")
			}
		}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Roles
	if len(c.Roles) == 0 {
		return errors.New("Roles must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Roles))
	for _, role := range c.Roles {
		if role == "" {
			return errors.New("Roles must not contain empty names")
		}
		if _, dup := seen[role]; dup {
			return errors.New("Roles must not contain duplicates")
		}
		seen[role] = struct{}{}
	}
	if c.Register.DefaultRole != "" {
		if _, ok := seen[c.Register.DefaultRole]; !ok {
			return errors.New("Register DefaultRole must be one of Roles")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Production hardening
	if c.Security.ProductionMode && !c.Security.RequireSecureCookies {
		return errors.New("Security RequireSecureCookies must be true in production mode")
	}

	return nil
}
