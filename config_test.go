package admitkit

import (
	"testing"
	"time"
)

func TestDefaultConfigValidatesWithSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.RateLimit.Auth.Limit != 5 || cfg.RateLimit.Auth.Window != 15*time.Minute {
		t.Fatalf("auth policy = %+v", cfg.RateLimit.Auth)
	}
	if cfg.Token.Lifetime != time.Hour {
		t.Fatalf("lifetime = %v", cfg.Token.Lifetime)
	}
	if cfg.Register.DefaultRole != RoleMember {
		t.Fatalf("default role = %q", cfg.Register.DefaultRole)
	}
}

func TestProductionConfigHardening(t *testing.T) {
	cfg := ProductionConfig()
	cfg.Token.Secret = testSecret

	if err := cfg.Validate(); err != nil {
		t.Fatalf("production config invalid: %v", err)
	}
	if !cfg.Security.ProductionMode || !cfg.Security.RequireSecureCookies {
		t.Fatalf("security = %+v", cfg.Security)
	}
	if !cfg.Audit.Enabled || !cfg.Metrics.Enabled || !cfg.Metrics.EnableLatencyHistograms {
		t.Fatalf("observability = audit:%+v metrics:%+v", cfg.Audit, cfg.Metrics)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := map[string]func(*Config){
		"short secret":         func(c *Config) { c.Token.Secret = []byte("short") },
		"zero lifetime":        func(c *Config) { c.Token.Lifetime = 0 },
		"excessive leeway":     func(c *Config) { c.Token.Leeway = 3 * time.Minute },
		"zero rate limit":      func(c *Config) { c.RateLimit.Auth.Limit = 0 },
		"zero rate window":     func(c *Config) { c.RateLimit.General.Window = 0 },
		"weak memory":          func(c *Config) { c.Password.Memory = 1024 },
		"zero time cost":       func(c *Config) { c.Password.Time = 0 },
		"zero parallelism":     func(c *Config) { c.Password.Parallelism = 0 },
		"short salt":           func(c *Config) { c.Password.SaltLength = 8 },
		"short key":            func(c *Config) { c.Password.KeyLength = 8 },
		"no roles":             func(c *Config) { c.Roles = nil },
		"empty role name":      func(c *Config) { c.Roles = []string{"member", ""} },
		"duplicate role":       func(c *Config) { c.Roles = []string{"member", "member"} },
		"unknown default role": func(c *Config) { c.Register.DefaultRole = "root" },
		"zero audit buffer":    func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
		"insecure production":  func(c *Config) { c.Security.ProductionMode = true },
	}

	for name, mutate := range cases {
		cfg := DefaultConfig()
		cfg.Token.Secret = testSecret
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestConfigValidateSkipsRatePoliciesWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.RateLimit = RateLimitConfig{Enabled: false}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled limiter should not require policies: %v", err)
	}
}

func TestCloneConfigIsolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token.Secret = append([]byte(nil), testSecret...)

	clone := cloneConfig(cfg)
	cfg.Token.Secret[0] = 'x'
	cfg.Roles[0] = "mutated"

	if clone.Token.Secret[0] == 'x' {
		t.Fatal("secret shared with clone")
	}
	if clone.Roles[0] != RoleMember {
		t.Fatalf("roles shared with clone: %v", clone.Roles)
	}
}
