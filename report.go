package admitkit

import "time"

// SecurityReport is a read-only snapshot of the pipeline's security
// posture, returned by [Pipeline.SecurityReport].
type SecurityReport struct {
	ProductionMode      bool
	SigningAlgorithm    string
	TokenLifetime       time.Duration
	TokenLeeway         time.Duration
	Argon2              PasswordConfigReport
	RateLimitingActive  bool
	DistributedCounters bool
	RegistrationOpen    bool
	AutoLoginEnabled    bool
	AuditActive         bool
	MetricsActive       bool
	Roles               []string
}

// PasswordConfigReport contains the Argon2 parameters active in the
// pipeline.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport summarizes the active configuration. It contains no
// secrets and is safe to log.
func (p *Pipeline) SecurityReport() SecurityReport {
	if p == nil {
		return SecurityReport{}
	}

	roles := make([]string, len(p.config.Roles))
	copy(roles, p.config.Roles)

	return SecurityReport{
		ProductionMode:   p.config.Security.ProductionMode,
		SigningAlgorithm: "HS256",
		TokenLifetime:    p.config.Token.Lifetime,
		TokenLeeway:      p.config.Token.Leeway,
		Argon2: PasswordConfigReport{
			Memory:      p.config.Password.Memory,
			Time:        p.config.Password.Time,
			Parallelism: p.config.Password.Parallelism,
			SaltLength:  p.config.Password.SaltLength,
			KeyLength:   p.config.Password.KeyLength,
		},
		RateLimitingActive:  p.config.RateLimit.Enabled,
		DistributedCounters: p.distributed,
		RegistrationOpen:    p.config.Register.Enabled,
		AutoLoginEnabled:    p.config.Register.AutoLogin,
		AuditActive:         p.config.Audit.Enabled,
		MetricsActive:       p.config.Metrics.Enabled,
		Roles:               roles,
	}
}
