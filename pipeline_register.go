package admitkit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/admitkit/admitkit/internal/validate"
)

// Register creates a new account. The request passes the rate gate keyed
// by client IP, then full schema validation, then storage. Email uniqueness
// is enforced by the store; a violation surfaces as a CONFLICT fault. When
// auto-login is configured the result carries a freshly issued credential.
func (p *Pipeline) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	if p == nil {
		return RegisterResult{}, ErrPipelineNotReady
	}

	start := time.Now()
	defer p.observeLatency(start)

	if err := p.rateGate(ctx, opRegister, rateKey(ctx), p.config.RateLimit.Auth, MetricRegisterRateLimited); err != nil {
		return RegisterResult{}, p.fail(ctx, opRegister, "", err)
	}

	res := p.schemas.register.Apply(validate.Values{
		"email":     input.Email,
		"password":  input.Password,
		"firstName": input.FirstName,
		"lastName":  input.LastName,
	})
	if !res.OK() {
		return RegisterResult{}, p.fail(ctx, opRegister, "", validationFault(res))
	}

	if !p.config.Register.Enabled {
		return RegisterResult{}, p.fail(ctx, opRegister, "", ErrRegistrationDisabled)
	}

	hash, err := p.hasher.Hash(input.Password)
	if err != nil {
		return RegisterResult{}, p.fail(ctx, opRegister, "", err)
	}

	role := p.config.Register.DefaultRole
	if role == "" {
		role = p.config.Roles[0]
	}

	record, err := p.users.Create(ctx, CreateUserInput{
		UserID:       uuid.NewString(),
		Email:        res.Values["email"],
		PasswordHash: hash,
		FirstName:    res.Values["firstName"],
		LastName:     res.Values["lastName"],
		Role:         role,
		CreatedAt:    p.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			p.metricInc(MetricRegisterDuplicate)
		}
		return RegisterResult{}, p.fail(ctx, opRegister, "", err)
	}

	out := RegisterResult{
		UserID:    record.UserID,
		Email:     record.Email,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Role:      record.Role,
		CreatedAt: record.CreatedAt,
	}

	if p.config.Register.AutoLogin {
		signed, claims, err := p.tokens.Issue(record.UserID, record.Email, record.Role)
		if err != nil {
			return RegisterResult{}, p.fail(ctx, opRegister, record.UserID, err)
		}
		out.Token = signed
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	p.metricInc(MetricRegisterSuccess)
	p.succeed(ctx, opRegister, record.UserID, map[string]string{"role": record.Role})

	return out, nil
}

// rateKey picks the fixed-window key for unauthenticated operations. A
// request with no attributed IP shares one bucket rather than bypassing
// the limiter.
func rateKey(ctx context.Context) string {
	if ip := clientIPFromContext(ctx); ip != "" {
		return ip
	}
	return "unknown"
}
