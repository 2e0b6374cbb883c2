package admitkit

import (
	"context"
	"errors"
	"time"

	"github.com/admitkit/admitkit/internal/validate"
)

// PasswordRehashStore is an optional [UserStore] extension. When the store
// implements it and upgrade-on-login is enabled, hashes produced with
// weaker parameters are transparently replaced after a successful login.
type PasswordRehashStore interface {
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

// Login verifies an email and password pair and issues a credential.
// Unknown accounts and wrong passwords are indistinguishable to the
// caller; both surface as an AUTHENTICATION fault.
func (p *Pipeline) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if p == nil {
		return LoginResult{}, ErrPipelineNotReady
	}

	start := time.Now()
	defer p.observeLatency(start)

	if err := p.rateGate(ctx, opLogin, rateKey(ctx), p.config.RateLimit.Auth, MetricLoginRateLimited); err != nil {
		return LoginResult{}, p.fail(ctx, opLogin, "", err)
	}

	res := p.schemas.login.Apply(validate.Values{
		"email":    input.Email,
		"password": input.Password,
	})
	if !res.OK() {
		return LoginResult{}, p.fail(ctx, opLogin, "", validationFault(res))
	}

	record, err := p.users.FindByEmail(ctx, res.Values["email"])
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			p.metricInc(MetricLoginFailure)
			return LoginResult{}, p.fail(ctx, opLogin, "", ErrInvalidCredentials)
		}
		return LoginResult{}, p.fail(ctx, opLogin, "", err)
	}

	match, err := p.hasher.Compare(input.Password, record.PasswordHash)
	if err != nil {
		return LoginResult{}, p.fail(ctx, opLogin, record.UserID, err)
	}
	if !match {
		p.metricInc(MetricLoginFailure)
		return LoginResult{}, p.fail(ctx, opLogin, record.UserID, ErrInvalidCredentials)
	}

	p.maybeUpgradeHash(ctx, record, input.Password)

	signed, claims, err := p.tokens.Issue(record.UserID, record.Email, record.Role)
	if err != nil {
		return LoginResult{}, p.fail(ctx, opLogin, record.UserID, err)
	}

	p.metricInc(MetricLoginSuccess)
	p.succeed(ctx, opLogin, record.UserID, nil)

	return LoginResult{
		UserID:    record.UserID,
		Email:     record.Email,
		Role:      record.Role,
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh exchanges a still-valid credential for a fresh one with a full
// lifetime. The account is re-read so role or email changes since issue
// are reflected; an account that no longer exists renders the credential
// invalid.
func (p *Pipeline) Refresh(ctx context.Context, rawToken string) (LoginResult, error) {
	if p == nil {
		return LoginResult{}, ErrPipelineNotReady
	}

	start := time.Now()
	defer p.observeLatency(start)

	if err := p.rateGate(ctx, opRefresh, rateKey(ctx), p.config.RateLimit.General, MetricRefreshRateLimited); err != nil {
		return LoginResult{}, p.fail(ctx, opRefresh, "", err)
	}

	identity, err := p.Authenticate(rawToken)
	if err != nil {
		p.metricInc(MetricRefreshFailure)
		return LoginResult{}, p.fail(ctx, opRefresh, "", err)
	}

	record, err := p.users.FindByID(ctx, identity.SubjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			p.metricInc(MetricRefreshFailure)
			return LoginResult{}, p.fail(ctx, opRefresh, identity.SubjectID, ErrTokenInvalid)
		}
		return LoginResult{}, p.fail(ctx, opRefresh, identity.SubjectID, err)
	}

	signed, claims, err := p.tokens.Issue(record.UserID, record.Email, record.Role)
	if err != nil {
		return LoginResult{}, p.fail(ctx, opRefresh, record.UserID, err)
	}

	p.metricInc(MetricRefreshSuccess)
	p.succeed(ctx, opRefresh, record.UserID, nil)

	return LoginResult{
		UserID:    record.UserID,
		Email:     record.Email,
		Role:      record.Role,
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *Pipeline) maybeUpgradeHash(ctx context.Context, record UserRecord, plaintext string) {
	if !p.config.Password.UpgradeOnLogin {
		return
	}

	rehasher, ok := p.users.(PasswordRehashStore)
	if !ok {
		return
	}

	needs, err := p.hasher.NeedsRehash(record.PasswordHash)
	if err != nil || !needs {
		return
	}

	newHash, err := p.hasher.Hash(plaintext)
	if err != nil {
		return
	}

	// Upgrade failures do not fail the login.
	_ = rehasher.UpdatePasswordHash(ctx, record.UserID, newHash)
}
