package admitkit

import (
	"context"
	"time"

	"github.com/admitkit/admitkit/internal/audit"
	"github.com/admitkit/admitkit/internal/rate"
	"github.com/admitkit/admitkit/password"
	"github.com/admitkit/admitkit/token"
)

// Operation names used in audit events and rate-limit keys.
const (
	opRegister      = "register"
	opLogin         = "login"
	opRefresh       = "refresh"
	opProfileRead   = "profile_read"
	opProfileUpdate = "profile_update"
)

// Pipeline runs every request through the same admission sequence: rate
// check, validation, authentication where required, then the operation
// itself. All methods are safe for concurrent use.
type Pipeline struct {
	config  Config
	limiter *rate.Limiter
	tokens  *token.Manager
	hasher  *password.Hasher
	users   UserStore
	audit   *audit.Dispatcher
	metrics *Metrics
	schemas schemaSet
	now     func() time.Time

	// distributed is true when rate counters live in Redis.
	distributed bool
}

// Close drains and stops the audit dispatcher. Safe to call on a nil
// receiver and safe to call more than once.
func (p *Pipeline) Close() {
	if p == nil {
		return
	}
	p.audit.Close()
}

// Tokens exposes the credential manager for transport-layer concerns such
// as cookie handling.
func (p *Pipeline) Tokens() *token.Manager {
	if p == nil {
		return nil
	}
	return p.tokens
}

// SecureCookies reports whether session cookies must carry the Secure flag.
func (p *Pipeline) SecureCookies() bool {
	if p == nil {
		return false
	}
	return p.config.Security.RequireSecureCookies
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (p *Pipeline) AuditDropped() uint64 {
	if p == nil {
		return 0
	}
	return p.audit.Dropped()
}

// Metrics exposes the in-process metric registry for exporters.
func (p *Pipeline) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (p *Pipeline) MetricsSnapshot() MetricsSnapshot {
	if p == nil || p.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return p.metrics.Snapshot()
}

func (p *Pipeline) metricInc(id MetricID) {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.Inc(id)
}

// observeLatency records wall-clock pipeline latency. It uses the real
// clock rather than the configured one so fake clocks in tests do not
// distort the histogram.
func (p *Pipeline) observeLatency(start time.Time) {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.Observe(MetricPipelineLatency, time.Since(start))
}

// Authenticate verifies the raw credential and returns the caller identity.
// An empty credential maps to [ErrTokenMissing]; every verification failure
// maps to [ErrTokenInvalid].
func (p *Pipeline) Authenticate(rawToken string) (Identity, error) {
	if p == nil {
		return Identity{}, ErrPipelineNotReady
	}
	if rawToken == "" {
		return Identity{}, ErrTokenMissing
	}

	claims, err := p.tokens.Verify(rawToken)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		SubjectID: claims.SubjectID(),
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// rateGate runs the fixed-window check for one operation. On denial it
// returns a RATE_LIMITED fault carrying the retry metadata; on a counter
// backend failure it fails closed.
func (p *Pipeline) rateGate(ctx context.Context, operation, key string, policy RatePolicy, limitedMetric MetricID) error {
	if !p.config.RateLimit.Enabled {
		return nil
	}

	decision, err := p.limiter.Attempt(ctx, operation+":"+key, policy)
	if err != nil {
		return err
	}
	if decision.Admitted {
		return nil
	}

	p.metricInc(limitedMetric)

	return newFault(KindRateLimited, ErrRateLimited.Error(), RateLimitDetails{
		Limit:     decision.Limit,
		Remaining: decision.Remaining,
		ResetAt:   decision.ResetAt,
	}, ErrRateLimited)
}

// fail classifies err, bumps the kind-level metric, emits the audit event,
// and returns the fault. Internal causes are recorded in the audit detail
// and never in the returned fault message.
func (p *Pipeline) fail(ctx context.Context, operation, userID string, err error) error {
	f := classify(err)

	switch f.Kind {
	case KindValidation:
		p.metricInc(MetricValidationFailure)
	case KindAuthentication:
		p.metricInc(MetricAuthenticationFailure)
	case KindAuthorization:
		p.metricInc(MetricAuthorizationDenied)
	case KindNotFound:
		p.metricInc(MetricNotFound)
	case KindConflict:
		p.metricInc(MetricConflict)
	case KindRateLimited:
		p.metricInc(MetricRateLimitHit)
	case KindInternal:
		p.metricInc(MetricInternalFailure)
	}

	detail := ""
	if f.Kind == KindInternal && f.cause != nil {
		detail = f.cause.Error()
	}

	p.emitAudit(ctx, operation, outcomeForKind(f.Kind), false, userID, detail, nil)

	return f
}

func (p *Pipeline) succeed(ctx context.Context, operation, userID string, metadata map[string]string) {
	p.emitAudit(ctx, operation, "success", true, userID, "", metadata)
}

func (p *Pipeline) emitAudit(ctx context.Context, operation, outcome string, success bool, userID, detail string, metadata map[string]string) {
	if p == nil || p.audit == nil {
		return
	}

	p.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Outcome:   outcome,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Detail:    detail,
		Metadata:  metadata,
	})
}

func outcomeForKind(k Kind) string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindAuthentication:
		return "authentication_failed"
	case KindAuthorization:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

func sanitizeProfile(record UserRecord) ProfileResult {
	return ProfileResult{
		UserID:    record.UserID,
		Email:     record.Email,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Role:      record.Role,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
