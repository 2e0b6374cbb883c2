package admitkit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/admitkit/admitkit/internal/validate"
)

// Profile returns the sanitized account view for userID. An empty userID
// means the caller's own account. Reading another account requires the
// admin role.
func (p *Pipeline) Profile(ctx context.Context, rawToken, userID string) (ProfileResult, error) {
	if p == nil {
		return ProfileResult{}, ErrPipelineNotReady
	}

	start := time.Now()
	defer p.observeLatency(start)

	if err := p.rateGate(ctx, opProfileRead, rateKey(ctx), p.config.RateLimit.General, MetricProfileRateLimited); err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileRead, "", err)
	}

	identity, err := p.Authenticate(rawToken)
	if err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileRead, "", err)
	}

	target, err := p.resolveTarget(identity, userID)
	if err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileRead, identity.SubjectID, err)
	}

	record, err := p.users.FindByID(ctx, target)
	if err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileRead, identity.SubjectID, err)
	}

	p.metricInc(MetricProfileRead)
	p.succeed(ctx, opProfileRead, identity.SubjectID, map[string]string{"target": record.UserID})

	return sanitizeProfile(record), nil
}

// UpdateProfile applies the supplied profile fields to userID, which
// defaults to the caller's own account. Empty input fields are left
// unchanged. Changing the email to one already registered surfaces as a
// CONFLICT fault from the store.
func (p *Pipeline) UpdateProfile(ctx context.Context, rawToken, userID string, input UpdateProfileInput) (ProfileResult, error) {
	if p == nil {
		return ProfileResult{}, ErrPipelineNotReady
	}

	start := time.Now()
	defer p.observeLatency(start)

	if err := p.rateGate(ctx, opProfileUpdate, rateKey(ctx), p.config.RateLimit.Sensitive, MetricProfileRateLimited); err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileUpdate, "", err)
	}

	res := p.schemas.profileUpdate.Apply(validate.Values{
		"email":     input.Email,
		"firstName": input.FirstName,
		"lastName":  input.LastName,
	})
	if !res.OK() {
		return ProfileResult{}, p.fail(ctx, opProfileUpdate, "", validationFault(res))
	}

	identity, err := p.Authenticate(rawToken)
	if err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileUpdate, "", err)
	}

	target, err := p.resolveTarget(identity, userID)
	if err != nil {
		return ProfileResult{}, p.fail(ctx, opProfileUpdate, identity.SubjectID, err)
	}

	patch := UserPatch{UpdatedAt: p.now().UTC()}
	changed := make([]string, 0, 3)
	for _, path := range []string{"email", "firstName", "lastName"} {
		value, present := res.Values[path]
		if !present {
			continue
		}
		v := value
		switch path {
		case "email":
			patch.Email = &v
		case "firstName":
			patch.FirstName = &v
		case "lastName":
			patch.LastName = &v
		}
		changed = append(changed, path)
	}

	// A patch with nothing to change reads back the current record instead
	// of touching the store.
	if len(changed) == 0 {
		record, err := p.users.FindByID(ctx, target)
		if err != nil {
			return ProfileResult{}, p.fail(ctx, opProfileUpdate, identity.SubjectID, err)
		}
		return sanitizeProfile(record), nil
	}

	record, err := p.users.UpdateByID(ctx, target, patch)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			p.metricInc(MetricRegisterDuplicate)
		}
		return ProfileResult{}, p.fail(ctx, opProfileUpdate, identity.SubjectID, err)
	}

	p.metricInc(MetricProfileUpdate)
	p.succeed(ctx, opProfileUpdate, identity.SubjectID, map[string]string{
		"target": record.UserID,
		"fields": strings.Join(changed, ","),
	})

	return sanitizeProfile(record), nil
}

// resolveTarget maps the requested userID onto the identity's privileges.
func (p *Pipeline) resolveTarget(identity Identity, userID string) (string, error) {
	if userID == "" || userID == identity.SubjectID {
		return identity.SubjectID, nil
	}
	if !identity.IsAdmin() {
		return "", ErrPermissionDenied
	}
	return userID, nil
}
