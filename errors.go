package admitkit

import (
	"errors"

	"github.com/admitkit/admitkit/internal/rate"
)

var (
	// ErrRateLimited is returned when the rate limiter denies admission for
	// the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrTokenMissing is returned when a protected operation is invoked
	// without a bearer credential.
	ErrTokenMissing = errors.New("credential missing")
	// ErrTokenInvalid is returned for any malformed, forged, or expired
	// credential. The three cases are deliberately indistinguishable.
	ErrTokenInvalid = errors.New("invalid credential")
	// ErrInvalidCredentials is returned when login identity or password
	// verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPermissionDenied is returned when an authenticated identity lacks
	// permission for the requested operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUserNotFound is returned by the storage collaborator when the
	// referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by the storage collaborator on a
	// uniqueness violation for the account email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrValidationFailed is the generic sentinel for schema validation
	// failures; faults built from it carry per-field details.
	ErrValidationFailed = errors.New("validation failed")
	// ErrRegistrationDisabled is returned when account creation is switched
	// off in configuration.
	ErrRegistrationDisabled = errors.New("registration disabled")
	// ErrStoreUnavailable is returned when a counter backend cannot be
	// reached. Requests fail closed rather than bypassing the limiter.
	ErrStoreUnavailable = rate.ErrStoreUnavailable
	// ErrPipelineNotReady is returned when a Pipeline is used before Build.
	ErrPipelineNotReady = errors.New("pipeline not initialized")
)
