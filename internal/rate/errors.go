package rate

import "errors"

var (
	// ErrInvalidPolicy reports a policy with a non-positive limit or window.
	ErrInvalidPolicy = errors.New("invalid rate limit policy")
	// ErrEmptyKey reports an attempt with an empty key.
	ErrEmptyKey = errors.New("empty rate limit key")
	// ErrStoreUnavailable reports an unreachable counter backend.
	ErrStoreUnavailable = errors.New("counter store unavailable")
)
