package admitkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Kind is the closed taxonomy of failure classifications exposed at the
// trust boundary. Every failure leaving the pipeline carries exactly one
// Kind; adding a new Kind is a compile-checked decision everywhere it is
// switched on.
type Kind uint8

const (
	// KindValidation covers malformed or out-of-range input.
	KindValidation Kind = iota
	// KindAuthentication covers missing, malformed, expired, or forged
	// credentials.
	KindAuthentication
	// KindAuthorization covers valid identities lacking permission.
	KindAuthorization
	// KindNotFound covers references to absent entities.
	KindNotFound
	// KindConflict covers uniqueness violations at the storage boundary.
	KindConflict
	// KindRateLimited covers admission denied by the rate limiter.
	KindRateLimited
	// KindInternal is the catch-all for unanticipated failures. Detail is
	// recorded internally and never returned to the caller.
	KindInternal
)

// String returns the stable wire identifier for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindAuthentication:
		return "AUTHENTICATION"
	case KindAuthorization:
		return "AUTHORIZATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindRateLimited:
		return "RATE_LIMITED"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus returns the HTTP status code associated with the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Fault is a classified failure. Message is safe to expose externally;
// Details carries the optional structured payload for the kind (field errors
// for VALIDATION, retry metadata for RATE_LIMITED). The wrapped cause is for
// errors.Is matching only and is never serialized.
type Fault struct {
	Kind    Kind
	Message string
	Details any

	cause error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return f.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (f *Fault) Unwrap() error {
	return f.cause
}

// Envelope is the wire shape for every failure response.
type Envelope struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
}

// Envelope returns the serializable wire form of the fault.
func (f *Fault) Envelope() Envelope {
	return Envelope{
		Error:      f.Message,
		Code:       f.Kind.String(),
		StatusCode: f.Kind.HTTPStatus(),
		Details:    f.Details,
	}
}

// RateLimitDetails is the Details payload for RATE_LIMITED faults. ResetAt
// serializes as an ISO-8601 timestamp.
type RateLimitDetails struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// FieldErrors is the Details payload for VALIDATION faults: field-path to
// ordered violation messages.
type FieldErrors map[string][]string

// AsFault extracts a *Fault from err when one is present.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// newFault builds a classified fault wrapping cause.
func newFault(kind Kind, message string, details any, cause error) *Fault {
	return &Fault{Kind: kind, Message: message, Details: details, cause: cause}
}

// classify maps an already-raised failure onto the taxonomy. Faults pass
// through unchanged; recognized sentinels map to their kind; anything else
// falls back to INTERNAL with a generic message and the original error kept
// as the unserialized cause.
func classify(err error) *Fault {
	if f, ok := AsFault(err); ok {
		return f
	}

	switch {
	case errors.Is(err, ErrValidationFailed):
		return newFault(KindValidation, ErrValidationFailed.Error(), nil, err)
	case errors.Is(err, ErrTokenMissing):
		return newFault(KindAuthentication, ErrTokenMissing.Error(), nil, err)
	case errors.Is(err, ErrTokenInvalid):
		return newFault(KindAuthentication, ErrTokenInvalid.Error(), nil, err)
	case errors.Is(err, ErrInvalidCredentials):
		return newFault(KindAuthentication, ErrInvalidCredentials.Error(), nil, err)
	case errors.Is(err, ErrPermissionDenied):
		return newFault(KindAuthorization, ErrPermissionDenied.Error(), nil, err)
	case errors.Is(err, ErrUserNotFound):
		return newFault(KindNotFound, ErrUserNotFound.Error(), nil, err)
	case errors.Is(err, ErrDuplicateEmail):
		return newFault(KindConflict, ErrDuplicateEmail.Error(), nil, err)
	case errors.Is(err, ErrRegistrationDisabled):
		return newFault(KindAuthorization, ErrRegistrationDisabled.Error(), nil, err)
	case errors.Is(err, ErrRateLimited):
		return newFault(KindRateLimited, ErrRateLimited.Error(), nil, err)
	default:
		return newFault(KindInternal, "internal error", nil, err)
	}
}

// Classify maps any error returned by the pipeline onto the taxonomy.
// Already-classified faults pass through unchanged.
func Classify(err error) *Fault {
	return classify(err)
}

// WriteFault writes the fault envelope to w. RATE_LIMITED faults also set
// the X-RateLimit-* response headers from their details.
func WriteFault(w http.ResponseWriter, f *Fault) {
	if f == nil {
		f = newFault(KindInternal, "internal error", nil, nil)
	}

	if rl, ok := f.Details.(RateLimitDetails); ok {
		setRateLimitHeaders(w, rl.Limit, rl.Remaining, rl.ResetAt)
	}

	writeJSON(w, f.Kind.HTTPStatus(), f.Envelope())
}

// WriteSuccess writes the success envelope {"message": ..., fields...} to w.
func WriteSuccess(w http.ResponseWriter, status int, message string, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["message"] = message

	writeJSON(w, status, body)
}

func setRateLimitHeaders(w http.ResponseWriter, limit, remaining int, resetAt time.Time) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
