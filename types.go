package admitkit

import (
	"context"
	"io"
	"time"

	"github.com/admitkit/admitkit/internal/audit"
	"github.com/admitkit/admitkit/internal/rate"
)

// UserRecord is the full account record exchanged with a [UserStore].
// PasswordHash is a PHC-encoded Argon2id string and never leaves the
// pipeline in responses.
type UserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserInput is the input for [UserStore.Create]. Email is already
// normalized and the password already hashed when the store sees it.
type CreateUserInput struct {
	UserID       string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	CreatedAt    time.Time
}

// UserPatch carries the mutable profile fields for [UserStore.UpdateByID].
// Nil fields are left untouched.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	UpdatedAt time.Time
}

// UserStore is the interface callers implement to integrate the pipeline
// with their account database. Implementations must enforce email
// uniqueness on Create and on email-changing updates, returning
// [ErrDuplicateEmail] on conflict and [ErrUserNotFound] for missing rows.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByID(ctx context.Context, userID string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdateByID(ctx context.Context, userID string, patch UserPatch) (UserRecord, error)
}

// RegisterInput is the raw request body for [Pipeline.Register]. Values
// arrive untrimmed and unvalidated.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterResult is returned by [Pipeline.Register]. Token is empty unless
// auto-login is enabled.
type RegisterResult struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	Token     string
	ExpiresAt time.Time
}

// LoginInput is the raw request body for [Pipeline.Login].
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is returned by [Pipeline.Login] and [Pipeline.Refresh].
type LoginResult struct {
	UserID    string
	Email     string
	Role      string
	Token     string
	ExpiresAt time.Time
}

// ProfileResult is the sanitized account view returned by
// [Pipeline.Profile] and [Pipeline.UpdateProfile]. It never carries the
// password hash.
type ProfileResult struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateProfileInput is the raw request body for [Pipeline.UpdateProfile].
// Empty strings mean "leave unchanged".
type UpdateProfileInput struct {
	Email     string
	FirstName string
	LastName  string
}

// Identity is the verified caller extracted from a credential during the
// authenticate stage.
type Identity struct {
	SubjectID string
	Email     string
	Role      string
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// RatePolicy is a per-operation admission policy: at most Limit requests
// per fixed Window.
type RatePolicy = rate.Policy

// AuditEvent is a structured audit record emitted by the pipeline.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the pipeline's audit
// dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
