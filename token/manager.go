package token

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned by [Manager.Verify] for every rejected credential.
// Malformed, tampered, and expired tokens are deliberately indistinguishable.
var ErrInvalid = errors.New("invalid token")

const (
	bearerPrefix      = "Bearer "
	defaultCookieName = "account_session"
	maxLeeway         = 2 * time.Minute
	minSecretBytes    = 32
)

// Config holds the immutable signing parameters. Secret is process-wide
// configuration loaded once at startup.
type Config struct {
	Secret     []byte
	Lifetime   time.Duration
	Issuer     string
	Leeway     time.Duration
	CookieName string
	Now        func() time.Time
}

// Claims is the identity payload embedded in every issued credential. Email
// is an informational claim; trust decisions rest on the subject and role.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID returns the opaque identity handle the token was issued for.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// Manager signs and verifies credentials. It holds no mutable state beyond
// the configuration and is safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Lifetime <= 0 {
		return nil, errors.New("invalid token lifetime")
	}
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a new credential for the subject with issuedAt = now and
// expiresAt = now + lifetime. The returned Claims mirror what was embedded.
func (m *Manager) Issue(subjectID, email, role string) (string, *Claims, error) {
	now := m.config.Now()

	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.Lifetime)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// Verify decodes tokenStr, checks the signature against the secret, and
// checks expiry against the configured clock. Every failure yields
// [ErrInvalid] with no further distinction.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalid
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}

// FromRequest looks up the raw credential: Authorization Bearer header
// first, then the session cookie. Pure lookup, no side effects.
func (m *Manager) FromRequest(r *http.Request) (string, bool) {
	if raw, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return raw, true
	}

	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetCookie writes the session cookie carrying the credential. Max-age
// equals the token lifetime; HttpOnly and SameSite=Lax always, Secure when
// requested (production).
func (m *Manager) SetCookie(w http.ResponseWriter, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.config.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName reports the configured session cookie name.
func (m *Manager) CookieName() string {
	return m.config.CookieName
}

// Lifetime reports the configured token lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.config.Lifetime
}

func bearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}

	raw := value[len(bearerPrefix):]
	if raw == "" {
		return "", false
	}

	return raw, true
}
