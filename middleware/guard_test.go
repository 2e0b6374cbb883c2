package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/admitkit/admitkit"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type memStore struct {
	mu      sync.RWMutex
	byID    map[string]admitkit.UserRecord
	byEmail map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		byID:    make(map[string]admitkit.UserRecord),
		byEmail: make(map[string]string),
	}
}

func (s *memStore) FindByEmail(_ context.Context, email string) (admitkit.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return admitkit.UserRecord{}, admitkit.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *memStore) FindByID(_ context.Context, userID string) (admitkit.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[userID]
	if !ok {
		return admitkit.UserRecord{}, admitkit.ErrUserNotFound
	}
	return record, nil
}

func (s *memStore) Create(_ context.Context, input admitkit.CreateUserInput) (admitkit.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[input.Email]; exists {
		return admitkit.UserRecord{}, admitkit.ErrDuplicateEmail
	}

	record := admitkit.UserRecord{
		UserID:       input.UserID,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		CreatedAt:    input.CreatedAt,
		UpdatedAt:    input.CreatedAt,
	}
	s.byID[record.UserID] = record
	s.byEmail[record.Email] = record.UserID

	return record, nil
}

func (s *memStore) UpdateByID(_ context.Context, userID string, patch admitkit.UserPatch) (admitkit.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[userID]
	if !ok {
		return admitkit.UserRecord{}, admitkit.ErrUserNotFound
	}
	if patch.Email != nil {
		record.Email = *patch.Email
	}
	if patch.FirstName != nil {
		record.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		record.LastName = *patch.LastName
	}
	record.UpdatedAt = patch.UpdatedAt
	s.byID[userID] = record
	return record, nil
}

func newGuardedPipeline(t *testing.T, role string) (*admitkit.Pipeline, string) {
	t.Helper()

	cfg := admitkit.DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Register.AutoLogin = true
	cfg.Register.DefaultRole = role

	pipeline, err := admitkit.New().
		WithConfig(cfg).
		WithUserStore(newMemStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(pipeline.Close)

	result, err := pipeline.Register(context.Background(), admitkit.RegisterInput{
		Email:     "alice@example.com",
		Password:  "Sup3rSecret",
		FirstName: "Alice",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	return pipeline, result.Token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) admitkit.Envelope {
	t.Helper()

	var envelope admitkit.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope failed: %v", err)
	}
	return envelope
}

func TestGuardInjectsIdentity(t *testing.T) {
	pipeline, token := newGuardedPipeline(t, admitkit.RoleMember)

	var seen admitkit.Identity
	handler := Guard(pipeline)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("identity missing from context")
		}
		seen = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if seen.Email != "alice@example.com" || seen.Role != admitkit.RoleMember {
		t.Fatalf("identity = %+v", seen)
	}
}

func TestGuardAcceptsSessionCookie(t *testing.T) {
	pipeline, token := newGuardedPipeline(t, admitkit.RoleMember)

	handler := Guard(pipeline)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: pipeline.Tokens().CookieName(), Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGuardRejectsMissingCredential(t *testing.T) {
	pipeline, _ := newGuardedPipeline(t, admitkit.RoleMember)

	handler := Guard(pipeline)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.Code != "AUTHENTICATION" {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestGuardRejectsForgedCredential(t *testing.T) {
	pipeline, token := newGuardedPipeline(t, admitkit.RoleMember)

	handler := Guard(pipeline)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token+"tampered")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardNilPipeline(t *testing.T) {
	handler := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	memberPipeline, memberToken := newGuardedPipeline(t, admitkit.RoleMember)
	adminPipeline, adminToken := newGuardedPipeline(t, admitkit.RoleAdmin)

	serve := func(p *admitkit.Pipeline, token string) *httptest.ResponseRecorder {
		handler := Guard(p)(RequireRole(admitkit.RoleAdmin)(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		)))

		req := httptest.NewRequest(http.MethodGet, "/admin/report", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := serve(adminPipeline, adminToken); rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}

	rec := serve(memberPipeline, memberToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member status = %d, want 403", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.Code != "AUTHORIZATION" {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestRequireRoleWithoutGuard(t *testing.T) {
	handler := RequireRole(admitkit.RoleAdmin)(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		},
	))

	req := httptest.NewRequest(http.MethodGet, "/admin/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGuardTokenLifetime(t *testing.T) {
	pipeline, token := newGuardedPipeline(t, admitkit.RoleMember)

	if got := pipeline.Tokens().Lifetime(); got != time.Hour {
		t.Fatalf("lifetime = %v", got)
	}
	if _, err := pipeline.Authenticate(token); err != nil {
		t.Fatalf("token rejected: %v", err)
	}
}
