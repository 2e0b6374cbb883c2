package admitkit

import (
	"context"
	"sync"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testStore is the in-memory UserStore used across pipeline tests. It also
// implements PasswordRehashStore and counts mutating calls.
type testStore struct {
	mu          sync.RWMutex
	byID        map[string]UserRecord
	byEmail     map[string]string
	updateCalls int
	rehashCalls int
}

func newTestStore() *testStore {
	return &testStore{
		byID:    make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (s *testStore) FindByEmail(_ context.Context, email string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *testStore) FindByID(_ context.Context, userID string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return record, nil
}

func (s *testStore) Create(_ context.Context, input CreateUserInput) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[input.Email]; exists {
		return UserRecord{}, ErrDuplicateEmail
	}

	record := UserRecord{
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

func (s *testStore) UpdateByID(_ context.Context, userID string, patch UserPatch) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateCalls++

	record, ok := s.byID[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}

	if patch.Email != nil && *patch.Email != record.Email {
		if _, exists := s.byEmail[*patch.Email]; exists {
			return UserRecord{}, ErrDuplicateEmail
		}
		delete(s.byEmail, record.Email)
		record.Email = *patch.Email
		s.byEmail[record.Email] = userID
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

func (s *testStore) UpdatePasswordHash(_ context.Context, userID string, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rehashCalls++

	record, ok := s.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	record.PasswordHash = newHash
	s.byID[userID] = record
	return nil
}

func (s *testStore) hashOf(t *testing.T, userID string) string {
	t.Helper()

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[userID]
	if !ok {
		t.Fatalf("user %s not in store", userID)
	}
	return record.PasswordHash
}

func (s *testStore) setRole(t *testing.T, userID, role string) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[userID]
	if !ok {
		t.Fatalf("user %s not in store", userID)
	}
	record.Role = role
	s.byID[userID] = record
}

func (s *testStore) remove(t *testing.T, userID string) {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[userID]
	if !ok {
		t.Fatalf("user %s not in store", userID)
	}
	delete(s.byEmail, record.Email)
	delete(s.byID, userID)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	// Floor-cost Argon2id keeps the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestPipeline(t *testing.T, mutate func(*Config)) (*Pipeline, *testStore, *fakeClock) {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store := newTestStore()
	clock := newFakeClock()

	pipeline, err := New().
		WithConfig(cfg).
		WithUserStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(pipeline.Close)

	return pipeline, store, clock
}

func ctxWithIP(ip string) context.Context {
	return WithClientIP(context.Background(), ip)
}

func registerUser(t *testing.T, p *Pipeline, email string) RegisterResult {
	t.Helper()

	result, err := p.Register(ctxWithIP("198.51.100.7"), RegisterInput{
		Email:     email,
		Password:  "Sup3rSecret",
		FirstName: "Alice",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	return result
}

func mustKind(t *testing.T, err error, kind Kind) *Fault {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s fault, got nil", kind)
	}
	f, ok := AsFault(err)
	if !ok {
		t.Fatalf("expected fault, got %T: %v", err, err)
	}
	if f.Kind != kind {
		t.Fatalf("kind = %s, want %s (message %q)", f.Kind, kind, f.Message)
	}
	return f
}
