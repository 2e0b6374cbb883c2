package admitkit

import (
	"errors"
	"testing"
	"time"
)

func TestLoginIssuesCredential(t *testing.T) {
	p, _, clock := newTestPipeline(t, nil)
	account := registerUser(t, p, "alice@example.com")

	result, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    " ALICE@example.com ",
		Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.UserID != account.UserID {
		t.Fatalf("user = %q, want %q", result.UserID, account.UserID)
	}
	if result.Email != "alice@example.com" {
		t.Fatalf("email = %q", result.Email)
	}
	if result.Role != RoleMember {
		t.Fatalf("role = %q", result.Role)
	}
	if want := clock.Now().Add(time.Hour); !result.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", result.ExpiresAt, want)
	}

	identity, err := p.Authenticate(result.Token)
	if err != nil {
		t.Fatalf("issued credential rejected: %v", err)
	}
	if identity.SubjectID != account.UserID || identity.Role != RoleMember {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	registerUser(t, p, "alice@example.com")

	_, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "WrongSecret1",
	})

	mustKind(t, err, KindAuthentication)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownAccountIndistinguishable(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	registerUser(t, p, "alice@example.com")

	_, wrongPassword := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "WrongSecret1",
	})
	_, unknownAccount := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "nobody@example.com",
		Password: "WrongSecret1",
	})

	a := mustKind(t, wrongPassword, KindAuthentication)
	b := mustKind(t, unknownAccount, KindAuthentication)
	if a.Message != b.Message {
		t.Fatalf("messages differ: %q vs %q", a.Message, b.Message)
	}
	if !errors.Is(unknownAccount, ErrInvalidCredentials) {
		t.Fatalf("unknown account must map to ErrInvalidCredentials, got %v", unknownAccount)
	}
}

func TestLoginValidation(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	_, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{})

	f := mustKind(t, err, KindValidation)
	fields, ok := f.Details.(FieldErrors)
	if !ok {
		t.Fatalf("details = %T, want FieldErrors", f.Details)
	}
	if len(fields["email"]) == 0 || len(fields["password"]) == 0 {
		t.Fatalf("expected required violations, got %v", fields)
	}
}

func TestLoginRateLimited(t *testing.T) {
	p, _, _ := newTestPipeline(t, func(cfg *Config) {
		cfg.RateLimit.Auth = RatePolicy{Limit: 2, Window: 15 * time.Minute}
	})
	registerUser(t, p, "alice@example.com")

	// Register and login windows are keyed per operation, so the register
	// above does not consume login budget.
	for i := 0; i < 2; i++ {
		if _, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
			Email:    "alice@example.com",
			Password: "Sup3rSecret",
		}); err != nil {
			t.Fatalf("login %d failed: %v", i+1, err)
		}
	}

	_, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	mustKind(t, err, KindRateLimited)
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	store := newTestStore()
	clock := newFakeClock()

	weakCfg := testConfig()
	weak, err := New().
		WithConfig(weakCfg).
		WithUserStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer weak.Close()

	account := registerUser(t, weak, "alice@example.com")
	oldHash := store.hashOf(t, account.UserID)

	strongCfg := testConfig()
	strongCfg.Password.Time = 2
	strong, err := New().
		WithConfig(strongCfg).
		WithUserStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer strong.Close()

	if _, err := strong.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if store.rehashCalls != 1 {
		t.Fatalf("rehashCalls = %d, want 1", store.rehashCalls)
	}
	newHash := store.hashOf(t, account.UserID)
	if newHash == oldHash {
		t.Fatal("expected hash to be upgraded on login")
	}

	// The upgraded hash still verifies.
	if _, err := strong.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	}); err != nil {
		t.Fatalf("login after upgrade failed: %v", err)
	}
	if store.rehashCalls != 1 {
		t.Fatalf("rehashCalls = %d after second login, want still 1", store.rehashCalls)
	}
}

func TestLoginUpgradeDisabled(t *testing.T) {
	store := newTestStore()
	clock := newFakeClock()

	weakCfg := testConfig()
	weak, err := New().
		WithConfig(weakCfg).
		WithUserStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer weak.Close()

	registerUser(t, weak, "alice@example.com")

	strongCfg := testConfig()
	strongCfg.Password.Time = 2
	strongCfg.Password.UpgradeOnLogin = false
	strong, err := New().
		WithConfig(strongCfg).
		WithUserStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer strong.Close()

	if _, err := strong.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if store.rehashCalls != 0 {
		t.Fatalf("rehashCalls = %d with upgrade disabled, want 0", store.rehashCalls)
	}
}

func TestRefreshReissuesCredential(t *testing.T) {
	p, store, clock := newTestPipeline(t, nil)
	account := registerUser(t, p, "alice@example.com")

	login, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	clock.Advance(30 * time.Minute)

	// A role change since issue is reflected in the fresh credential.
	store.setRole(t, account.UserID, RoleAdmin)

	refreshed, err := p.Refresh(ctxWithIP("198.51.100.7"), login.Token)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.UserID != account.UserID {
		t.Fatalf("user = %q, want %q", refreshed.UserID, account.UserID)
	}
	if refreshed.Role != RoleAdmin {
		t.Fatalf("role = %q, want refreshed role", refreshed.Role)
	}
	if want := clock.Now().Add(time.Hour); !refreshed.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want full lifetime from refresh", refreshed.ExpiresAt)
	}

	identity, err := p.Authenticate(refreshed.Token)
	if err != nil {
		t.Fatalf("refreshed credential rejected: %v", err)
	}
	if identity.Role != RoleAdmin {
		t.Fatalf("identity role = %q", identity.Role)
	}
}

func TestRefreshRejectsBadCredentials(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	_, err := p.Refresh(ctxWithIP("198.51.100.7"), "")
	mustKind(t, err, KindAuthentication)
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}

	_, err = p.Refresh(ctxWithIP("198.51.100.7"), "not.a.token")
	mustKind(t, err, KindAuthentication)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRefreshRejectsExpiredCredential(t *testing.T) {
	p, _, clock := newTestPipeline(t, nil)
	registerUser(t, p, "alice@example.com")

	login, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	clock.Advance(time.Hour + time.Second)

	_, err = p.Refresh(ctxWithIP("198.51.100.7"), login.Token)
	mustKind(t, err, KindAuthentication)
}

func TestRefreshDeletedAccount(t *testing.T) {
	p, store, _ := newTestPipeline(t, nil)
	account := registerUser(t, p, "alice@example.com")

	login, err := p.Login(ctxWithIP("198.51.100.7"), LoginInput{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.remove(t, account.UserID)

	_, err = p.Refresh(ctxWithIP("198.51.100.7"), login.Token)
	mustKind(t, err, KindAuthentication)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for deleted account, got %v", err)
	}
}
