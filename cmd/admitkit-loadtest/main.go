// Command admitkit-loadtest measures pipeline throughput for the two hot
// paths: login (Argon2id verification plus token issue) and refresh
// (token verification plus reissue). It runs against miniredis by default
// so no external Redis is required.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/admitkit/admitkit"
)

func main() {
	var (
		users       = flag.Int("users", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (login + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := admitkit.DefaultConfig()
	cfg.Token.Secret = []byte("loadtest-secret-0123456789abcdefgh")
	// Windows wide enough that the limiter never rejects the benchmark
	// itself; the INCR round-trip stays on the measured path.
	cfg.RateLimit.Auth = admitkit.RatePolicy{Limit: 10 * *ops, Window: time.Hour}
	cfg.RateLimit.General = admitkit.RatePolicy{Limit: 10 * *ops, Window: time.Hour}
	cfg.RateLimit.Sensitive = admitkit.RatePolicy{Limit: 10 * *ops, Window: time.Hour}
	// Floor-cost Argon2id so the benchmark measures the pipeline, not the
	// memory-hard function.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	pipeline, err := admitkit.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(newLoadStore()).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline build: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	fmt.Printf("seeding %d accounts...\n", *users)
	startSeed := time.Now()
	emails := make([]string, *users)
	tokens := make([]string, *users)
	for i := 0; i < *users; i++ {
		email := fmt.Sprintf("load-%d@example.com", i)
		if _, err := pipeline.Register(ctx, admitkit.RegisterInput{
			Email:     email,
			Password:  "Load1234test",
			FirstName: "Load",
			LastName:  "Test",
		}); err != nil {
			fmt.Fprintf(os.Stderr, "seed register failed: %v\n", err)
			os.Exit(1)
		}
		emails[i] = email
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		idx := r.Intn(len(emails))
		_, err := pipeline.Login(ctx, admitkit.LoginInput{
			Email:    emails[idx],
			Password: "Load1234test",
		})
		return err
	})

	// Seed one token per slot for the refresh phase.
	for i, email := range emails {
		result, err := pipeline.Login(ctx, admitkit.LoginInput{Email: email, Password: "Load1234test"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "token backfill failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = result.Token
	}

	var tokenMu sync.Mutex
	refreshStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		tokenMu.Lock()
		idx := r.Intn(len(tokens))
		raw := tokens[idx]
		tokenMu.Unlock()

		result, err := pipeline.Refresh(ctx, raw)
		if err == nil {
			tokenMu.Lock()
			tokens[idx] = result.Token
			tokenMu.Unlock()
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("refresh", refreshStats)
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// loadStore is a minimal in-memory UserStore for the benchmark.
type loadStore struct {
	mu      sync.RWMutex
	byID    map[string]admitkit.UserRecord
	byEmail map[string]string
}

func newLoadStore() *loadStore {
	return &loadStore{
		byID:    make(map[string]admitkit.UserRecord),
		byEmail: make(map[string]string),
	}
}

func (s *loadStore) FindByEmail(_ context.Context, email string) (admitkit.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return admitkit.UserRecord{}, admitkit.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *loadStore) FindByID(_ context.Context, userID string) (admitkit.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[userID]
	if !ok {
		return admitkit.UserRecord{}, admitkit.ErrUserNotFound
	}
	return record, nil
}

func (s *loadStore) Create(_ context.Context, input admitkit.CreateUserInput) (admitkit.UserRecord, error) {
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

func (s *loadStore) UpdateByID(_ context.Context, userID string, patch admitkit.UserPatch) (admitkit.UserRecord, error) {
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
