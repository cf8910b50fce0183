package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leminkozey/whoami/internal/core/domain"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{
		DefaultRule: domain.RateLimitRule{Requests: 5, Window: time.Minute},
	})

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := service.Allow(ctx, domain.RateLimitRequest{Scope: "guestbook", Identity: "abc"})
		require.NoError(t, err, "attempt %d", i+1)
		assert.True(t, decision.Allowed, "attempt %d", i+1)
		assert.EqualValues(t, i+1, decision.CurrentCount)
	}
}

func TestRateLimiter_RejectsSixthInWindow(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{
		DefaultRule: domain.RateLimitRule{Requests: 5, Window: time.Minute},
	})

	ctx := context.Background()
	req := domain.RateLimitRequest{Scope: "guestbook", Identity: "abc"}

	for i := 0; i < 5; i++ {
		_, err := service.Allow(ctx, req)
		require.NoError(t, err)
	}

	decision, err := service.Allow(ctx, req)
	assert.True(t, domain.IsBlockedError(err), "expected blocked error, got %v", err)
	assert.False(t, decision.Allowed)

	// Without a block duration nothing else is recorded.
	assert.Empty(t, storage.blocks)
}

func TestRateLimiter_AllowsAgainAfterWindowReset(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{
		DefaultRule: domain.RateLimitRule{Requests: 5, Window: time.Minute},
	})

	ctx := context.Background()
	req := domain.RateLimitRequest{Scope: "guestbook", Identity: "abc"}

	for i := 0; i < 6; i++ {
		_, _ = service.Allow(ctx, req)
	}

	storage.expireAll()

	decision, err := service.Allow(ctx, req)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRateLimiter_BlockDurationShortCircuits(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{
		DefaultRule: domain.RateLimitRule{Requests: 1, Window: time.Second, BlockDuration: time.Minute},
	})

	ctx := context.Background()
	req := domain.RateLimitRequest{Identity: "10.0.0.1"}

	_, err := service.Allow(ctx, req)
	require.NoError(t, err)

	_, err = service.Allow(ctx, req)
	require.True(t, domain.IsBlockedError(err))

	storage.expireAll()

	// Counter reset does not lift the block.
	_, err = service.Allow(ctx, req)
	assert.True(t, domain.IsBlockedError(err))
}

func TestRateLimiter_ScopesAreIndependent(t *testing.T) {
	storage := newMockStorage()
	service := newTestLimiter(t, storage, Config{
		DefaultRule: domain.RateLimitRule{Requests: 1, Window: time.Minute},
		ScopeRules: map[string]domain.RateLimitRule{
			"guestbook": {Requests: 2, Window: time.Minute},
		},
	})

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := service.Allow(ctx, domain.RateLimitRequest{Scope: "guestbook", Identity: "abc"})
		require.NoError(t, err)
		assert.Equal(t, 2, decision.AppliedRule.Requests)
	}

	decision, err := service.Allow(ctx, domain.RateLimitRequest{Scope: "other", Identity: "abc"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.AppliedRule.Requests)
}

func TestRateLimiter_RequiresIdentity(t *testing.T) {
	service := newTestLimiter(t, newMockStorage(), Config{
		DefaultRule: domain.RateLimitRule{Requests: 1, Window: time.Minute},
	})

	_, err := service.Allow(context.Background(), domain.RateLimitRequest{Scope: "guestbook"})
	require.Error(t, err)
	assert.False(t, domain.IsBlockedError(err))
}

func TestNewRateLimiterService_Validation(t *testing.T) {
	_, err := NewRateLimiterService(nil, Config{DefaultRule: domain.RateLimitRule{Requests: 1, Window: time.Second}})
	assert.Error(t, err)

	_, err = NewRateLimiterService(newMockStorage(), Config{})
	assert.Error(t, err)

	_, err = NewRateLimiterService(newMockStorage(), Config{
		DefaultRule: domain.RateLimitRule{Requests: 1, Window: time.Second},
		ScopeRules:  map[string]domain.RateLimitRule{"guestbook": {}},
	})
	assert.Error(t, err)
}

// newTestLimiter is a helper that fails the test immediately if creation fails.
func newTestLimiter(t *testing.T, storage *mockStorage, cfg Config) *RateLimiterService {
	t.Helper()
	service, err := NewRateLimiterService(storage, cfg)
	require.NoError(t, err, "failed to create rate limiter service")
	return service
}

type mockStorage struct {
	counts map[string]int64
	blocks map[string]time.Time
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		counts: make(map[string]int64),
		blocks: make(map[string]time.Time),
	}
}

func (m *mockStorage) expireAll() {
	m.counts = make(map[string]int64)
}

func (m *mockStorage) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mockStorage) IsBlocked(_ context.Context, key string) (bool, error) {
	expiration, ok := m.blocks[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(m.blocks, key)
		return false, nil
	}
	return true, nil
}

func (m *mockStorage) SetBlock(_ context.Context, key string, duration time.Duration) error {
	if duration <= 0 {
		delete(m.blocks, key)
		return nil
	}
	m.blocks[key] = time.Now().Add(duration)
	return nil
}
