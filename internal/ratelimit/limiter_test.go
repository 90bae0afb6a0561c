package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/ratelimit"
)

func newTestLimiter(t *testing.T) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.NewLimiter(client), mr
}

func TestLimiterFixedWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	policy := ratelimit.Policy{Name: "auth", Limit: 5, Window: 60 * time.Second}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, policy, "ip:10.0.0.1")
		require.NoError(t, err)
		require.True(t, result.Allowed, "request %d should be within budget", i+1)
		assert.Equal(t, 5-(i+1), result.Remaining)
	}

	result, err := limiter.Check(ctx, policy, "ip:10.0.0.1")
	require.NoError(t, err)
	require.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfter, policy.Window)

	// The bucket expiring is the window reset.
	mr.FastForward(policy.Window)
	result, err = limiter.Check(ctx, policy, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	policy := ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Minute}
	ctx := context.Background()

	first, err := limiter.Check(ctx, policy, "principal:1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := limiter.Check(ctx, policy, "principal:1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.Check(ctx, policy, "principal:2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestLimiterPoliciesAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	authPolicy := ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Minute}
	apiPolicy := ratelimit.Policy{Name: "api", Limit: 1, Window: time.Minute}

	_, err := limiter.Check(ctx, authPolicy, "ip:10.0.0.1")
	require.NoError(t, err)
	blocked, err := limiter.Check(ctx, authPolicy, "ip:10.0.0.1")
	require.NoError(t, err)
	require.False(t, blocked.Allowed)

	// Same key, different policy: separate budget.
	result, err := limiter.Check(ctx, apiPolicy, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := ratelimit.NewLimiter(client)
	mr.Close()

	result, err := limiter.Check(context.Background(), ratelimit.Policy{Name: "auth", Limit: 1, Window: time.Minute}, "ip:10.0.0.1")
	require.Error(t, err)
	assert.True(t, result.Allowed)
}

func TestRequestKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "ip:192.0.2.7", ratelimit.RequestKey(req))

	ctx := auth.ContextWithPrincipal(req.Context(), &auth.Principal{ID: 42})
	assert.Equal(t, "principal:42", ratelimit.RequestKey(req.WithContext(ctx)))
}

func TestLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	mw := ratelimit.Middleware{Limiter: limiter}
	policy := ratelimit.Policy{Name: "auth", Limit: 2, Window: 60 * time.Second}

	handler := mw.Limit(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:51234"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	require.Equal(t, http.StatusOK, do().Code)
	require.Equal(t, http.StatusOK, do().Code)

	res := do()
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	retryAfter := res.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter)
	assert.NotEqual(t, "0", retryAfter)
}
