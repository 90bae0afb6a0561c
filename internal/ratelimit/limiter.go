// Package ratelimit enforces named request budgets over fixed windows.
// Counters live in Redis so every instance shares the same buckets; the
// atomic INCR plus a TTL-based window reset avoids lost updates under
// concurrent requests for the same key.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Policy names a throttling configuration applied to a class of routes.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Result reports the outcome of one budget check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter tracks per-(policy, key) buckets in Redis.
type Limiter struct {
	client *redis.Client
}

// NewLimiter constructs a Limiter on the given Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Check consumes one unit of the (policy, key) budget. The first request of
// a window creates the bucket with the window's TTL; the bucket expiring is
// the deterministic window reset, so a request arriving at the boundary is
// attributed to the new window. The result never depends on whether the key
// names a real principal.
func (l *Limiter) Check(ctx context.Context, p Policy, key string) (Result, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%s", p.Name, key)

	count, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("ratelimit: incr %s: %w", p.Name, err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, bucket, p.Window).Err(); err != nil {
			return Result{Allowed: true}, fmt.Errorf("ratelimit: expire %s: %w", p.Name, err)
		}
	}

	if count > int64(p.Limit) {
		retryAfter, err := l.client.PTTL(ctx, bucket).Result()
		if err != nil || retryAfter <= 0 {
			// Bucket without TTL (e.g. a crashed PEXPIRE); re-arm the window
			// rather than locking the key out forever.
			_ = l.client.PExpire(ctx, bucket, p.Window).Err()
			retryAfter = p.Window
		}
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Result{Allowed: true, Remaining: p.Limit - int(count)}, nil
}
