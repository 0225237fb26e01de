package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Counter increments a windowed counter and reports the post-increment value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	rdb *goredis.Client
}

func (c redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type RateLimiter interface {
	// Allow reports whether subject may make another request in the current
	// minute.
	Allow(ctx context.Context, subject string) (bool, error)
}

type rateLimiter struct {
	counter Counter
	limit   int64
	now     func() time.Time
}

// NewRateLimiter limits each subject to perMinute requests per wall-clock
// minute. A nil rdb or a non-positive limit allows everything.
func NewRateLimiter(rdb *goredis.Client, perMinute int) RateLimiter {
	var counter Counter
	if rdb != nil {
		counter = redisCounter{rdb: rdb}
	}
	return NewRateLimiterWithCounter(counter, perMinute, time.Now)
}

func NewRateLimiterWithCounter(counter Counter, perMinute int, now func() time.Time) RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &rateLimiter{counter: counter, limit: int64(perMinute), now: now}
}

func RateLimitKey(subject string, at time.Time) string {
	return fmt.Sprintf("ai:rl:%s:%d", subject, at.Unix()/60)
}

func (l *rateLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	if l.counter == nil || l.limit <= 0 {
		return true, nil
	}
	n, err := l.counter.Incr(ctx, RateLimitKey(subject, l.now()), time.Minute)
	if err != nil {
		return true, err
	}
	return n <= l.limit, nil
}
