package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/observability"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const (
	cachePrefix = "ai:v1:"
	// computeTimeout bounds a shared compute once it is detached from the
	// caller that started it.
	computeTimeout = 3 * time.Minute
)

// Store is the byte store behind Cache. *goredis.Client satisfies it through
// redisStore; tests plug in a map.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type redisStore struct {
	rdb *goredis.Client
}

func (s redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

type Cache interface {
	// GetOrCompute returns the cached value for (kind, parts) or runs fn,
	// storing its result. Concurrent misses on the same key share one fn call.
	GetOrCompute(ctx context.Context, kind string, parts []string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error)
}

type cache struct {
	log   *logger.Logger
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewCache builds a cache over rdb. A nil rdb yields a pass-through cache.
func NewCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) Cache {
	var store Store
	if rdb != nil {
		store = redisStore{rdb: rdb}
	}
	return NewCacheWithStore(log, store, ttl)
}

func NewCacheWithStore(log *logger.Logger, store Store, ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &cache{store: store, ttl: ttl}
	if log != nil {
		c.log = log.With("client", "AICache")
	}
	return c
}

// CacheKey is ai:v1:<kind>:<sha256 of the NUL-joined parts>.
func CacheKey(kind string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return cachePrefix + kind + ":" + hex.EncodeToString(sum[:])
}

func (c *cache) GetOrCompute(ctx context.Context, kind string, parts []string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if c.store == nil {
		return fn(ctx)
	}
	key := CacheKey(kind, parts...)
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.warn("ai cache get failed", "key", key, "error", err)
	} else if ok {
		observability.Current().IncAICache(true)
		return raw, nil
	}
	observability.Current().IncAICache(false)

	// The shared call outlives any single waiter; each waiter stops on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		out, err := fn(shared)
		if err != nil {
			return nil, err
		}
		if setErr := c.store.Set(shared, key, out, c.ttl); setErr != nil {
			c.warn("ai cache set failed", "key", key, "error", setErr)
		}
		return out, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *cache) warn(msg string, kv ...any) {
	if c.log != nil {
		c.log.Warn(msg, kv...)
	}
}
