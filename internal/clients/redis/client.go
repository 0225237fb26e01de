package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

// NewClient connects to REDIS_ADDR. It returns (nil, nil) when no address is
// configured; callers treat a nil client as "caching and rate limiting off".
func NewClient(ctx context.Context, log *logger.Logger) (*goredis.Client, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		if log != nil {
			log.Info("REDIS_ADDR not set; AI cache and rate limit disabled")
		}
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("Connected to redis", "addr", addr)
	}
	return rdb, nil
}
