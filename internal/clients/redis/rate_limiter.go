package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/focusforge/focusforge-backend/internal/logger"
)

// RateLimiter counts activity submissions per user over a trailing window.
// It is an optional capability: the validator only enforces the submission
// rate limit when a store was configured at startup. Counters are INCR with
// a TTL, slightly permissive under races, which is acceptable for an
// anti-abuse heuristic.
type RateLimiter interface {
	// Record increments the user's counter and reports whether this
	// submission is still inside the allowed budget.
	Record(ctx context.Context, userID string) (allowed bool, err error)
	Close() error
}

type rateLimiter struct {
	log       *logger.Logger
	rdb       *goredis.Client
	keyPrefix string
	window    time.Duration
	maxPerWin int64
}

// NewRateLimiter connects to redis using REDIS_ADDR. Returns an error when
// the variable is unset so the caller can run without the capability.
func NewRateLimiter(log *logger.Logger, maxPerWindow int, window time.Duration) (RateLimiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &rateLimiter{
		log:       log.With("service", "RedisRateLimiter"),
		rdb:       rdb,
		keyPrefix: "rate_limit:",
		window:    window,
		maxPerWin: int64(maxPerWindow),
	}, nil
}

func (l *rateLimiter) Record(ctx context.Context, userID string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, fmt.Errorf("rate limiter not initialized")
	}

	key := l.keyPrefix + userID
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		// First hit in the window opens it.
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Warn("failed to set rate limit TTL", "error", err)
		}
	}
	return count <= l.maxPerWin, nil
}

func (l *rateLimiter) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
