// Package cache holds the shared Redis client and the cache-aside helpers
// used for profile views.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"network/internal/middleware"
	"network/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorHook counts failed commands; a cache miss is not a failure.
type errorHook struct{}

func (errorHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countError(cmd.Name(), err)
		return err
	}
}

func (errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countError("pipeline", err)
		return err
	}
}

func countError(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(op).Inc()
	}
}

// ParseAddr accepts host:port or a redis:// / rediss:// URL.
func ParseAddr(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect installs a client for addr and returns it. When Redis is
// unreachable it returns nil; every cache helper then degrades to a no-op.
func Connect(ctx context.Context, addr string) *redis.Client {
	opts, err := ParseAddr(addr)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "invalid REDIS_URL, continuing without cache", "error", err)
		SetClient(nil)
		return nil
	}

	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "redis unreachable, continuing without cache", "addr", opts.Addr, "error", err)
		_ = c.Close()
		SetClient(nil)
		return nil
	}

	middleware.Logger.InfoContext(ctx, "redis connected", "addr", opts.Addr)
	SetClient(c)
	return c
}

// SetClient installs an already connected client, or nil to disable caching.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorHook{})
	}
	client = c
}

func GetClient() *redis.Client {
	return client
}
