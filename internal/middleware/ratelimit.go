package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what a limited route does when Redis is unreachable.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Limit allows Max requests per Window for each caller of the named action.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	Policy FailPolicy
}

// Per-action limits. Toggles are generous: the client already blocks a
// second toggle while one is in flight.
var (
	LimitRegister = Limit{Name: "register", Max: 5, Window: 10 * time.Minute, Policy: FailClosed}
	LimitLogin    = Limit{Name: "login", Max: 10, Window: 5 * time.Minute, Policy: FailClosed}
	LimitPost     = Limit{Name: "create_post", Max: 10, Window: time.Minute}
	LimitComment  = Limit{Name: "create_comment", Max: 30, Window: time.Minute}
	LimitToggle   = Limit{Name: "toggle", Max: 120, Window: time.Minute}
)

var rateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "network_rate_limit_rejections_total",
	Help: "Requests refused by a per-action rate limit",
}, []string{"action", "reason"})

var errNoRedis = errors.New("redis client is nil")

// hitScript increments the window counter; the first hit starts the window.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func limitsEnforced() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

// Allow counts one use of l by caller and reports whether it is within the
// window. Outside production-like environments it always allows.
func (l Limit) Allow(ctx context.Context, rdb *redis.Client, caller string) (bool, error) {
	if !limitsEnforced() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", l.Name, caller)
	n, err := hitScript.Run(ctx, rdb, []string{key}, l.Window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(l.Max), nil
}

// RateLimit enforces l per authenticated user, or per remote IP for
// anonymous callers.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid, ok := CurrentUserID(c); ok {
			caller = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := l.Allow(c.UserContext(), rdb, caller)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
				"action", l.Name, "error", err)
			if l.Policy == FailClosed {
				rateLimitRejections.WithLabelValues(l.Name, "store_unavailable").Inc()
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Service temporarily unavailable. Please try again.",
					"code":  "UNAVAILABLE",
				})
			}
			return c.Next()
		}
		if !allowed {
			rateLimitRejections.WithLabelValues(l.Name, "exceeded").Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please slow down.",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
