package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"vlocr/internal/cache"
	"vlocr/internal/config"
)

// RateLimit applies a fixed-window per-caller limit backed by Redis.
// Callers are identified by API key when present, by client IP otherwise.
// Every response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset; a blocked request also gets Retry-After.
func RateLimit(c *cache.Client, cfg config.RateLimitConfig) fiber.Handler {
	window := time.Duration(cfg.WindowSec) * time.Second

	return func(ctx *fiber.Ctx) error {
		if c == nil || cfg.Requests <= 0 {
			return ctx.Next()
		}
		// Probes and metrics are never throttled.
		switch ctx.Path() {
		case "/healthz", "/metrics", "/api/v1/health", "/api/v1/ready", "/api/v1/live":
			return ctx.Next()
		}

		identity := ctx.Get(APIKeyHeader)
		if identity == "" {
			identity = ctx.IP()
		}

		res, err := c.Allow(ctx.UserContext(), identity, cfg.Requests, window)
		if err != nil {
			// Fail open: Redis trouble should not block traffic.
			log.Printf(`{"component":"middleware","event":"rate_limit_check_failed","error":%q}`, err.Error())
			return ctx.Next()
		}

		ctx.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		ctx.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		ctx.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))

		if !res.Allowed {
			ctx.Set("Retry-After", strconv.Itoa(res.RetryAfter))
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return ctx.Next()
	}
}
