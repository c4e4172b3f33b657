package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "X-API-Key"

// apiKeyExempt lists path prefixes that never require a key: probes,
// metrics and docs.
var apiKeyExempt = []string{
	"/healthz",
	"/metrics",
	"/swagger",
	"/api/v1/health",
	"/api/v1/ready",
	"/api/v1/live",
}

// APIKey enforces X-API-Key when a key is configured. An empty configured
// key disables the check entirely.
func APIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		for _, prefix := range apiKeyExempt {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		provided := c.Get(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing API key")
		}
		return c.Next()
	}
}
