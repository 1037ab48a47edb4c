package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ScopeKey is the fiber Locals key holding the authenticated scope.
const ScopeKey = "scope"

// Config holds the accepted keys.
type Config struct {
	// Keys maps an API key to the scope it grants.
	Keys map[string]string
}

// New rejects requests without a known key. The key is read from an
// "Authorization: Bearer" header or the "key" query parameter, the latter
// for EventSource clients that cannot set headers.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := extractKey(c)
		if key == "" {
			return unauthorized(c)
		}
		scope, ok := lookup(cfg.Keys, key)
		if !ok {
			return unauthorized(c)
		}
		c.Locals(ScopeKey, scope)
		return c.Next()
	}
}

// Scope returns the scope granted to the current request.
func Scope(c *fiber.Ctx) string {
	scope, _ := c.Locals(ScopeKey).(string)
	return scope
}

func extractKey(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Query("key")
}

func lookup(keys map[string]string, key string) (string, bool) {
	for k, scope := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return scope, true
		}
	}
	return "", false
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}
