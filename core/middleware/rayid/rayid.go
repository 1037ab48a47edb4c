package rayid

import (
	"drive-cache/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the request id on responses.
const Header = "X-Ray-ID"

// New tags every request with a fresh id, stored in Locals for
// logger.WithRayID and echoed in the response header.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := uuid.NewString()
		c.Locals(logger.RayIDKey, rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
