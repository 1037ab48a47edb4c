package health

import (
	"github.com/gofiber/fiber/v2"
)

// Handler handles health requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the health route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
}

// HandleHealth reports liveness.
// @Summary Health Check
// @Description Public. Returns the manifest version, connected stream clients and uptime in seconds.
// @Tags health
// @Produce json
// @Success 200 {object} Status "Healthy"
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.JSON(h.service.Status())
}
