package events

import (
	"bufio"

	"drive-cache/core/logger"
	"drive-cache/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles the SSE stream.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the event stream route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sse")
	group.Get("/events", h.HandleEvents)
}

// HandleEvents streams manifest updates for the caller's scope.
// @Summary Subscribe to Manifest Updates
// @Description Server-sent events. The first event is "connected"; "update" events carry the new version and the changes visible to the key.
// @Tags events
// @Produce text/event-stream
// @Success 200 {string} string "Event stream"
// @Router /sse/events [get]
func (h *Handler) HandleEvents(c *fiber.Ctx) error {
	scope := auth.Scope(c)
	l := logger.WithRayID(h.service.logger, c).With(zap.String("scope", scope))

	sub := h.service.broadcaster.Subscribe(scope)
	first := h.service.connected(scope)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		h.service.stream(w, sub, first, l)
	})
	return nil
}
