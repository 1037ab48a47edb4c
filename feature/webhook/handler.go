package webhook

import (
	"drive-cache/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Push notification headers.
const (
	HeaderChannelID     = "X-Goog-Channel-ID"
	HeaderChannelToken  = "X-Goog-Channel-Token"
	HeaderResourceState = "X-Goog-Resource-State"
	HeaderMessageNumber = "X-Goog-Message-Number"
)

// Handler handles push notification intake.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the webhook route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/webhook")
	group.Post("/drive", h.HandleDrive)
}

// HandleDrive accepts a Drive push notification.
// @Summary Drive Push Notification
// @Description Called by Google Drive. Notifications are matched against the active channel id and token; a "change" state queues an incremental sync.
// @Tags webhook
// @Success 200 {string} string "Accepted"
// @Failure 403 {object} map[string]string "Unknown channel"
// @Router /webhook/drive [post]
func (h *Handler) HandleDrive(c *fiber.Ctx) error {
	n := Notification{
		ChannelID: c.Get(HeaderChannelID),
		Token:     c.Get(HeaderChannelToken),
		State:     c.Get(HeaderResourceState),
		MessageID: c.Get(HeaderMessageNumber),
	}
	l := logger.WithRayID(h.service.logger, c).With(
		zap.String("channel", n.ChannelID),
		zap.String("state", n.State),
		zap.String("message", n.MessageID))

	if !h.service.Handle(n) {
		l.Warn("Rejected push notification from unknown channel")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	l.Debug("Push notification accepted")
	return c.SendStatus(fiber.StatusOK)
}
