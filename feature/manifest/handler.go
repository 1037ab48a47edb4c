package manifest

import (
	"drive-cache/core/logger"
	"drive-cache/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for the manifest.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the manifest routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/manifest")
	group.Get("/", h.HandleGetManifest)
	group.Get("/version", h.HandleGetVersion)
}

// HandleGetManifest returns the manifest scoped to the caller's key.
// @Summary Get Manifest
// @Description Returns the current version and every asset visible to the key, with paths relative to its scope.
// @Tags manifest
// @Produce json
// @Success 200 {object} manifest.Snapshot "Manifest"
// @Router /manifest [get]
func (h *Handler) HandleGetManifest(c *fiber.Ctx) error {
	snap, drift := h.service.Get(auth.Scope(c))
	if drift {
		logger.WithRayID(h.service.logger, c).Debug("Manifest read started a drift check")
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.JSON(snap)
}

// HandleGetVersion returns only the version, for cheap polling.
// @Summary Get Manifest Version
// @Tags manifest
// @Produce json
// @Success 200 {object} map[string]int64 "Version"
// @Router /manifest/version [get]
func (h *Handler) HandleGetVersion(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.JSON(fiber.Map{"version": h.service.Version()})
}
