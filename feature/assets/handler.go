package assets

import (
	"errors"
	"net/url"
	"path"

	"drive-cache/core/logger"
	"drive-cache/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for cached files.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the asset download route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/assets", etag.New())
	group.Get("/*", h.HandleGetAsset)
}

// HandleGetAsset returns the cached bytes of one file.
// @Summary Download Asset
// @Description Path is relative to the key's scope. Responses carry an ETag and honour If-None-Match.
// @Tags assets
// @Produce octet-stream
// @Param path path string true "Asset path"
// @Success 200 {file} file "Asset"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /assets/{path} [get]
func (h *Handler) HandleGetAsset(c *fiber.Ctx) error {
	rel, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return notFound(c)
	}

	data, err := h.service.Read(c.UserContext(), auth.Scope(c), rel)
	if errors.Is(err, ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Failed to read asset", zap.String("path", rel), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if ext := path.Ext(rel); ext != "" {
		c.Type(ext[1:])
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(data)
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not Found"})
}
