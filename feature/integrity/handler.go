package integrity

import (
	"drive-cache/core/logger"
	"drive-cache/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes. They span every tenant,
// so only a whole-cache key may call them.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity", requireWholeCache)
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/cache", h.HandleCacheCheck)
	group.Get("/schema", h.HandleSchemaCheck)
}

func requireWholeCache(c *fiber.Ctx) error {
	if auth.Scope(c) != "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	return c.Next()
}

// HandleIntegrityCheck runs every check.
// @Summary Run All Integrity Checks
// @Description Checks the cache against the manifest and the state schema. With fix=true the cache is repaired.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Repair the cache"
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := make(map[string]interface{})
	report["cache"] = h.cacheReport(c, l)

	if srvReport, err := h.service.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = srvReport
	}

	return c.JSON(report)
}

// HandleCacheCheck checks and optionally repairs the cache.
// @Summary Check Cache
// @Description Lists missing files, hash mismatches and orphans. With fix=true orphans are deleted and damaged items refetched.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Repair the cache"
// @Success 200 {object} map[string]interface{} "Cache Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/cache [get]
func (h *Handler) HandleCacheCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	result := h.cacheReport(c, l)
	if result["status"] == "error" {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return c.JSON(result)
}

func (h *Handler) cacheReport(c *fiber.Ctx, l *zap.Logger) fiber.Map {
	fix := c.Query("fix") == "true"

	plan, err := h.service.PlanRepair(c.Context())
	if err != nil {
		l.Error("Cache check failed", zap.Error(err))
		return fiber.Map{"status": "error", "error": err.Error()}
	}

	if len(plan.Actions) == 0 || !fix {
		if len(plan.Actions) > 0 {
			l.Warn("Cache inconsistencies detected",
				zap.Int("missing", plan.Summary.Missing),
				zap.Int("mismatched", plan.Summary.Mismatched),
				zap.Int("orphans", plan.Summary.Orphans))
		}
		return fiber.Map{"status": "checked", "report": plan.Report, "summary": plan.Summary}
	}

	l.Info("Attempting to repair cache", zap.Int("actions", len(plan.Actions)))
	executed, err := h.service.Repair(c.Context(), plan, Options{Confirmed: true})
	if err != nil {
		return fiber.Map{
			"status":   "error",
			"error":    "Failed to repair cache",
			"details":  err.Error(),
			"executed": executed,
			"actions":  plan.Actions,
		}
	}
	return fiber.Map{"status": "fixed", "fixed": plan.Actions, "summary": plan.Summary}
}

// HandleSchemaCheck checks the state schema.
// @Summary Check State Schema
// @Description Checks that the state tables carry every expected column.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
