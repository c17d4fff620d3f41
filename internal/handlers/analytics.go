package handlers

import (
	"fmt"
	"log"
	"time"

	"ganttboard/internal/middleware"
	"ganttboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler serves the dashboard summary and the xlsx export
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	export    *services.ExportService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService, export *services.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, export: export}
}

// Summary returns the org dashboard numbers
// GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.analytics.Summary(c.Context(), middleware.GetOrgID(c))
	if err != nil {
		log.Printf("❌ Failed to compute analytics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Export streams the organization's projects and tasks as an xlsx file
// GET /api/analytics/export
func (h *AnalyticsHandler) Export(c *fiber.Ctx) error {
	workbook, err := h.export.Workbook(c.Context(), middleware.GetOrgID(c))
	if err != nil {
		log.Printf("❌ Failed to build export: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate export",
		})
	}

	filename := fmt.Sprintf("ganttboard-export-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(workbook)
}
