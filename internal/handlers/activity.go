package handlers

import (
	"log"
	"strconv"

	"ganttboard/internal/middleware"
	"ganttboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ActivityHandler serves the audit feed. When MongoDB is not configured
// the feed endpoints return empty lists rather than errors.
type ActivityHandler struct {
	activities *services.ActivityService
	projects   *services.ProjectService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activities *services.ActivityService, projects *services.ProjectService) *ActivityHandler {
	return &ActivityHandler{activities: activities, projects: projects}
}

func feedLimit(c *fiber.Ctx) int64 {
	limit, err := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	if err != nil {
		return 50
	}
	return limit
}

// OrgFeed returns the organization's newest activities
// GET /api/activities
func (h *ActivityHandler) OrgFeed(c *fiber.Ctx) error {
	activities, err := h.activities.ListByOrg(c.Context(), middleware.GetOrgID(c), feedLimit(c))
	if err != nil {
		log.Printf("❌ Failed to list activities: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load activity feed",
		})
	}
	return c.JSON(fiber.Map{"data": activities})
}

// ProjectFeed returns one project's newest activities
// GET /api/projects/:id/activities
func (h *ActivityHandler) ProjectFeed(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	projectID := c.Params("id")

	ok, err := h.projects.BelongsToOrg(c.Context(), projectID, orgID)
	if err != nil {
		log.Printf("❌ Failed to check project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load activity feed",
		})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	activities, err := h.activities.ListByProject(c.Context(), orgID, projectID, feedLimit(c))
	if err != nil {
		log.Printf("❌ Failed to list activities: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load activity feed",
		})
	}
	return c.JSON(fiber.Map{"data": activities})
}
