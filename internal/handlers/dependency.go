package handlers

import (
	"log"
	"strings"

	"ganttboard/internal/middleware"
	"ganttboard/internal/models"
	"ganttboard/internal/services"
	"ganttboard/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// DependencyHandler serves task dependency endpoints
type DependencyHandler struct {
	deps     *services.DependencyService
	projects *services.ProjectService
}

// NewDependencyHandler creates a new dependency handler
func NewDependencyHandler(deps *services.DependencyService, projects *services.ProjectService) *DependencyHandler {
	return &DependencyHandler{deps: deps, projects: projects}
}

// List returns the dependency edges of a project
// GET /api/projects/:id/dependencies
func (h *DependencyHandler) List(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	projectID := c.Params("id")

	ok, err := h.projects.BelongsToOrg(c.Context(), projectID, orgID)
	if err != nil {
		log.Printf("❌ Failed to check project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dependencies",
		})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	deps, err := h.deps.ListByProject(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ Failed to list dependencies: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dependencies",
		})
	}

	return c.JSON(fiber.Map{"data": deps})
}

// Create declares a dependency between two tasks of one project
// POST /api/tasks/:id/dependencies
func (h *DependencyHandler) Create(c *fiber.Ctx) error {
	var input models.DependencyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if errs := validate.Struct(&input); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": errs,
		})
	}

	dep, err := h.deps.Create(c.Context(), c.Params("id"), middleware.GetOrgID(c), &input)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "not found"):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		case strings.Contains(err.Error(), "cycle"),
			strings.Contains(err.Error(), "itself"),
			strings.Contains(err.Error(), "one project"),
			strings.Contains(err.Error(), "already exists"):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to create dependency: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create dependency",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dep})
}

// Delete removes a dependency edge
// DELETE /api/dependencies/:id
func (h *DependencyHandler) Delete(c *fiber.Ctx) error {
	if err := h.deps.Delete(c.Context(), c.Params("id"), middleware.GetOrgID(c)); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Dependency not found",
			})
		}
		log.Printf("❌ Failed to delete dependency: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete dependency",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
