package handlers

import (
	"log"

	"ganttboard/internal/middleware"
	"ganttboard/internal/models"
	"ganttboard/internal/services"
	"ganttboard/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler serves the /api/projects endpoints
type ProjectHandler struct {
	projects   *services.ProjectService
	tasks      *services.TaskService
	deps       *services.DependencyService
	activities *services.ActivityService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *services.ProjectService, tasks *services.TaskService, deps *services.DependencyService, activities *services.ActivityService) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks, deps: deps, activities: activities}
}

// List returns the organization's projects with derived progress
// GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	summaries, err := h.projects.List(c.Context(), middleware.GetOrgID(c))
	if err != nil {
		log.Printf("❌ Failed to list projects: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load projects",
		})
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Get returns one project with its derived metrics
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	summary, err := h.projects.Summary(c.Context(), c.Params("id"), middleware.GetOrgID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Gantt returns everything a Gantt view needs in one round trip:
// the project, its ordered tasks, and the dependency edges.
// GET /api/projects/:id/gantt
func (h *ProjectHandler) Gantt(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	projectID := c.Params("id")

	project, err := h.projects.GetByID(c.Context(), projectID, orgID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	tasks, err := h.tasks.List(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ Failed to list tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load gantt data",
		})
	}

	deps, err := h.deps.ListByProject(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ Failed to list dependencies: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load gantt data",
		})
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"project":      project,
		"tasks":        tasks,
		"dependencies": deps,
	}})
}

// Create adds a project
// POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var input models.ProjectInput
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

	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)

	project, err := h.projects.Create(c.Context(), orgID, userID, &input)
	if err != nil {
		log.Printf("❌ Failed to create project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}

	h.activities.Record(c.Context(), orgID, userID, project.ID, "",
		models.ActionProjectCreated, map[string]interface{}{"name": project.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": project})
}

// Update replaces a project's editable fields
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var input models.ProjectInput
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

	orgID := middleware.GetOrgID(c)
	project, err := h.projects.Update(c.Context(), c.Params("id"), orgID, &input)
	if err != nil {
		if err.Error() == "project not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Project not found",
			})
		}
		log.Printf("❌ Failed to update project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update project",
		})
	}

	h.activities.Record(c.Context(), orgID, middleware.GetUserID(c), project.ID, "",
		models.ActionProjectUpdated, map[string]interface{}{"name": project.Name})

	return c.JSON(fiber.Map{"data": project})
}

// Delete removes a project and everything under it
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	projectID := c.Params("id")

	project, err := h.projects.GetByID(c.Context(), projectID, orgID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	if err := h.projects.Delete(c.Context(), projectID, orgID); err != nil {
		log.Printf("❌ Failed to delete project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete project",
		})
	}

	h.activities.Record(c.Context(), orgID, middleware.GetUserID(c), projectID, "",
		models.ActionProjectDeleted, map[string]interface{}{"name": project.Name})

	return c.JSON(fiber.Map{"success": true})
}
