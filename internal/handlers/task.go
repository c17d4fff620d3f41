package handlers

import (
	"log"

	"ganttboard/internal/middleware"
	"ganttboard/internal/models"
	"ganttboard/internal/services"
	"ganttboard/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler serves the /api/tasks endpoints. Successful responses are
// wrapped in {"data": ...}; deletes return {"success": true}.
type TaskHandler struct {
	tasks      *services.TaskService
	projects   *services.ProjectService
	activities *services.ActivityService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService, projects *services.ProjectService, activities *services.ActivityService) *TaskHandler {
	return &TaskHandler{tasks: tasks, projects: projects, activities: activities}
}

// List returns the tasks of one project ordered by order_index
// GET /api/tasks?project_id=...
func (h *TaskHandler) List(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project_id query parameter is required",
		})
	}

	orgID := middleware.GetOrgID(c)
	ok, err := h.projects.BelongsToOrg(c.Context(), projectID, orgID)
	if err != nil {
		log.Printf("❌ Failed to check project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load tasks",
		})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	tasks, err := h.tasks.List(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ Failed to list tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load tasks",
		})
	}

	return c.JSON(fiber.Map{"data": tasks})
}

// Get returns a single task
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, err := h.tasks.GetByID(c.Context(), c.Params("id"), middleware.GetOrgID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	return c.JSON(fiber.Map{"data": task})
}

// Create adds a task at the bottom of its project
// POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var input models.TaskInput
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
	ok, err := h.projects.BelongsToOrg(c.Context(), input.ProjectID, orgID)
	if err != nil {
		log.Printf("❌ Failed to check project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}
	if !ok {
		// A project in another org looks exactly like a missing one
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}

	task, err := h.tasks.Create(c.Context(), &input)
	if err != nil {
		log.Printf("❌ Failed to create task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}

	h.activities.Record(c.Context(), orgID, middleware.GetUserID(c), task.ProjectID, task.ID,
		models.ActionTaskCreated, map[string]interface{}{"title": task.Title})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": task})
}

// Patch applies a partial update
// PATCH /api/tasks/:id
func (h *TaskHandler) Patch(c *fiber.Ctx) error {
	var patch models.TaskPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if errs := validate.Struct(&patch); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": errs,
		})
	}

	orgID := middleware.GetOrgID(c)
	task, err := h.tasks.Patch(c.Context(), c.Params("id"), orgID, &patch)
	if err != nil {
		if err.Error() == "task not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		if err.Error() == "end_date cannot be before start_date" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to update task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task",
		})
	}

	h.activities.Record(c.Context(), orgID, middleware.GetUserID(c), task.ProjectID, task.ID,
		models.ActionTaskUpdated, map[string]interface{}{"title": task.Title})

	return c.JSON(fiber.Map{"data": task})
}

// Reorder moves a task within its project's ordering
// PATCH /api/tasks/:id/order
func (h *TaskHandler) Reorder(c *fiber.Ctx) error {
	var req struct {
		OrderIndex *int `json:"order_index"`
	}
	if err := c.BodyParser(&req); err != nil || req.OrderIndex == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order_index is required",
		})
	}
	if *req.OrderIndex < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order_index cannot be negative",
		})
	}

	task, err := h.tasks.Reorder(c.Context(), c.Params("id"), middleware.GetOrgID(c), *req.OrderIndex)
	if err != nil {
		if err.Error() == "task not found" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		log.Printf("❌ Failed to reorder task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reorder task",
		})
	}

	return c.JSON(fiber.Map{"data": task})
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	taskID := c.Params("id")

	task, err := h.tasks.GetByID(c.Context(), taskID, orgID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}

	if err := h.tasks.Delete(c.Context(), taskID, orgID); err != nil {
		log.Printf("❌ Failed to delete task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete task",
		})
	}

	h.activities.Record(c.Context(), orgID, middleware.GetUserID(c), task.ProjectID, task.ID,
		models.ActionTaskDeleted, map[string]interface{}{"title": task.Title})

	return c.JSON(fiber.Map{"success": true})
}
