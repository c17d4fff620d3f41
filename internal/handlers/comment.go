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

// CommentHandler serves task comment endpoints
type CommentHandler struct {
	comments   *services.CommentService
	tasks      *services.TaskService
	activities *services.ActivityService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService, tasks *services.TaskService, activities *services.ActivityService) *CommentHandler {
	return &CommentHandler{comments: comments, tasks: tasks, activities: activities}
}

// List returns a task's comments with rendered HTML, oldest first
// GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	taskID := c.Params("id")

	if _, err := h.tasks.GetByID(c.Context(), taskID, orgID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}

	comments, err := h.comments.ListByTask(c.Context(), taskID, orgID)
	if err != nil {
		log.Printf("❌ Failed to list comments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load comments",
		})
	}

	return c.JSON(fiber.Map{"data": comments})
}

// Create posts a comment on a task
// POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	var input models.CommentInput
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
	taskID := c.Params("id")

	comment, err := h.comments.Create(c.Context(), taskID, orgID, userID, &input)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		if strings.Contains(err.Error(), "mentions") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to create comment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to post comment",
		})
	}

	task, err := h.tasks.GetByID(c.Context(), taskID, orgID)
	if err == nil {
		h.activities.Record(c.Context(), orgID, userID, task.ProjectID, taskID,
			models.ActionCommentPosted, map[string]interface{}{"task_title": task.Title})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": comment})
}

// Delete removes a comment (author or admin only)
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	err := h.comments.Delete(c.Context(), c.Params("id"), middleware.GetOrgID(c),
		middleware.GetUserID(c), middleware.GetUserRole(c))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Comment not found",
			})
		}
		if strings.Contains(err.Error(), "author or an admin") {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to delete comment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete comment",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
