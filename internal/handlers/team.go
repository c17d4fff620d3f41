package handlers

import (
	"log"
	"strings"

	"ganttboard/internal/middleware"
	"ganttboard/internal/models"
	"ganttboard/internal/services"
	"ganttboard/internal/validate"
	"ganttboard/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// TeamHandler serves organization membership endpoints. Listing is open
// to every member; adding, role changes, and removal are admin-only.
type TeamHandler struct {
	users *services.UserService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(users *services.UserService) *TeamHandler {
	return &TeamHandler{users: users}
}

// AddMemberRequest is the request body for adding a member
type AddMemberRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin member viewer"`
}

// List returns the organization's members, admins first
// GET /api/team
func (h *TeamHandler) List(c *fiber.Ctx) error {
	members, err := h.users.ListByOrg(c.Context(), middleware.GetOrgID(c))
	if err != nil {
		log.Printf("❌ Failed to list members: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load team",
		})
	}
	return c.JSON(fiber.Map{"data": members})
}

// Add creates a new member account inside the organization
// POST /api/team
func (h *TeamHandler) Add(c *fiber.Ctx) error {
	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if errs := validate.Struct(&req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": errs,
		})
	}

	taken, err := h.users.EmailTaken(c.Context(), req.Email)
	if err != nil {
		log.Printf("❌ Failed to check email: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}
	if taken {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User with this email already exists",
		})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	user, err := h.users.Create(c.Context(), middleware.GetOrgID(c), req.Email, req.FullName, hash, req.Role)
	if err != nil {
		log.Printf("❌ Failed to create member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": user.ToResponse()})
}

// UpdateRole changes a member's role
// PATCH /api/team/:id/role
func (h *TeamHandler) UpdateRole(c *fiber.Ctx) error {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil || !models.ValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "role must be admin, member, or viewer",
		})
	}

	orgID := middleware.GetOrgID(c)
	targetID := c.Params("id")

	if err := h.users.UpdateRole(c.Context(), targetID, orgID, req.Role); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Member not found",
			})
		}
		if strings.Contains(err.Error(), "last admin") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to update role: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update role",
		})
	}

	// The next request from that user re-reads their stored role
	middleware.InvalidateRole(orgID, targetID)

	return c.JSON(fiber.Map{"success": true})
}

// Remove deletes a member from the organization
// DELETE /api/team/:id
func (h *TeamHandler) Remove(c *fiber.Ctx) error {
	orgID := middleware.GetOrgID(c)
	targetID := c.Params("id")

	if targetID == middleware.GetUserID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot remove yourself",
		})
	}

	if err := h.users.Delete(c.Context(), targetID, orgID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Member not found",
			})
		}
		if strings.Contains(err.Error(), "last admin") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to remove member: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}

	middleware.InvalidateRole(orgID, targetID)

	return c.JSON(fiber.Map{"success": true})
}
