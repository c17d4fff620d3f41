package middleware

import (
	"context"
	"log"
	"time"

	"ganttboard/internal/models"

	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"
)

// RoleResolver looks up a user's current role within an organization.
// Implemented by services.UserService.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID, orgID string) (string, error)
}

// roleCache keeps resolved roles for a short window so repeated requests
// from the same user don't hit the database on every call. 30s is short
// enough that demotions take effect almost immediately.
var roleCache = gocache.New(30*time.Second, time.Minute)

// RequireMember resolves the acting user's stored role and stashes it in
// the request context. A token whose user record no longer exists is
// rejected: deleting a user revokes access without waiting for expiry.
func RequireMember(resolver RoleResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		orgID := GetOrgID(c)
		if userID == "" || orgID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		cacheKey := orgID + ":" + userID
		if cached, found := roleCache.Get(cacheKey); found {
			c.Locals("user_role", cached.(string))
			return c.Next()
		}

		role, err := resolver.ResolveRole(c.Context(), userID, orgID)
		if err != nil {
			log.Printf("⚠️  Access denied: user %s not found in org %s: %v", userID, orgID, err)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		}

		roleCache.Set(cacheKey, role, gocache.DefaultExpiration)
		c.Locals("user_role", role)
		return c.Next()
	}
}

// RequireWriteAccess rejects requests from viewers. Admins and members
// may mutate; viewers are read-only.
func RequireWriteAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetUserRole(c)
		if !models.CanMutate(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Viewers cannot modify data",
			})
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to organization admins
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserRole(c) != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// InvalidateRole drops a cached role after a role change or removal so
// the next request re-reads storage.
func InvalidateRole(orgID, userID string) {
	roleCache.Delete(orgID + ":" + userID)
}
