package handlers

import (
	"context"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports readiness of the service and its backends
type HealthHandler struct {
	db      *database.DB
	mongo   *database.MongoDB
	redis   *services.RedisService
	started time.Time
}

// NewHealthHandler creates a new health handler. mongo and redis may be nil.
func NewHealthHandler(db *database.DB, mongo *database.MongoDB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{db: db, mongo: mongo, redis: redis, started: time.Now()}
}

// Check reports overall health
// GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{}

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "down: " + err.Error()
		status = fiber.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = "down: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	if h.mongo != nil {
		checks["mongodb"] = "ok"
	} else {
		checks["mongodb"] = "disabled"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  map[bool]string{true: "healthy", false: "degraded"}[status == fiber.StatusOK],
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"checks":  checks,
		"version": "1.0.0",
	})
}
