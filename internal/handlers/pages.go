package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// PageHandler serves the browser-facing pages. The UI itself is a
// static bundle; these routes exist so the page guard has real paths
// to protect and redirect between.
type PageHandler struct {
	staticDir string
}

// NewPageHandler creates a new page handler
func NewPageHandler(staticDir string) *PageHandler {
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	return &PageHandler{staticDir: staticDir}
}

// Register mounts the page routes on the app. The page guard middleware
// must already be installed upstream.
func (h *PageHandler) Register(app *fiber.App) {
	serve := func(c *fiber.Ctx) error {
		return c.SendFile(h.staticDir+"/index.html", true)
	}

	app.Get("/", serve)
	app.Get("/login", serve)
	app.Get("/register", serve)
	app.Get("/dashboard", serve)
	app.Get("/dashboard/*", serve)

	app.Static("/assets", h.staticDir+"/assets")
}
