package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/middleware"
	"ganttboard/internal/services"
	"ganttboard/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// newTestApp builds a Fiber app with the real route table against a
// throwaway sqlite database. Rate limiters and the optional Redis and
// Mongo layers stay out so tests exercise the handlers deterministically.
func newTestApp(t *testing.T, file string) *fiber.App {
	t.Helper()
	os.Remove(file)

	db, err := database.New(file)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(file)
	})

	jwtAuth, err := auth.NewJWTAuth("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create JWT auth: %v", err)
	}

	orgService := services.NewOrgService(db)
	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db, nil)
	depService := services.NewDependencyService(db)
	commentService := services.NewCommentService(db, userService)
	analyticsService := services.NewAnalyticsService(db)
	exportService := services.NewExportService(projectService, taskService)
	var activityService *services.ActivityService // no Mongo in tests

	authHandler := NewAuthHandler(jwtAuth, orgService, userService)
	projectHandler := NewProjectHandler(projectService, taskService, depService, activityService)
	taskHandler := NewTaskHandler(taskService, projectService, activityService)
	depHandler := NewDependencyHandler(depService, projectService)
	commentHandler := NewCommentHandler(commentService, taskService, activityService)
	activityHandler := NewActivityHandler(activityService, projectService)
	teamHandler := NewTeamHandler(userService)
	analyticsHandler := NewAnalyticsHandler(analyticsService, exportService)

	app := fiber.New()

	authRoutes := app.Group("/api/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.Refresh)
	authRoutes.Post("/logout", authHandler.Logout)

	api := app.Group("/api",
		middleware.AuthMiddleware(jwtAuth),
		middleware.RequireMember(userService),
	)
	write := middleware.RequireWriteAccess()
	admin := middleware.RequireAdmin()

	api.Get("/auth/me", authHandler.Me)

	api.Get("/projects", projectHandler.List)
	api.Post("/projects", write, projectHandler.Create)
	api.Get("/projects/:id", projectHandler.Get)
	api.Put("/projects/:id", write, projectHandler.Update)
	api.Delete("/projects/:id", write, projectHandler.Delete)
	api.Get("/projects/:id/gantt", projectHandler.Gantt)
	api.Get("/projects/:id/dependencies", depHandler.List)
	api.Get("/projects/:id/activities", activityHandler.ProjectFeed)

	api.Get("/tasks", taskHandler.List)
	api.Post("/tasks", write, taskHandler.Create)
	api.Get("/tasks/:id", taskHandler.Get)
	api.Put("/tasks/:id", write, taskHandler.Patch)
	api.Patch("/tasks/:id", write, taskHandler.Patch)
	api.Patch("/tasks/:id/order", write, taskHandler.Reorder)
	api.Delete("/tasks/:id", write, taskHandler.Delete)
	api.Post("/tasks/:id/dependencies", write, depHandler.Create)
	api.Delete("/dependencies/:id", write, depHandler.Delete)
	api.Get("/tasks/:id/comments", commentHandler.List)
	api.Post("/tasks/:id/comments", write, commentHandler.Create)
	api.Delete("/comments/:id", commentHandler.Delete)

	api.Get("/activities", activityHandler.OrgFeed)

	api.Get("/team", teamHandler.List)
	api.Post("/team", admin, teamHandler.Add)
	api.Patch("/team/:id/role", admin, teamHandler.UpdateRole)
	api.Delete("/team/:id", admin, teamHandler.Remove)

	api.Get("/analytics/summary", analyticsHandler.Summary)
	api.Get("/analytics/export", analyticsHandler.Export)

	return app
}

// request sends a JSON request through the app, optionally authenticated
func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	return resp
}

// decode reads a JSON response body into out
func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// register creates an org with its admin user and returns the session
func register(t *testing.T, app *fiber.App, orgName, email string) AuthResponse {
	t.Helper()
	resp := request(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":     email,
		"password":  "correct-horse-battery",
		"full_name": "Test User",
		"org_name":  orgName,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Registration returned %d", resp.StatusCode)
	}
	var session AuthResponse
	decode(t, resp, &session)
	return session
}

// addTeammate invites a user with the given role and logs them in
func addTeammate(t *testing.T, app *fiber.App, adminToken, email, role string) AuthResponse {
	t.Helper()
	resp := request(t, app, "POST", "/api/team", adminToken, map[string]string{
		"email":     email,
		"full_name": "Team Mate",
		"password":  "correct-horse-battery",
		"role":      role,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Adding teammate returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = request(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse-battery",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Teammate login returned %d", resp.StatusCode)
	}
	var session AuthResponse
	decode(t, resp, &session)
	return session
}

// createProject makes a project and returns its payload
func createProject(t *testing.T, app *fiber.App, token, name string) map[string]interface{} {
	t.Helper()
	resp := request(t, app, "POST", "/api/projects", token, map[string]string{
		"name":       name,
		"color":      "#4F46E5",
		"start_date": "2026-01-01",
		"end_date":   "2026-12-31",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Creating project returned %d", resp.StatusCode)
	}
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	decode(t, resp, &envelope)
	return envelope.Data
}

// createTask makes a task in a project and returns its payload
func createTask(t *testing.T, app *fiber.App, token, projectID, title string) map[string]interface{} {
	t.Helper()
	resp := request(t, app, "POST", "/api/tasks", token, map[string]interface{}{
		"project_id": projectID,
		"title":      title,
		"start_date": "2026-02-01",
		"end_date":   "2026-02-10",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Creating task returned %d", resp.StatusCode)
	}
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	decode(t, resp, &envelope)
	return envelope.Data
}
