package services

import (
	"context"
	"os"
	"sync"
	"testing"

	"ganttboard/internal/database"
	"ganttboard/internal/models"
)

// newTestDB creates a throwaway sqlite database with the full schema
func newTestDB(t *testing.T, file string) *database.DB {
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
	return db
}

// seedOrg registers an organization with one admin user
func seedOrg(t *testing.T, db *database.DB, orgName, email string) (*models.Organization, *models.User) {
	t.Helper()
	org, admin, err := NewOrgService(db).CreateWithAdmin(context.Background(), orgName, email, "Test Admin", "argon2id$c2FsdA$aGFzaA")
	if err != nil {
		t.Fatalf("Failed to seed organization: %v", err)
	}
	return org, admin
}

// seedProject creates a project in the given organization
func seedProject(t *testing.T, db *database.DB, orgID, userID, name string) *models.Project {
	t.Helper()
	project, err := NewProjectService(db).Create(context.Background(), orgID, userID, &models.ProjectInput{
		Name:      name,
		Color:     "#4F46E5",
		StartDate: "2026-01-01",
		EndDate:   "2026-12-31",
	})
	if err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

// seedTask creates a task with sensible defaults
func seedTask(t *testing.T, tasks *TaskService, projectID, title string) *models.Task {
	t.Helper()
	task, err := tasks.Create(context.Background(), &models.TaskInput{
		ProjectID: projectID,
		Title:     title,
		StartDate: "2026-02-01",
		EndDate:   "2026-02-10",
	})
	if err != nil {
		t.Fatalf("Failed to seed task %q: %v", title, err)
	}
	return task
}

// recordingBroadcaster captures published task events for assertions
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *recordingBroadcaster) Publish(ev models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingBroadcaster) all() []models.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TaskEvent, len(r.events))
	copy(out, r.events)
	return out
}
