package models

import "time"

// Project status values
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectOnHold    = "on_hold"
)

// ValidProjectStatus reports whether s is a known project status
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// Project is a dated container of tasks within one organization.
// Dates are YYYY-MM-DD strings; end_date is never before start_date.
type Project struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Status      string    `json:"status"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectInput is the request body for creating or replacing a project
type ProjectInput struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Color       string `json:"color" validate:"required,hexcolor6"`
	Status      string `json:"status" validate:"omitempty,oneof=planning active completed on_hold"`
	StartDate   string `json:"start_date" validate:"required,dateformat"`
	EndDate     string `json:"end_date" validate:"required,dateformat"`
}

// ProjectSummary is a project with its derived display metrics attached
type ProjectSummary struct {
	Project
	TaskCount      int `json:"task_count"`
	CompletedTasks int `json:"completed_tasks"`
	Progress       int `json:"progress"` // 0-100, completed-task ratio
}
