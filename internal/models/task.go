package models

import "time"

// Task status values
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskDelayed    = "delayed"
)

// Task priority values
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Dependency relationship kinds. Declared in the data model and shown
// as Gantt links; no scheduling is computed from them.
const (
	DepFinishToStart  = "finish_to_start"
	DepStartToStart   = "start_to_start"
	DepFinishToFinish = "finish_to_finish"
)

// Task is a unit of work within a project. order_index controls display
// order; values are monotonically increasing per project but need not be
// contiguous.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Progress    int       `json:"progress"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskInput is the request body for creating a task
type TaskInput struct {
	ProjectID   string `json:"project_id" validate:"required,uuid4"`
	ParentID    string `json:"parent_id" validate:"omitempty,uuid4"`
	Title       string `json:"title" validate:"required,min=1,max=300"`
	Description string `json:"description" validate:"max=2000"`
	AssignedTo  string `json:"assigned_to" validate:"omitempty,uuid4"`
	StartDate   string `json:"start_date" validate:"required,dateformat"`
	EndDate     string `json:"end_date" validate:"required,dateformat"`
	Progress    int    `json:"progress" validate:"min=0,max=100"`
	Status      string `json:"status" validate:"omitempty,oneof=pending in_progress completed delayed"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// TaskPatch is the request body for a partial task update. Nil fields
// are left untouched.
type TaskPatch struct {
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid4"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	AssignedTo  *string `json:"assigned_to" validate:"omitempty,uuid4"`
	StartDate   *string `json:"start_date" validate:"omitempty,dateformat"`
	EndDate     *string `json:"end_date" validate:"omitempty,dateformat"`
	Progress    *int    `json:"progress" validate:"omitempty,min=0,max=100"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed delayed"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// TaskDependency is a directed edge between two tasks in a project
type TaskDependency struct {
	ID              string    `json:"id"`
	TaskID          string    `json:"task_id"`
	DependsOnTaskID string    `json:"depends_on_task_id"`
	DependencyType  string    `json:"dependency_type"`
	CreatedAt       time.Time `json:"created_at"`
}

// DependencyInput is the request body for declaring a dependency
type DependencyInput struct {
	DependsOnTaskID string `json:"depends_on_task_id" validate:"required,uuid4"`
	DependencyType  string `json:"dependency_type" validate:"required,oneof=finish_to_start start_to_start finish_to_finish"`
}
