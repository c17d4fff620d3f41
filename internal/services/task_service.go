package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
)

// TaskBroadcaster fans a task change out to live subscribers.
// Implemented by ProjectFeed; nil means no live updates.
type TaskBroadcaster interface {
	Publish(ev models.TaskEvent)
}

// TaskService handles task CRUD, ordering, and change events
type TaskService struct {
	db          *database.DB
	broadcaster TaskBroadcaster
}

// NewTaskService creates a new task service. broadcaster may be nil.
func NewTaskService(db *database.DB, broadcaster TaskBroadcaster) *TaskService {
	return &TaskService{db: db, broadcaster: broadcaster}
}

// SetBroadcaster wires the live feed after construction (the feed needs
// the task service for snapshots, so one side is set late)
func (s *TaskService) SetBroadcaster(b TaskBroadcaster) {
	s.broadcaster = b
}

const taskColumns = `id, project_id, parent_id, title, description, assigned_to, start_date, end_date, progress, status, priority, order_index, created_at, updated_at`

func scanTask(scan func(dest ...interface{}) error) (*models.Task, error) {
	var t models.Task
	var parentID, description, assignedTo sql.NullString
	err := scan(&t.ID, &t.ProjectID, &parentID, &t.Title, &description, &assignedTo,
		&t.StartDate, &t.EndDate, &t.Progress, &t.Status, &t.Priority, &t.OrderIndex,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ParentID = parentID.String
	t.Description = description.String
	t.AssignedTo = assignedTo.String
	return &t, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// List returns the tasks of a project sorted by order_index. Ties break
// on created_at so the order is stable.
func (s *TaskService) List(ctx context.Context, projectID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY order_index, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListByOrg returns every task of an organization across projects
func (s *TaskService) ListByOrg(ctx context.Context, orgID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.project_id, t.parent_id, t.title, t.description, t.assigned_to,
		        t.start_date, t.end_date, t.progress, t.status, t.priority, t.order_index,
		        t.created_at, t.updated_at
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.org_id = ?
		 ORDER BY t.project_id, t.order_index, t.created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetByID retrieves a task, verifying it belongs to the organization.
// A task in another org is indistinguishable from a missing one.
func (s *TaskService) GetByID(ctx context.Context, taskID, orgID string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.project_id, t.parent_id, t.title, t.description, t.assigned_to,
		        t.start_date, t.end_date, t.progress, t.status, t.priority, t.order_index,
		        t.created_at, t.updated_at
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.id = ? AND p.org_id = ?`, taskID, orgID)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// NextOrderIndex returns MAX(order_index)+1 for a project, 1 when the
// project has no tasks yet. New tasks always land at the bottom;
// reordering is an explicit client action.
func (s *TaskService) NextOrderIndex(ctx context.Context, projectID string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(order_index) FROM tasks WHERE project_id = ?`, projectID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max order index: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// Create inserts a task at the end of its project's ordering and
// publishes an insert event.
func (s *TaskService) Create(ctx context.Context, input *models.TaskInput) (*models.Task, error) {
	orderIndex, err := s.NextOrderIndex(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := input.Status
	if status == "" {
		status = models.TaskPending
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	t := &models.Task{
		ID:          uuid.New().String(),
		ProjectID:   input.ProjectID,
		ParentID:    input.ParentID,
		Title:       input.Title,
		Description: input.Description,
		AssignedTo:  input.AssignedTo,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Progress:    input.Progress,
		Status:      status,
		Priority:    priority,
		OrderIndex:  orderIndex,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, parent_id, title, description, assigned_to, start_date, end_date, progress, status, priority, order_index, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, nullable(t.ParentID), t.Title, t.Description, nullable(t.AssignedTo),
		t.StartDate, t.EndDate, t.Progress, t.Status, t.Priority, t.OrderIndex, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.publish(models.TaskEvent{Op: models.EventInsert, ProjectID: t.ProjectID, TaskID: t.ID, Task: t})
	return t, nil
}

// Patch applies a partial update, leaving nil fields untouched, and
// publishes an update event with the resulting row.
func (s *TaskService) Patch(ctx context.Context, taskID, orgID string, patch *models.TaskPatch) (*models.Task, error) {
	t, err := s.GetByID(ctx, taskID, orgID)
	if err != nil {
		return nil, err
	}

	if patch.ParentID != nil {
		t.ParentID = *patch.ParentID
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = *patch.AssignedTo
	}
	if patch.StartDate != nil {
		t.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		t.EndDate = *patch.EndDate
	}
	if patch.Progress != nil {
		t.Progress = *patch.Progress
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if t.EndDate < t.StartDate {
		return nil, fmt.Errorf("end_date cannot be before start_date")
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET parent_id = ?, title = ?, description = ?, assigned_to = ?, start_date = ?, end_date = ?, progress = ?, status = ?, priority = ?, updated_at = ?
		 WHERE id = ?`,
		nullable(t.ParentID), t.Title, t.Description, nullable(t.AssignedTo),
		t.StartDate, t.EndDate, t.Progress, t.Status, t.Priority, t.UpdatedAt, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.publish(models.TaskEvent{Op: models.EventUpdate, ProjectID: t.ProjectID, TaskID: t.ID, Task: t})
	return t, nil
}

// Reorder moves a task to a new order_index within its project
func (s *TaskService) Reorder(ctx context.Context, taskID, orgID string, orderIndex int) (*models.Task, error) {
	t, err := s.GetByID(ctx, taskID, orgID)
	if err != nil {
		return nil, err
	}

	t.OrderIndex = orderIndex
	t.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET order_index = ?, updated_at = ? WHERE id = ?`,
		t.OrderIndex, t.UpdatedAt, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reorder task: %w", err)
	}

	s.publish(models.TaskEvent{Op: models.EventUpdate, ProjectID: t.ProjectID, TaskID: t.ID, Task: t})
	return t, nil
}

// Delete removes a task and publishes a delete event. Dependencies and
// comments referencing it cascade away.
func (s *TaskService) Delete(ctx context.Context, taskID, orgID string) error {
	t, err := s.GetByID(ctx, taskID, orgID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.publish(models.TaskEvent{Op: models.EventDelete, ProjectID: t.ProjectID, TaskID: t.ID})
	return nil
}

// MarkDelayed flips overdue tasks to delayed. Returns the tasks changed
// so the sweep can record activity and broadcast. Completed tasks are
// never touched, and a task is never un-delayed automatically.
func (s *TaskService) MarkDelayed(ctx context.Context, today string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE end_date < ? AND status NOT IN (?, ?)`,
		today, models.TaskCompleted, models.TaskDelayed)
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue tasks: %w", err)
	}
	defer rows.Close()

	overdue := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		overdue = append(overdue, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range overdue {
		_, err := s.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			models.TaskDelayed, now, overdue[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark task delayed: %w", err)
		}
		overdue[i].Status = models.TaskDelayed
		overdue[i].UpdatedAt = now
		s.publish(models.TaskEvent{Op: models.EventUpdate, ProjectID: overdue[i].ProjectID, TaskID: overdue[i].ID, Task: &overdue[i]})
	}
	return overdue, nil
}

func (s *TaskService) publish(ev models.TaskEvent) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(ev)
	}
}
