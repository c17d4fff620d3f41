package services

import (
	"context"
	"fmt"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
)

// DependencyService handles task dependency edges and keeps the
// per-project dependency graph acyclic
type DependencyService struct {
	db *database.DB
}

// NewDependencyService creates a new dependency service
func NewDependencyService(db *database.DB) *DependencyService {
	return &DependencyService{db: db}
}

// ListByProject returns all dependency edges between tasks of a project
func (s *DependencyService) ListByProject(ctx context.Context, projectID string) ([]models.TaskDependency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.task_id, d.depends_on_task_id, d.dependency_type, d.created_at
		 FROM task_dependencies d
		 JOIN tasks t ON t.id = d.task_id
		 WHERE t.project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	defer rows.Close()

	deps := []models.TaskDependency{}
	for rows.Next() {
		var d models.TaskDependency
		if err := rows.Scan(&d.ID, &d.TaskID, &d.DependsOnTaskID, &d.DependencyType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// Create adds a dependency edge after checking both tasks live in the
// same project and the new edge would not close a cycle.
func (s *DependencyService) Create(ctx context.Context, taskID, orgID string, input *models.DependencyInput) (*models.TaskDependency, error) {
	if taskID == input.DependsOnTaskID {
		return nil, fmt.Errorf("task cannot depend on itself")
	}

	var projectID string
	err := s.db.QueryRowContext(ctx,
		`SELECT t.project_id FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.id = ? AND p.org_id = ?`, taskID, orgID).Scan(&projectID)
	if err != nil {
		return nil, fmt.Errorf("task not found")
	}

	var otherProject string
	err = s.db.QueryRowContext(ctx,
		`SELECT project_id FROM tasks WHERE id = ?`, input.DependsOnTaskID).Scan(&otherProject)
	if err != nil {
		return nil, fmt.Errorf("dependency target not found")
	}
	if otherProject != projectID {
		return nil, fmt.Errorf("dependencies must stay within one project")
	}

	var duplicate int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?`,
		taskID, input.DependsOnTaskID).Scan(&duplicate)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if duplicate > 0 {
		return nil, fmt.Errorf("dependency already exists")
	}

	cyclic, err := s.wouldCycle(ctx, projectID, taskID, input.DependsOnTaskID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("dependency would create a cycle")
	}

	d := &models.TaskDependency{
		ID:              uuid.New().String(),
		TaskID:          taskID,
		DependsOnTaskID: input.DependsOnTaskID,
		DependencyType:  input.DependencyType,
		CreatedAt:       time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO task_dependencies (id, task_id, depends_on_task_id, dependency_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.TaskID, d.DependsOnTaskID, d.DependencyType, d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create dependency: %w", err)
	}
	return d, nil
}

// wouldCycle walks the existing edges from the proposed prerequisite:
// if taskID is reachable from dependsOn, adding the edge closes a loop.
func (s *DependencyService) wouldCycle(ctx context.Context, projectID, taskID, dependsOn string) (bool, error) {
	edges, err := s.edgeMap(ctx, projectID)
	if err != nil {
		return false, err
	}

	visited := map[string]bool{}
	stack := []string{dependsOn}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == taskID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, edges[current]...)
	}
	return false, nil
}

// edgeMap loads the project's dependency graph as task -> prerequisites
func (s *DependencyService) edgeMap(ctx context.Context, projectID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.task_id, d.depends_on_task_id
		 FROM task_dependencies d
		 JOIN tasks t ON t.id = d.task_id
		 WHERE t.project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependency graph: %w", err)
	}
	defer rows.Close()

	edges := map[string][]string{}
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges[from] = append(edges[from], to)
	}
	return edges, rows.Err()
}

// Delete removes a dependency edge, verifying org ownership through the
// task it hangs off
func (s *DependencyService) Delete(ctx context.Context, depID, orgID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM task_dependencies WHERE id = ? AND task_id IN (
		   SELECT t.id FROM tasks t JOIN projects p ON p.id = t.project_id WHERE p.org_id = ?
		 )`, depID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete dependency: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("dependency not found")
	}
	return nil
}
