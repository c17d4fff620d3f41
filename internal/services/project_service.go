package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
)

// ProjectService handles project CRUD and derived progress metrics
type ProjectService struct {
	db *database.DB
}

// NewProjectService creates a new project service
func NewProjectService(db *database.DB) *ProjectService {
	return &ProjectService{db: db}
}

const projectColumns = `id, org_id, name, description, color, status, start_date, end_date, created_by, created_at, updated_at`

func scanProject(scan func(dest ...interface{}) error) (*models.Project, error) {
	var p models.Project
	var description, createdBy sql.NullString
	err := scan(&p.ID, &p.OrgID, &p.Name, &description, &p.Color, &p.Status,
		&p.StartDate, &p.EndDate, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.CreatedBy = createdBy.String
	return &p, nil
}

// ProjectProgress derives the 0-100 display progress from task counts:
// the rounded percentage of completed tasks. A project with no tasks
// shows 0, not an error.
func ProjectProgress(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Create inserts a new project
func (s *ProjectService) Create(ctx context.Context, orgID, userID string, input *models.ProjectInput) (*models.Project, error) {
	now := time.Now().UTC()
	status := input.Status
	if status == "" {
		status = models.ProjectPlanning
	}

	p := &models.Project{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Status:      status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, org_id, name, description, color, status, start_date, end_date, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrgID, p.Name, p.Description, p.Color, p.Status, p.StartDate, p.EndDate, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Printf("✅ Project created: %s (org %s)", p.Name, orgID)
	return p, nil
}

// GetByID retrieves a project scoped to an organization
func (s *ProjectService) GetByID(ctx context.Context, projectID, orgID string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND org_id = ?`, projectID, orgID)
	p, err := scanProject(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// List returns all projects of an organization with task counts and
// derived progress, newest first.
func (s *ProjectService) List(ctx context.Context, orgID string) ([]models.ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.org_id, p.name, p.description, p.color, p.status,
		        p.start_date, p.end_date, p.created_by, p.created_at, p.updated_at,
		        COUNT(t.id), COALESCE(SUM(CASE WHEN t.status = 'completed' THEN 1 ELSE 0 END), 0)
		 FROM projects p
		 LEFT JOIN tasks t ON t.project_id = p.id
		 WHERE p.org_id = ?
		 GROUP BY p.id, p.org_id, p.name, p.description, p.color, p.status,
		          p.start_date, p.end_date, p.created_by, p.created_at, p.updated_at
		 ORDER BY p.created_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	summaries := []models.ProjectSummary{}
	for rows.Next() {
		var p models.Project
		var description, createdBy sql.NullString
		var taskCount, completed int
		err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &description, &p.Color, &p.Status,
			&p.StartDate, &p.EndDate, &createdBy, &p.CreatedAt, &p.UpdatedAt,
			&taskCount, &completed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Description = description.String
		p.CreatedBy = createdBy.String

		summaries = append(summaries, models.ProjectSummary{
			Project:        p,
			TaskCount:      taskCount,
			CompletedTasks: completed,
			Progress:       ProjectProgress(completed, taskCount),
		})
	}
	return summaries, rows.Err()
}

// Summary returns one project with its derived metrics
func (s *ProjectService) Summary(ctx context.Context, projectID, orgID string) (*models.ProjectSummary, error) {
	p, err := s.GetByID(ctx, projectID, orgID)
	if err != nil {
		return nil, err
	}

	var taskCount, completed int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		 FROM tasks WHERE project_id = ?`, projectID).Scan(&taskCount, &completed)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &models.ProjectSummary{
		Project:        *p,
		TaskCount:      taskCount,
		CompletedTasks: completed,
		Progress:       ProjectProgress(completed, taskCount),
	}, nil
}

// Update replaces a project's editable fields
func (s *ProjectService) Update(ctx context.Context, projectID, orgID string, input *models.ProjectInput) (*models.Project, error) {
	status := input.Status
	if status == "" {
		status = models.ProjectPlanning
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, color = ?, status = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ? AND org_id = ?`,
		input.Name, input.Description, input.Color, status, input.StartDate, input.EndDate, time.Now().UTC(),
		projectID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("project not found")
	}

	return s.GetByID(ctx, projectID, orgID)
}

// Delete removes a project and everything under it. Tasks, dependencies,
// and comments go with it via ON DELETE CASCADE.
func (s *ProjectService) Delete(ctx context.Context, projectID, orgID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND org_id = ?`, projectID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("project not found")
	}

	log.Printf("🗑️  Project deleted: %s", projectID)
	return nil
}

// OrgOfProject returns the owning organization of a project
func (s *ProjectService) OrgOfProject(ctx context.Context, projectID string) (string, error) {
	var orgID string
	err := s.db.QueryRowContext(ctx,
		`SELECT org_id FROM projects WHERE id = ?`, projectID).Scan(&orgID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("project not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up project org: %w", err)
	}
	return orgID, nil
}

// BelongsToOrg reports whether a project exists inside an organization
func (s *ProjectService) BelongsToOrg(ctx context.Context, projectID, orgID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE id = ? AND org_id = ?`, projectID, orgID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check project: %w", err)
	}
	return count > 0, nil
}
