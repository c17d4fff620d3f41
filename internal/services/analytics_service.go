package services

import (
	"context"
	"fmt"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"
)

// AnalyticsService derives dashboard numbers from the task and project
// tables. Everything here is computed on read; nothing is stored.
type AnalyticsService struct {
	db *database.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *database.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// DashboardSummary is the org-level analytics payload
type DashboardSummary struct {
	TotalProjects   int            `json:"total_projects"`
	ActiveProjects  int            `json:"active_projects"`
	TotalTasks      int            `json:"total_tasks"`
	TasksByStatus   map[string]int `json:"tasks_by_status"`
	OverdueTasks    int            `json:"overdue_tasks"`
	CompletionRate  int            `json:"completion_rate"`  // 0-100
	CompletedRecent int            `json:"completed_recent"` // last 7 days
	Workload        []AssigneeLoad `json:"workload"`
}

// AssigneeLoad is one member's open-task count
type AssigneeLoad struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	OpenTasks int    `json:"open_tasks"`
}

// Summary computes the dashboard numbers for an organization
func (s *AnalyticsService) Summary(ctx context.Context, orgID string) (*DashboardSummary, error) {
	summary := &DashboardSummary{
		TasksByStatus: map[string]int{},
		Workload:      []AssigneeLoad{},
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0)
		 FROM projects WHERE org_id = ?`, orgID).
		Scan(&summary.TotalProjects, &summary.ActiveProjects)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.status, COUNT(*)
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.org_id = ?
		 GROUP BY t.status`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		summary.TasksByStatus[status] = count
		summary.TotalTasks += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if summary.TotalTasks > 0 {
		summary.CompletionRate = ProjectProgress(summary.TasksByStatus[models.TaskCompleted], summary.TotalTasks)
	}

	// Overdue means past its end date and not completed, whether or not
	// the sweep has flipped it to delayed yet
	today := time.Now().UTC().Format("2006-01-02")
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.org_id = ? AND t.end_date < ? AND t.status != ?`,
		orgID, today, models.TaskCompleted).Scan(&summary.OverdueTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	// Completed in the last 7 days, by last update timestamp
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.org_id = ? AND t.status = ? AND t.updated_at >= ?`,
		orgID, models.TaskCompleted, weekAgo).Scan(&summary.CompletedRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent completions: %w", err)
	}

	workload, err := s.workload(ctx, orgID)
	if err != nil {
		return nil, err
	}
	summary.Workload = workload

	return summary, nil
}

// workload returns open-task counts per assignee, busiest first
func (s *AnalyticsService) workload(ctx context.Context, orgID string) ([]AssigneeLoad, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.full_name, COUNT(t.id)
		 FROM users u
		 JOIN tasks t ON t.assigned_to = u.id
		 JOIN projects p ON p.id = t.project_id
		 WHERE u.org_id = ? AND p.org_id = ? AND t.status != ?
		 GROUP BY u.id, u.full_name
		 ORDER BY COUNT(t.id) DESC`, orgID, orgID, models.TaskCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to compute workload: %w", err)
	}
	defer rows.Close()

	loads := []AssigneeLoad{}
	for rows.Next() {
		var load AssigneeLoad
		if err := rows.Scan(&load.UserID, &load.FullName, &load.OpenTasks); err != nil {
			return nil, fmt.Errorf("failed to scan workload: %w", err)
		}
		loads = append(loads, load)
	}
	return loads, rows.Err()
}
