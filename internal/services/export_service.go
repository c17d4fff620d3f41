package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportService renders an organization's projects and tasks into an
// xlsx workbook for offline reporting
type ExportService struct {
	projects *ProjectService
	tasks    *TaskService
}

// NewExportService creates a new export service
func NewExportService(projects *ProjectService, tasks *TaskService) *ExportService {
	return &ExportService{projects: projects, tasks: tasks}
}

// Workbook builds the xlsx export: a Projects sheet with derived
// progress and a Tasks sheet with every task of the organization.
func (s *ExportService) Workbook(ctx context.Context, orgID string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeProjects(ctx, f, orgID); err != nil {
		return nil, err
	}
	if err := s.writeTasks(ctx, f, orgID); err != nil {
		return nil, err
	}

	// Drop the default sheet excelize creates
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeProjects(ctx context.Context, f *excelize.File, orgID string) error {
	const sheet = "Projects"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []interface{}{"Name", "Status", "Start", "End", "Tasks", "Completed", "Progress %"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	summaries, err := s.projects.List(ctx, orgID)
	if err != nil {
		return err
	}

	for i, p := range summaries {
		row := []interface{}{p.Name, p.Status, p.StartDate, p.EndDate, p.TaskCount, p.CompletedTasks, p.Progress}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write project row: %w", err)
		}
	}
	return nil
}

func (s *ExportService) writeTasks(ctx context.Context, f *excelize.File, orgID string) error {
	const sheet = "Tasks"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []interface{}{"Title", "Project", "Status", "Priority", "Start", "End", "Progress %", "Assignee"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	projectNames := map[string]string{}
	summaries, err := s.projects.List(ctx, orgID)
	if err != nil {
		return err
	}
	for _, p := range summaries {
		projectNames[p.ID] = p.Name
	}

	tasks, err := s.tasks.ListByOrg(ctx, orgID)
	if err != nil {
		return err
	}

	for i, t := range tasks {
		row := []interface{}{t.Title, projectNames[t.ProjectID], t.Status, t.Priority, t.StartDate, t.EndDate, t.Progress, t.AssignedTo}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write task row: %w", err)
		}
	}
	return nil
}
