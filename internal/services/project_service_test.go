package services

import (
	"context"
	"testing"

	"ganttboard/internal/models"
)

func TestProjectProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},   // empty project
		{0, 10, 0},  // nothing done
		{10, 10, 100},
		{1, 3, 33},  // rounds down from 33.3
		{2, 3, 67},  // rounds up from 66.7
		{1, 2, 50},
		{1, 8, 13},  // 12.5 rounds up
	}
	for _, tt := range tests {
		if got := ProjectProgress(tt.completed, tt.total); got != tt.want {
			t.Errorf("ProjectProgress(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestProjectCreate_Defaults(t *testing.T) {
	db := newTestDB(t, "test_project_create.db")
	org, admin := seedOrg(t, db, "Acme", "admin@acme.test")
	projects := NewProjectService(db)

	p, err := projects.Create(context.Background(), org.ID, admin.ID, &models.ProjectInput{
		Name:      "No Status",
		Color:     "#22C55E",
		StartDate: "2026-01-01",
		EndDate:   "2026-06-30",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Status != models.ProjectPlanning {
		t.Errorf("Expected default status planning, got %q", p.Status)
	}
	if p.OrgID != org.ID || p.CreatedBy != admin.ID {
		t.Errorf("Ownership not recorded: %+v", p)
	}
}

func TestProjectList_Aggregation(t *testing.T) {
	db := newTestDB(t, "test_project_list.db")
	org, admin := seedOrg(t, db, "Acme", "admin@acme.test")
	projects := NewProjectService(db)
	tasks := NewTaskService(db, nil)
	ctx := context.Background()

	withTasks := seedProject(t, db, org.ID, admin.ID, "With Tasks")
	empty := seedProject(t, db, org.ID, admin.ID, "Empty")

	seedTask(t, tasks, withTasks.ID, "A")
	b := seedTask(t, tasks, withTasks.ID, "B")
	seedTask(t, tasks, withTasks.ID, "C")
	status := models.TaskCompleted
	if _, err := tasks.Patch(ctx, b.ID, org.ID, &models.TaskPatch{Status: &status}); err != nil {
		t.Fatalf("Patch failed: %v", err)
	}

	list, err := projects.List(ctx, org.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 projects, got %d", len(list))
	}

	byID := map[string]models.ProjectSummary{}
	for _, s := range list {
		byID[s.ID] = s
	}

	got := byID[withTasks.ID]
	if got.TaskCount != 3 || got.CompletedTasks != 1 {
		t.Errorf("Wrong counts: %+v", got)
	}
	if got.Progress != 33 {
		t.Errorf("Expected progress 33, got %d", got.Progress)
	}

	if e := byID[empty.ID]; e.TaskCount != 0 || e.Progress != 0 {
		t.Errorf("Empty project should report zero progress: %+v", e)
	}
}

func TestProjectList_ScopedToOrg(t *testing.T) {
	db := newTestDB(t, "test_project_scope.db")
	org, admin := seedOrg(t, db, "Acme", "admin@acme.test")
	other, otherAdmin := seedOrg(t, db, "Rival", "admin@rival.test")
	projects := NewProjectService(db)
	ctx := context.Background()

	seedProject(t, db, org.ID, admin.ID, "Ours")
	seedProject(t, db, other.ID, otherAdmin.ID, "Theirs")

	list, err := projects.List(ctx, org.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Ours" {
		t.Errorf("Expected only our project, got %+v", list)
	}
}

func TestProjectGetByID_CrossOrg(t *testing.T) {
	db := newTestDB(t, "test_project_crossorg.db")
	org, admin := seedOrg(t, db, "Acme", "admin@acme.test")
	other, _ := seedOrg(t, db, "Rival", "admin@rival.test")
	projects := NewProjectService(db)
	ctx := context.Background()

	p := seedProject(t, db, org.ID, admin.ID, "Secret")

	if _, err := projects.GetByID(ctx, p.ID, org.ID); err != nil {
		t.Fatalf("Owner lookup failed: %v", err)
	}
	if _, err := projects.GetByID(ctx, p.ID, other.ID); err == nil {
		t.Error("Expected cross-org lookup to fail")
	}

	ok, err := projects.BelongsToOrg(ctx, p.ID, other.ID)
	if err != nil {
		t.Fatalf("BelongsToOrg failed: %v", err)
	}
	if ok {
		t.Error("BelongsToOrg must be false for another org")
	}
}

func TestProjectUpdate(t *testing.T) {
	db := newTestDB(t, "test_project_update.db")
	org, admin := seedOrg(t, db, "Acme", "admin@acme.test")
	projects := NewProjectService(db)
	ctx := context.Background()

	p := seedProject(t, db, org.ID, admin.ID, "Before")

	updated, err := projects.Update(ctx, p.ID, org.ID, &models.ProjectInput{
		Name:      "After",
		Color:     "#EF4444",
		Status:    models.ProjectActive,
		StartDate: "2026-02-01",
		EndDate:   "2026-11-30",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "After" || updated.Status != models.ProjectActive {
		t.Errorf("Update not applied: %+v", updated)
	}
}

func TestProjectDelete_CascadesTasks(t *testing.T) {
	db := newTestDB(t, "test_project_delete.db")
	org, admin := seedOrg(t, db, "Acme", "admin@acme.test")
	projects := NewProjectService(db)
	tasks := NewTaskService(db, nil)
	ctx := context.Background()

	p := seedProject(t, db, org.ID, admin.ID, "Doomed")
	task := seedTask(t, tasks, p.ID, "Goes with it")

	if err := projects.Delete(ctx, p.ID, org.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := projects.GetByID(ctx, p.ID, org.ID); err == nil {
		t.Error("Expected project to be gone")
	}
	if _, err := tasks.GetByID(ctx, task.ID, org.ID); err == nil {
		t.Error("Expected tasks to cascade away with the project")
	}
}
