package validate

import (
	"testing"

	"ganttboard/internal/models"

	"github.com/google/uuid"
)

func validProject() models.ProjectInput {
	return models.ProjectInput{
		Name:      "Website Redesign",
		Color:     "#4F46E5",
		Status:    "active",
		StartDate: "2026-01-01",
		EndDate:   "2026-06-30",
	}
}

func validTask() models.TaskInput {
	return models.TaskInput{
		ProjectID: uuid.New().String(),
		Title:     "Draft wireframes",
		StartDate: "2026-01-05",
		EndDate:   "2026-01-12",
		Progress:  30,
		Status:    "in_progress",
		Priority:  "high",
	}
}

func hasField(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestProjectInput_Valid(t *testing.T) {
	in := validProject()
	if errs := Struct(&in); errs != nil {
		t.Errorf("Expected valid project, got errors: %+v", errs)
	}
}

func TestProjectInput_BadColor(t *testing.T) {
	tests := []string{"4F46E5", "#4F46E", "#4F46E5FF", "blue", "#GGGGGG", ""}
	for _, color := range tests {
		in := validProject()
		in.Color = color
		errs := Struct(&in)
		if !hasField(errs, "color") {
			t.Errorf("Expected color error for %q, got %+v", color, errs)
		}
	}
}

func TestProjectInput_BadDateFormat(t *testing.T) {
	in := validProject()
	in.StartDate = "01/06/2026"
	errs := Struct(&in)
	if !hasField(errs, "start_date") {
		t.Errorf("Expected start_date error, got %+v", errs)
	}
}

func TestProjectInput_EndBeforeStart(t *testing.T) {
	in := validProject()
	in.StartDate = "2026-06-30"
	in.EndDate = "2026-01-01"
	errs := Struct(&in)
	if !hasField(errs, "end_date") {
		t.Errorf("Expected end_date error, got %+v", errs)
	}
}

func TestProjectInput_SameDayAllowed(t *testing.T) {
	in := validProject()
	in.StartDate = "2026-03-15"
	in.EndDate = "2026-03-15"
	if errs := Struct(&in); errs != nil {
		t.Errorf("Single-day project should be valid, got %+v", errs)
	}
}

func TestProjectInput_BadStatus(t *testing.T) {
	in := validProject()
	in.Status = "paused"
	errs := Struct(&in)
	if !hasField(errs, "status") {
		t.Errorf("Expected status error, got %+v", errs)
	}
}

func TestProjectInput_EmptyStatusAllowed(t *testing.T) {
	in := validProject()
	in.Status = ""
	if errs := Struct(&in); errs != nil {
		t.Errorf("Empty status should default later, got %+v", errs)
	}
}

func TestTaskInput_Valid(t *testing.T) {
	in := validTask()
	if errs := Struct(&in); errs != nil {
		t.Errorf("Expected valid task, got errors: %+v", errs)
	}
}

func TestTaskInput_MissingProjectID(t *testing.T) {
	in := validTask()
	in.ProjectID = ""
	errs := Struct(&in)
	if !hasField(errs, "project_id") {
		t.Errorf("Expected project_id error, got %+v", errs)
	}
}

func TestTaskInput_ProgressOutOfRange(t *testing.T) {
	for _, progress := range []int{-1, 101, 150} {
		in := validTask()
		in.Progress = progress
		errs := Struct(&in)
		if !hasField(errs, "progress") {
			t.Errorf("Expected progress error for %d, got %+v", progress, errs)
		}
	}
}

func TestTaskInput_ProgressBounds(t *testing.T) {
	for _, progress := range []int{0, 100} {
		in := validTask()
		in.Progress = progress
		if errs := Struct(&in); errs != nil {
			t.Errorf("Progress %d should be valid, got %+v", progress, errs)
		}
	}
}

func TestTaskInput_EmptyTitle(t *testing.T) {
	in := validTask()
	in.Title = ""
	errs := Struct(&in)
	if !hasField(errs, "title") {
		t.Errorf("Expected title error, got %+v", errs)
	}
}

func TestTaskInput_EndBeforeStart(t *testing.T) {
	in := validTask()
	in.StartDate = "2026-02-01"
	in.EndDate = "2026-01-01"
	errs := Struct(&in)
	if !hasField(errs, "end_date") {
		t.Errorf("Expected end_date error, got %+v", errs)
	}
}

func TestTaskPatch_PartialDatesSkipCrossCheck(t *testing.T) {
	// Only one date present: the cross-field rule can't fire. The
	// service re-checks against the stored row.
	end := "2020-01-01"
	patch := models.TaskPatch{EndDate: &end}
	if errs := Struct(&patch); errs != nil {
		t.Errorf("Patch with only end_date should pass, got %+v", errs)
	}
}

func TestTaskPatch_BothDatesChecked(t *testing.T) {
	start := "2026-05-01"
	end := "2026-04-01"
	patch := models.TaskPatch{StartDate: &start, EndDate: &end}
	errs := Struct(&patch)
	if !hasField(errs, "end_date") {
		t.Errorf("Expected end_date error, got %+v", errs)
	}
}

func TestRegisterInput(t *testing.T) {
	in := RegisterInput{
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
		FullName: "Ana Torres",
		OrgName:  "Acme Co",
	}
	if errs := Struct(&in); errs != nil {
		t.Errorf("Expected valid registration, got %+v", errs)
	}

	in.Password = "short"
	errs := Struct(&in)
	if !hasField(errs, "password") {
		t.Errorf("Expected password error, got %+v", errs)
	}

	in.Password = "hunter2hunter2"
	in.Email = "not-an-email"
	errs = Struct(&in)
	if !hasField(errs, "email") {
		t.Errorf("Expected email error, got %+v", errs)
	}
}
