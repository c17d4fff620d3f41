package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestProjectLifecycle(t *testing.T) {
	app := newTestApp(t, "test_h_project_lifecycle.db")
	session := register(t, app, "Acme", "admin@acme.test")

	created := createProject(t, app, session.AccessToken, "Website")
	projectID := created["id"].(string)
	if created["status"] != "planning" {
		t.Errorf("Expected default status planning, got %v", created["status"])
	}

	// List includes aggregated task metrics
	createTask(t, app, session.AccessToken, projectID, "Only task")
	resp := request(t, app, "GET", "/api/projects", session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("List returned %d", resp.StatusCode)
	}
	var list struct {
		Data []map[string]interface{} `json:"data"`
	}
	decode(t, resp, &list)
	if len(list.Data) != 1 || list.Data[0]["task_count"].(float64) != 1 {
		t.Errorf("Unexpected list: %+v", list.Data)
	}

	// Full replace via PUT
	resp = request(t, app, "PUT", "/api/projects/"+projectID, session.AccessToken, map[string]string{
		"name":       "Website v2",
		"color":      "#EF4444",
		"status":     "active",
		"start_date": "2026-02-01",
		"end_date":   "2026-11-30",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Update returned %d", resp.StatusCode)
	}
	var updated struct {
		Data map[string]interface{} `json:"data"`
	}
	decode(t, resp, &updated)
	if updated.Data["name"] != "Website v2" || updated.Data["status"] != "active" {
		t.Errorf("Update not applied: %+v", updated.Data)
	}

	resp = request(t, app, "DELETE", "/api/projects/"+projectID, session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Delete returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = request(t, app, "GET", "/api/projects/"+projectID, session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProjectCreate_Validation(t *testing.T) {
	app := newTestApp(t, "test_h_project_validation.db")
	session := register(t, app, "Acme", "admin@acme.test")

	// Bad color and inverted dates
	resp := request(t, app, "POST", "/api/projects", session.AccessToken, map[string]string{
		"name":       "Broken",
		"color":      "red",
		"start_date": "2026-06-01",
		"end_date":   "2026-01-01",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Fields []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	decode(t, resp, &body)

	fields := map[string]bool{}
	for _, f := range body.Fields {
		fields[f.Field] = true
	}
	if !fields["color"] || !fields["end_date"] {
		t.Errorf("Expected color and end_date errors, got %+v", body.Fields)
	}
}

func TestProjectGantt(t *testing.T) {
	app := newTestApp(t, "test_h_project_gantt.db")
	session := register(t, app, "Acme", "admin@acme.test")
	project := createProject(t, app, session.AccessToken, "Plan")
	projectID := project["id"].(string)

	first := createTask(t, app, session.AccessToken, projectID, "First")
	second := createTask(t, app, session.AccessToken, projectID, "Second")

	resp := request(t, app, "POST", "/api/tasks/"+second["id"].(string)+"/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": first["id"].(string),
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Dependency create returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = request(t, app, "GET", "/api/projects/"+projectID+"/gantt", session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Gantt returned %d", resp.StatusCode)
	}
	var gantt struct {
		Data struct {
			Project      map[string]interface{}   `json:"project"`
			Tasks        []map[string]interface{} `json:"tasks"`
			Dependencies []map[string]interface{} `json:"dependencies"`
		} `json:"data"`
	}
	decode(t, resp, &gantt)

	if gantt.Data.Project["id"] != projectID {
		t.Errorf("Wrong project in payload: %+v", gantt.Data.Project)
	}
	if len(gantt.Data.Tasks) != 2 || gantt.Data.Tasks[0]["title"] != "First" {
		t.Errorf("Expected ordered tasks, got %+v", gantt.Data.Tasks)
	}
	if len(gantt.Data.Dependencies) != 1 {
		t.Errorf("Expected 1 dependency, got %+v", gantt.Data.Dependencies)
	}
}

func TestProjectGantt_CrossOrg(t *testing.T) {
	app := newTestApp(t, "test_h_project_gantt_crossorg.db")
	ours := register(t, app, "Acme", "admin@acme.test")
	theirs := register(t, app, "Rival", "admin@rival.test")

	project := createProject(t, app, ours.AccessToken, "Secret")

	resp := request(t, app, "GET", "/api/projects/"+project["id"].(string)+"/gantt", theirs.AccessToken, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404 for another org, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
