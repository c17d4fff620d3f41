package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestDependencyEndpoints(t *testing.T) {
	app := newTestApp(t, "test_h_dep.db")
	session := register(t, app, "Acme", "admin@acme.test")
	project := createProject(t, app, session.AccessToken, "Deps")
	projectID := project["id"].(string)

	first := createTask(t, app, session.AccessToken, projectID, "First")
	second := createTask(t, app, session.AccessToken, projectID, "Second")

	resp := request(t, app, "POST", "/api/tasks/"+second["id"].(string)+"/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": first["id"].(string),
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Create returned %d", resp.StatusCode)
	}
	var created struct {
		Data map[string]interface{} `json:"data"`
	}
	decode(t, resp, &created)
	depID := created.Data["id"].(string)

	resp = request(t, app, "GET", "/api/projects/"+projectID+"/dependencies", session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("List returned %d", resp.StatusCode)
	}
	var list struct {
		Data []map[string]interface{} `json:"data"`
	}
	decode(t, resp, &list)
	if len(list.Data) != 1 {
		t.Errorf("Expected 1 dependency, got %+v", list.Data)
	}

	resp = request(t, app, "DELETE", "/api/dependencies/"+depID, session.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Delete returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDependencyCreate_Rejections(t *testing.T) {
	app := newTestApp(t, "test_h_dep_reject.db")
	session := register(t, app, "Acme", "admin@acme.test")
	project := createProject(t, app, session.AccessToken, "Deps")
	projectID := project["id"].(string)

	a := createTask(t, app, session.AccessToken, projectID, "A")
	b := createTask(t, app, session.AccessToken, projectID, "B")
	aID := a["id"].(string)
	bID := b["id"].(string)

	// Self-reference
	resp := request(t, app, "POST", "/api/tasks/"+aID+"/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": aID,
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for self-reference, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// B -> A, then A -> B closes a cycle
	resp = request(t, app, "POST", "/api/tasks/"+bID+"/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": aID,
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("B->A returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = request(t, app, "POST", "/api/tasks/"+aID+"/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": bID,
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for cycle, got %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	if body.Error == "" {
		t.Error("Expected an error message")
	}

	// Duplicate edge
	resp = request(t, app, "POST", "/api/tasks/"+bID+"/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": aID,
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown target task
	resp = request(t, app, "POST", "/api/tasks/no-such-task/dependencies", session.AccessToken, map[string]string{
		"depends_on_task_id": aID,
		"dependency_type":    "finish_to_start",
	})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404 for unknown task, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCommentEndpoints(t *testing.T) {
	app := newTestApp(t, "test_h_comment.db")
	admin := register(t, app, "Acme", "admin@acme.test")
	member := addTeammate(t, app, admin.AccessToken, "mem@acme.test", "member")

	project := createProject(t, app, admin.AccessToken, "Comments")
	task := createTask(t, app, admin.AccessToken, project["id"].(string), "Discussed")
	taskID := task["id"].(string)

	resp := request(t, app, "POST", "/api/tasks/"+taskID+"/comments", member.AccessToken, map[string]interface{}{
		"content":  "Mentioning **you** here",
		"mentions": []string{admin.User.ID},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Create returned %d", resp.StatusCode)
	}
	var created struct {
		Data map[string]interface{} `json:"data"`
	}
	decode(t, resp, &created)
	commentID := created.Data["id"].(string)
	if created.Data["content_html"] == nil || created.Data["content_html"] == "" {
		t.Error("Expected rendered markdown in the response")
	}

	resp = request(t, app, "GET", "/api/tasks/"+taskID+"/comments", admin.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("List returned %d", resp.StatusCode)
	}
	var list struct {
		Data []map[string]interface{} `json:"data"`
	}
	decode(t, resp, &list)
	if len(list.Data) != 1 {
		t.Errorf("Expected 1 comment, got %+v", list.Data)
	}

	// A mention outside the org is rejected
	resp = request(t, app, "POST", "/api/tasks/"+taskID+"/comments", member.AccessToken, map[string]interface{}{
		"content":  "cc nobody",
		"mentions": []string{"00000000-0000-4000-8000-000000000000"},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for foreign mention, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Another member cannot delete the comment, an admin can
	bystander := addTeammate(t, app, admin.AccessToken, "by@acme.test", "member")
	resp = request(t, app, "DELETE", "/api/comments/"+commentID, bystander.AccessToken, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403 for non-author, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = request(t, app, "DELETE", "/api/comments/"+commentID, admin.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Admin delete returned %d", resp.StatusCode)
	}
	resp.Body.Close()
}
