package services

import (
	"encoding/json"
	"testing"

	"ganttboard/internal/models"
)

func TestFeedSubscribeAndPublish(t *testing.T) {
	feed := NewProjectFeed(nil)

	sub := feed.Subscribe("project-1", "user-1")
	defer feed.Unsubscribe(sub)

	if feed.Count() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", feed.Count())
	}

	feed.Publish(models.TaskEvent{
		Op:        models.EventInsert,
		ProjectID: "project-1",
		TaskID:    "task-1",
		Task:      &models.Task{ID: "task-1", ProjectID: "project-1", Title: "Hello"},
	})

	select {
	case data := <-sub.Send:
		var ev models.TaskEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("Failed to decode event: %v", err)
		}
		if ev.Op != models.EventInsert || ev.TaskID != "task-1" {
			t.Errorf("Wrong event: %+v", ev)
		}
	default:
		t.Fatal("Expected an event on the send channel")
	}
}

func TestFeedScopedToProject(t *testing.T) {
	feed := NewProjectFeed(nil)

	watching := feed.Subscribe("project-1", "user-1")
	elsewhere := feed.Subscribe("project-2", "user-2")
	defer feed.Unsubscribe(watching)
	defer feed.Unsubscribe(elsewhere)

	feed.Publish(models.TaskEvent{Op: models.EventDelete, ProjectID: "project-1", TaskID: "task-1"})

	if len(watching.Send) != 1 {
		t.Errorf("Expected 1 event for the watched project, got %d", len(watching.Send))
	}
	if len(elsewhere.Send) != 0 {
		t.Errorf("Expected no events for another project, got %d", len(elsewhere.Send))
	}
}

func TestFeedUnsubscribeClosesChannel(t *testing.T) {
	feed := NewProjectFeed(nil)

	sub := feed.Subscribe("project-1", "user-1")
	feed.Unsubscribe(sub)

	if feed.Count() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", feed.Count())
	}

	if _, open := <-sub.Send; open {
		t.Error("Expected send channel to be closed")
	}

	// A second unsubscribe is a no-op, not a double close
	feed.Unsubscribe(sub)
}

func TestFeedSnapshotFollowsEvents(t *testing.T) {
	feed := NewProjectFeed(nil)

	// No subscribers yet: nothing to prime, nothing to serve
	feed.Prime("project-1", []models.Task{{ID: "a", OrderIndex: 1}})
	if _, ok := feed.Snapshot("project-1"); ok {
		t.Fatal("Expected no snapshot without subscribers")
	}

	sub := feed.Subscribe("project-1", "user-1")
	feed.Prime("project-1", []models.Task{
		{ID: "a", OrderIndex: 1, Title: "First"},
		{ID: "b", OrderIndex: 2, Title: "Second"},
	})

	// Each published event folds into the held snapshot
	feed.Publish(models.TaskEvent{
		Op:        models.EventInsert,
		ProjectID: "project-1",
		TaskID:    "c",
		Task:      &models.Task{ID: "c", OrderIndex: 3, Title: "Third"},
	})
	feed.Publish(models.TaskEvent{Op: models.EventDelete, ProjectID: "project-1", TaskID: "a"})

	tasks, ok := feed.Snapshot("project-1")
	if !ok {
		t.Fatal("Expected a snapshot after priming")
	}
	if len(tasks) != 2 || tasks[0].ID != "b" || tasks[1].ID != "c" {
		t.Errorf("Snapshot out of step with events: %+v", tasks)
	}

	// Priming again must not clobber the event-folded state
	feed.Prime("project-1", []models.Task{{ID: "stale", OrderIndex: 1}})
	tasks, _ = feed.Snapshot("project-1")
	if len(tasks) != 2 || tasks[0].ID != "b" {
		t.Errorf("Second prime clobbered the snapshot: %+v", tasks)
	}

	// The last subscriber leaving discards the snapshot
	feed.Unsubscribe(sub)
	for range sub.Send {
	}
	if _, ok := feed.Snapshot("project-1"); ok {
		t.Error("Expected snapshot to be dropped with the last subscriber")
	}
}

func TestFeedDropsSlowSubscriber(t *testing.T) {
	feed := NewProjectFeed(nil)

	sub := feed.Subscribe("project-1", "user-1")

	// Nobody drains Send; once the buffer is full the subscriber
	// must be dropped rather than block the broadcaster.
	for i := 0; i <= feedSendBuffer; i++ {
		feed.Publish(models.TaskEvent{Op: models.EventUpdate, ProjectID: "project-1", TaskID: "task-1"})
	}

	if feed.Count() != 0 {
		t.Errorf("Expected slow subscriber to be dropped, count is %d", feed.Count())
	}
	if _, open := <-sub.Send; !open {
		return
	}
	// Drain whatever was buffered; the channel must end up closed
	for range sub.Send {
	}
}
