package models

import "sort"

// Task event operations
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// TaskEvent is a tagged change notification for one task. Delete events
// carry only the task ID.
type TaskEvent struct {
	Op        string `json:"op"`
	ProjectID string `json:"project_id"`
	TaskID    string `json:"task_id"`
	Task      *Task  `json:"task,omitempty"`
}

// ApplyTaskEvent merges a change event into an order_index-sorted task
// list and returns the new list. Merging is last-write-wins by task ID
// in event arrival order: an update for an unknown ID inserts, an
// insert for a known ID replaces.
func ApplyTaskEvent(tasks []Task, ev TaskEvent) []Task {
	switch ev.Op {
	case EventDelete:
		out := make([]Task, 0, len(tasks))
		for _, t := range tasks {
			if t.ID != ev.TaskID {
				out = append(out, t)
			}
		}
		return out

	case EventInsert, EventUpdate:
		if ev.Task == nil {
			return tasks
		}
		out := make([]Task, 0, len(tasks)+1)
		replaced := false
		for _, t := range tasks {
			if t.ID == ev.Task.ID {
				out = append(out, *ev.Task)
				replaced = true
			} else {
				out = append(out, t)
			}
		}
		if !replaced {
			out = append(out, *ev.Task)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].OrderIndex < out[j].OrderIndex
		})
		return out
	}

	return tasks
}
