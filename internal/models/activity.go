package models

import "time"

// Activity action strings
const (
	ActionProjectCreated = "project.created"
	ActionProjectUpdated = "project.updated"
	ActionProjectDeleted = "project.deleted"
	ActionTaskCreated    = "task.created"
	ActionTaskUpdated    = "task.updated"
	ActionTaskDeleted    = "task.deleted"
	ActionTaskDelayed    = "task.delayed"
	ActionCommentPosted  = "comment.posted"
)

// Activity is an immutable audit record of an action against a task or
// project. Stored in MongoDB when configured.
type Activity struct {
	ID        string                 `bson:"_id" json:"id"`
	OrgID     string                 `bson:"orgId" json:"org_id"`
	UserID    string                 `bson:"userId" json:"user_id"`
	ProjectID string                 `bson:"projectId,omitempty" json:"project_id,omitempty"`
	TaskID    string                 `bson:"taskId,omitempty" json:"task_id,omitempty"`
	Action    string                 `bson:"action" json:"action"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"created_at"`
}
