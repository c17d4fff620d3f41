package models

import "time"

// Comment is a free-text note on a task, optionally mentioning other
// users of the same organization.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Mentions  []string  `json:"mentions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentInput is the request body for posting a comment
type CommentInput struct {
	Content  string   `json:"content" validate:"required,min=1,max=5000"`
	Mentions []string `json:"mentions" validate:"dive,uuid4"`
}

// CommentResponse carries the comment plus its rendered HTML body
type CommentResponse struct {
	Comment
	ContentHTML string `json:"content_html"`
}
