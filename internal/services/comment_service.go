package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// CommentService handles task comments. Content is stored as markdown
// and rendered to HTML on the way out.
type CommentService struct {
	db       *database.DB
	users    *UserService
	markdown goldmark.Markdown
}

// NewCommentService creates a new comment service
func NewCommentService(db *database.DB, users *UserService) *CommentService {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			// Comments are user input; raw HTML stays escaped
			html.WithHardWraps(),
		),
	)
	return &CommentService{db: db, users: users, markdown: md}
}

// render converts markdown content to HTML. A render failure falls back
// to the raw text so the comment is never lost.
func (s *CommentService) render(content string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		log.Printf("⚠️  Markdown render failed: %v", err)
		return content
	}
	return buf.String()
}

// ListByTask returns a task's comments oldest first, with rendered HTML
func (s *CommentService) ListByTask(ctx context.Context, taskID, orgID string) ([]models.CommentResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.task_id, c.user_id, c.content, c.mentions, c.created_at, c.updated_at
		 FROM comments c
		 JOIN tasks t ON t.id = c.task_id
		 JOIN projects p ON p.id = t.project_id
		 WHERE c.task_id = ? AND p.org_id = ?
		 ORDER BY c.created_at`, taskID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.CommentResponse{}
	for rows.Next() {
		var c models.Comment
		var mentionsJSON string
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &mentionsJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if err := json.Unmarshal([]byte(mentionsJSON), &c.Mentions); err != nil {
			c.Mentions = []string{}
		}
		comments = append(comments, models.CommentResponse{
			Comment:     c,
			ContentHTML: s.render(c.Content),
		})
	}
	return comments, rows.Err()
}

// Create posts a comment on a task. Every mentioned user must belong to
// the same organization.
func (s *CommentService) Create(ctx context.Context, taskID, orgID, userID string, input *models.CommentInput) (*models.CommentResponse, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.id = ? AND p.org_id = ?`, taskID, orgID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check task: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("task not found")
	}

	if len(input.Mentions) > 0 {
		ok, err := s.users.AllMembersOfOrg(ctx, orgID, input.Mentions)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("mentions must reference members of your organization")
		}
	}

	mentions := input.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	mentionsJSON, err := json.Marshal(mentions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mentions: %w", err)
	}

	now := time.Now().UTC()
	c := models.Comment{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		UserID:    userID,
		Content:   input.Content,
		Mentions:  mentions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comments (id, task_id, user_id, content, mentions, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TaskID, c.UserID, c.Content, string(mentionsJSON), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return &models.CommentResponse{Comment: c, ContentHTML: s.render(c.Content)}, nil
}

// Delete removes a comment. Only the author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, commentID, orgID, userID, role string) error {
	var authorID string
	err := s.db.QueryRowContext(ctx,
		`SELECT c.user_id FROM comments c
		 JOIN tasks t ON t.id = c.task_id
		 JOIN projects p ON p.id = t.project_id
		 WHERE c.id = ? AND p.org_id = ?`, commentID, orgID).Scan(&authorID)
	if err != nil {
		return fmt.Errorf("comment not found")
	}

	if authorID != userID && role != models.RoleAdmin {
		return fmt.Errorf("only the author or an admin can delete a comment")
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
