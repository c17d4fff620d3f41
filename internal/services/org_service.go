package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
)

// OrgService handles organization records
type OrgService struct {
	db *database.DB
}

// NewOrgService creates a new organization service
func NewOrgService(db *database.DB) *OrgService {
	return &OrgService{db: db}
}

// CreateWithAdmin creates an organization and its first user in a single
// transaction. The first user is always an admin. If the derived slug is
// already taken, a numeric suffix is appended (acme, acme-2, acme-3, ...).
func (s *OrgService) CreateWithAdmin(ctx context.Context, orgName, email, fullName, passwordHash string) (*models.Organization, *models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slug, err := s.availableSlug(ctx, tx, models.Slugify(orgName))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	org := &models.Organization{
		ID:        uuid.New().String(),
		Name:      orgName,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		org.ID, org.Name, org.Slug, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create organization: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		OrgID:        org.ID,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, org_id, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.OrgID, user.Role, user.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}

	log.Printf("✅ Organization created: %s (%s)", org.Name, org.Slug)
	return org, user, nil
}

// availableSlug finds a free slug, appending -2, -3, ... on collision
func (s *OrgService) availableSlug(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	if base == "" {
		base = "org"
	}

	candidate := base
	for i := 2; ; i++ {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM organizations WHERE slug = ?`, candidate).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if exists == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetByID retrieves an organization
func (s *OrgService) GetByID(ctx context.Context, orgID string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = ?`, orgID).
		Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetBySlug retrieves an organization by its URL slug
func (s *OrgService) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE slug = ?`, slug).
		Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// Rename updates an organization's display name. The slug is immutable:
// it may appear in bookmarked URLs.
func (s *OrgService) Rename(ctx context.Context, orgID, name string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), orgID)
	if err != nil {
		return fmt.Errorf("failed to rename organization: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("organization not found")
	}
	return nil
}
