package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ganttboard/internal/database"
	"ganttboard/internal/models"

	"github.com/google/uuid"
)

// UserService handles user accounts within organizations
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, email, full_name, password_hash, org_id, role, created_at, last_login`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
		&user.OrgID, &user.Role, &user.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// GetByEmail retrieves a user by email (login path, any org)
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user scoped to an organization
func (s *UserService) GetByID(ctx context.Context, userID, orgID string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND org_id = ?`, userID, orgID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ResolveRole returns the stored role of a user within an organization.
// Used by the access middleware on every authenticated request.
func (s *UserService) ResolveRole(ctx context.Context, userID, orgID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id = ? AND org_id = ?`, userID, orgID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("user not found in organization")
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return role, nil
}

// ListByOrg returns all members of an organization, admins first
func (s *UserService) ListByOrg(ctx context.Context, orgID string) ([]models.UserResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE org_id = ?
		 ORDER BY CASE role WHEN 'admin' THEN 0 WHEN 'member' THEN 1 ELSE 2 END, created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.UserResponse{}
	for rows.Next() {
		var user models.User
		var lastLogin sql.NullTime
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash,
			&user.OrgID, &user.Role, &user.CreatedAt, &lastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if lastLogin.Valid {
			user.LastLogin = &lastLogin.Time
		}
		users = append(users, user.ToResponse())
	}
	return users, rows.Err()
}

// Create adds a user to an existing organization (admin invite path)
func (s *UserService) Create(ctx context.Context, orgID, email, fullName, passwordHash, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		OrgID:        orgID,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, org_id, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.OrgID, user.Role, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// EmailTaken reports whether an email is already registered
func (s *UserService) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// UpdateRole changes a member's role. The last admin of an organization
// cannot be demoted: an org without admins is unrecoverable.
func (s *UserService) UpdateRole(ctx context.Context, userID, orgID, newRole string) error {
	if !models.ValidRole(newRole) {
		return fmt.Errorf("invalid role: %s", newRole)
	}

	if newRole != models.RoleAdmin {
		lastAdmin, err := s.isLastAdmin(ctx, userID, orgID)
		if err != nil {
			return err
		}
		if lastAdmin {
			return fmt.Errorf("cannot demote the last admin")
		}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ? AND org_id = ?`, newRole, userID, orgID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// Delete removes a user from an organization. Tasks assigned to them
// keep the stale assignee ID; clients render it as "unassigned".
func (s *UserService) Delete(ctx context.Context, userID, orgID string) error {
	lastAdmin, err := s.isLastAdmin(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if lastAdmin {
		return fmt.Errorf("cannot remove the last admin")
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = ? AND org_id = ?`, userID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) isLastAdmin(ctx context.Context, userID, orgID string) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id = ? AND org_id = ?`, userID, orgID).Scan(&role)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("user not found")
	}
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	if role != models.RoleAdmin {
		return false, nil
	}

	var admins int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE org_id = ? AND role = ?`, orgID, models.RoleAdmin).Scan(&admins)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	return admins <= 1, nil
}

// RecordLogin stamps last_login on a successful authentication
func (s *UserService) RecordLogin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// AllMembersOfOrg reports whether every given user ID belongs to the org.
// Used to validate comment mentions.
func (s *UserService) AllMembersOfOrg(ctx context.Context, orgID string, userIDs []string) (bool, error) {
	for _, id := range userIDs {
		var count int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id = ? AND org_id = ?`, id, orgID).Scan(&count)
		if err != nil {
			return false, fmt.Errorf("failed to check membership: %w", err)
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}
