package models

import "time"

// Role controls mutation rights within an organization.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ValidRole reports whether s is a known role
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleMember || s == RoleViewer
}

// CanMutate reports whether a role may create, update, or delete
// projects and tasks. Viewers are read-only.
func CanMutate(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// User represents an account in the local auth system
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"` // Argon2id hash, never exposed in API
	OrgID        string     `json:"org_id"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// UserResponse is the API response for user data
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	OrgID     string     `json:"org_id"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		OrgID:     u.OrgID,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
