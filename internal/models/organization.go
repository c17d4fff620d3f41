package models

import (
	"strings"
	"time"
)

// Organization is a tenant. All users, projects, and tasks belong to
// exactly one organization.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slugify derives the URL slug for an organization name: lower-cased,
// every run of characters outside [a-z0-9] collapsed to one hyphen,
// leading and trailing hyphens trimmed.
func Slugify(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
