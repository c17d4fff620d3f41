package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"ganttboard/internal/database"
	"ganttboard/internal/models"
	"ganttboard/pkg/auth"

	"gopkg.in/yaml.v3"
)

// SeedService loads demo data from a YAML file on startup. It only runs
// against an empty database, so restarting a seeded instance is safe.
type SeedService struct {
	db       *database.DB
	orgs     *OrgService
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
}

// NewSeedService creates a new seed service
func NewSeedService(db *database.DB, orgs *OrgService, users *UserService, projects *ProjectService, tasks *TaskService) *SeedService {
	return &SeedService{db: db, orgs: orgs, users: users, projects: projects, tasks: tasks}
}

type seedFile struct {
	Organization struct {
		Name string `yaml:"name"`
	} `yaml:"organization"`
	Users []struct {
		Email    string `yaml:"email"`
		FullName string `yaml:"full_name"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
	Projects []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Color       string `yaml:"color"`
		Status      string `yaml:"status"`
		StartDate   string `yaml:"start_date"`
		EndDate     string `yaml:"end_date"`
		Tasks       []struct {
			Title     string `yaml:"title"`
			StartDate string `yaml:"start_date"`
			EndDate   string `yaml:"end_date"`
			Status    string `yaml:"status"`
			Priority  string `yaml:"priority"`
			Progress  int    `yaml:"progress"`
			Assignee  string `yaml:"assignee"` // email of a seeded user
		} `yaml:"tasks"`
	} `yaml:"projects"`
}

// Run loads and applies the seed file. A non-empty database skips
// seeding entirely.
func (s *SeedService) Run(ctx context.Context, path string) error {
	var orgCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&orgCount); err != nil {
		return fmt.Errorf("failed to check for existing data: %w", err)
	}
	if orgCount > 0 {
		log.Println("⏭️  Seed skipped: database already has data")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	if seed.Organization.Name == "" || len(seed.Users) == 0 {
		return fmt.Errorf("seed file needs an organization and at least one user")
	}

	// First seeded user becomes the org admin regardless of its role field
	first := seed.Users[0]
	hash, err := auth.HashPassword(first.Password)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	org, admin, err := s.orgs.CreateWithAdmin(ctx, seed.Organization.Name, first.Email, first.FullName, hash)
	if err != nil {
		return err
	}

	userByEmail := map[string]string{admin.Email: admin.ID}
	for _, u := range seed.Users[1:] {
		role := u.Role
		if !models.ValidRole(role) {
			role = models.RoleMember
		}
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		user, err := s.users.Create(ctx, org.ID, u.Email, u.FullName, hash, role)
		if err != nil {
			return err
		}
		userByEmail[user.Email] = user.ID
	}

	for _, p := range seed.Projects {
		project, err := s.projects.Create(ctx, org.ID, admin.ID, &models.ProjectInput{
			Name:        p.Name,
			Description: p.Description,
			Color:       p.Color,
			Status:      p.Status,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
		})
		if err != nil {
			return err
		}

		for _, t := range p.Tasks {
			input := &models.TaskInput{
				ProjectID: project.ID,
				Title:     t.Title,
				StartDate: t.StartDate,
				EndDate:   t.EndDate,
				Status:    t.Status,
				Priority:  t.Priority,
				Progress:  t.Progress,
			}
			if t.Assignee != "" {
				input.AssignedTo = userByEmail[t.Assignee]
			}
			if _, err := s.tasks.Create(ctx, input); err != nil {
				return err
			}
		}
	}

	log.Printf("✅ Seeded organization %q with %d users and %d projects", org.Name, len(seed.Users), len(seed.Projects))
	return nil
}
