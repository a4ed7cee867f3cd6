package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"pronet/internal/cache"
	"pronet/internal/models"
	"pronet/internal/repository"
)

// ShowcaseService implements portfolio projects, skills and freelance job
// history with client feedback.
type ShowcaseService struct {
	projectRepo repository.ProjectRepository
	skillRepo   repository.SkillRepository
	jobRepo     repository.JobRepository
	userRepo    repository.UserRepository
}

type CreateProjectInput struct {
	UserID      uint
	Title       string
	Description string
	Link        string
	ImageURL    string
}

type UpdateProjectInput struct {
	UserID      uint
	ProjectID   uint
	Title       string
	Description string
	Link        string
	ImageURL    string
}

type CreateJobInput struct {
	UserID      uint
	ClientID    uint
	Title       string
	Description string
	CompletedAt time.Time
}

type AddFeedbackInput struct {
	UserID  uint
	JobID   uint
	Rating  int
	Comment string
}

// NewShowcaseService creates a ShowcaseService.
func NewShowcaseService(
	projectRepo repository.ProjectRepository,
	skillRepo repository.SkillRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
) *ShowcaseService {
	return &ShowcaseService{
		projectRepo: projectRepo,
		skillRepo:   skillRepo,
		jobRepo:     jobRepo,
		userRepo:    userRepo,
	}
}

func (s *ShowcaseService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Project title is required")
	}
	if len(title) > 200 {
		return nil, models.NewValidationError("Project title too long (max 200 characters)")
	}
	if in.Link != "" {
		if _, err := url.ParseRequestURI(in.Link); err != nil {
			return nil, models.NewValidationError("Project link is not a valid URL")
		}
	}

	project := &models.Project{
		UserID:      in.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Link:        in.Link,
		ImageURL:    in.ImageURL,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	project.Platform = DetectPlatform(project.Link)
	cache.InvalidateUser(ctx, in.UserID)
	return project, nil
}

func (s *ShowcaseService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own projects")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Project title is required")
	}
	if in.Link != "" {
		if _, err := url.ParseRequestURI(in.Link); err != nil {
			return nil, models.NewValidationError("Project link is not a valid URL")
		}
	}

	project.Title = title
	project.Description = strings.TrimSpace(in.Description)
	project.Link = in.Link
	project.ImageURL = in.ImageURL
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	project.Platform = DetectPlatform(project.Link)
	cache.InvalidateUser(ctx, in.UserID)
	return project, nil
}

func (s *ShowcaseService) DeleteProject(ctx context.Context, projectID, userID uint) error {
	if err := s.projectRepo.Delete(ctx, projectID, userID); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (s *ShowcaseService) ListProjects(ctx context.Context, userID uint) ([]models.Project, error) {
	projects, err := s.projectRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Platform = DetectPlatform(projects[i].Link)
	}
	return projects, nil
}

// AddSkill attaches a skill to the user, creating the skill on first use.
// Skill names are deduplicated case-insensitively.
func (s *ShowcaseService) AddSkill(ctx context.Context, userID uint, name string) (*models.Skill, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, models.NewValidationError("Skill name is required")
	}
	if len(trimmed) > 60 {
		return nil, models.NewValidationError("Skill name too long (max 60 characters)")
	}

	skill, err := s.skillRepo.FindOrCreate(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if err := s.skillRepo.AddUserSkill(ctx, userID, skill.ID); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, userID)
	return skill, nil
}

func (s *ShowcaseService) RemoveSkill(ctx context.Context, userID, skillID uint) error {
	if err := s.skillRepo.RemoveUserSkill(ctx, userID, skillID); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (s *ShowcaseService) ListSkills(ctx context.Context) ([]models.Skill, error) {
	return s.skillRepo.List(ctx)
}

func (s *ShowcaseService) ListUserSkills(ctx context.Context, userID uint) ([]models.Skill, error) {
	return s.skillRepo.GetUserSkills(ctx, userID)
}

// CreateJob records a completed freelance job on the caller's history.
func (s *ShowcaseService) CreateJob(ctx context.Context, in CreateJobInput) (*models.JobHistory, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Job title is required")
	}
	if in.ClientID == in.UserID {
		return nil, models.NewValidationError("You cannot be your own client")
	}
	if _, err := s.userRepo.GetByID(ctx, in.ClientID); err != nil {
		return nil, err
	}
	completedAt := in.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	if completedAt.After(time.Now().Add(time.Minute)) {
		return nil, models.NewValidationError("Completion date cannot be in the future")
	}

	job := &models.JobHistory{
		UserID:      in.UserID,
		ClientID:    in.ClientID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CompletedAt: completedAt,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, in.UserID)
	return s.jobRepo.GetByID(ctx, job.ID)
}

// AddFeedback records the client's rating for a job. Only the job's client
// may leave feedback, and only once.
func (s *ShowcaseService) AddFeedback(ctx context.Context, in AddFeedbackInput) (*models.Feedback, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, models.NewValidationError("Rating must be between 1 and 5")
	}

	job, err := s.jobRepo.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != in.UserID {
		return nil, models.NewForbiddenError("Only the job's client can leave feedback")
	}

	feedback := &models.Feedback{
		JobID:   in.JobID,
		Rating:  in.Rating,
		Comment: strings.TrimSpace(in.Comment),
	}
	if err := s.jobRepo.AddFeedback(ctx, feedback); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, job.UserID)
	return feedback, nil
}

func (s *ShowcaseService) ListJobs(ctx context.Context, userID uint) ([]models.JobHistory, error) {
	return s.jobRepo.GetByUserID(ctx, userID)
}

// RatingSummary returns the average feedback rating across the user's jobs
// and the number of ratings behind it.
func (s *ShowcaseService) RatingSummary(ctx context.Context, userID uint) (float64, int64, error) {
	return s.jobRepo.AverageRating(ctx, userID)
}

// DetectPlatform labels a project link by its host, for showcase badges.
func DetectPlatform(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "website"
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.io"):
		return "github"
	case host == "figma.com":
		return "figma"
	case host == "dribbble.com":
		return "dribbble"
	case host == "behance.net":
		return "behance"
	case host == "codepen.io":
		return "codepen"
	case host == "youtube.com" || host == "youtu.be":
		return "youtube"
	case host == "instagram.com":
		return "instagram"
	case host == "twitter.com" || host == "x.com":
		return "twitter"
	case host == "linkedin.com":
		return "linkedin"
	default:
		return "website"
	}
}
