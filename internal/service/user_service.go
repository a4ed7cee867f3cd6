package service

import (
	"context"
	"strings"

	"pronet/internal/cache"
	"pronet/internal/models"
	"pronet/internal/repository"
	"pronet/internal/validation"
)

// Profile is the aggregate returned for a user's profile page: identity plus
// skills, projects, job history and rating summary.
type Profile struct {
	User          models.User        `json:"user"`
	Skills        []models.Skill     `json:"skills"`
	Projects      []models.Project   `json:"projects"`
	Jobs          []models.JobHistory `json:"jobs"`
	AverageRating float64            `json:"average_rating"`
	RatingCount   int64              `json:"rating_count"`
}

// UserService implements user and profile business logic.
type UserService struct {
	userRepo    repository.UserRepository
	skillRepo   repository.SkillRepository
	projectRepo repository.ProjectRepository
	jobRepo     repository.JobRepository
}

type UpdateProfileInput struct {
	UserID   uint
	FullName string
	Headline string
	Bio      string
	Location string
}

// NewUserService creates a UserService.
func NewUserService(
	userRepo repository.UserRepository,
	skillRepo repository.SkillRepository,
	projectRepo repository.ProjectRepository,
	jobRepo repository.JobRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		skillRepo:   skillRepo,
		projectRepo: projectRepo,
		jobRepo:     jobRepo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile assembles the profile aggregate, cache-aside with a short TTL.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	var profile Profile
	err := cache.CacheAside(ctx, cache.UserProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		skills, err := s.skillRepo.GetUserSkills(ctx, userID)
		if err != nil {
			return err
		}
		projects, err := s.projectRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for i := range projects {
			projects[i].Platform = DetectPlatform(projects[i].Link)
		}
		jobs, err := s.jobRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		avg, count, err := s.jobRepo.AverageRating(ctx, userID)
		if err != nil {
			return err
		}

		profile = Profile{
			User:          *user,
			Skills:        skills,
			Projects:      projects,
			Jobs:          jobs,
			AverageRating: avg,
			RatingCount:   count,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile updates the editable profile fields and returns the stored
// user, so clients can replace their optimistic copy with the server state.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, err
	}
	if len(in.Headline) > 160 {
		return nil, models.NewValidationError("Headline too long (max 160 characters)")
	}
	if len(in.Bio) > 4000 {
		return nil, models.NewValidationError("Bio too long (max 4000 characters)")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName
	user.Headline = strings.TrimSpace(in.Headline)
	user.Bio = strings.TrimSpace(in.Bio)
	user.Location = strings.TrimSpace(in.Location)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, in.UserID)
	return s.userRepo.GetByID(ctx, in.UserID)
}

// SetAvatar stores the avatar URL after an upload.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, avatarURL string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = avatarURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, userID)
	return user, nil
}

// SearchUsers finds users by name or headline.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	limit = clampLimit(limit, 20, 100)
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}
