package repository

import (
	"context"
	"errors"
	"strings"

	"pronet/internal/cache"
	"pronet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository defines the interface for portfolio project data
// operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	GetByUserID(ctx context.Context, userID uint) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id, userID uint) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &project, nil
}

func (r *projectRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).
		Model(project).
		Select("title", "description", "link", "image_url").
		Updates(project).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete is owner-scoped: the query only matches the owner's rows.
func (r *projectRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Project{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Project", id)
	}
	return nil
}

// SkillRepository defines the interface for skill data operations.
type SkillRepository interface {
	FindOrCreate(ctx context.Context, name string) (*models.Skill, error)
	List(ctx context.Context) ([]models.Skill, error)
	GetUserSkills(ctx context.Context, userID uint) ([]models.Skill, error)
	AddUserSkill(ctx context.Context, userID, skillID uint) error
	RemoveUserSkill(ctx context.Context, userID, skillID uint) error
}

type skillRepository struct {
	db *gorm.DB
}

// NewSkillRepository creates a new skill repository.
func NewSkillRepository(db *gorm.DB) SkillRepository {
	return &skillRepository{db: db}
}

// FindOrCreate resolves a skill by its normalized (lowercased, trimmed) name,
// creating it when missing. "Go", "go" and " GO " all map to one row.
func (r *skillRepository) FindOrCreate(ctx context.Context, name string) (*models.Skill, error) {
	display := strings.TrimSpace(name)
	normalized := strings.ToLower(display)

	var skill models.Skill
	err := r.db.WithContext(ctx).
		Where("normalized_name = ?", normalized).
		First(&skill).Error
	if err == nil {
		return &skill, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	skill = models.Skill{Name: display, NormalizedName: normalized}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&skill).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if skill.ID == 0 {
		// Lost a concurrent create race, fetch the winner.
		if err := r.db.WithContext(ctx).
			Where("normalized_name = ?", normalized).
			First(&skill).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	cache.InvalidateSkills(ctx)
	return &skill, nil
}

func (r *skillRepository) List(ctx context.Context) ([]models.Skill, error) {
	var skills []models.Skill
	err := cache.CacheAside(ctx, cache.SkillListKey, &skills, cache.SkillListTTL, func() error {
		return r.db.WithContext(ctx).Order("name ASC").Find(&skills).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return skills, nil
}

func (r *skillRepository) GetUserSkills(ctx context.Context, userID uint) ([]models.Skill, error) {
	var skills []models.Skill
	if err := r.db.WithContext(ctx).
		Joins("JOIN user_skills us ON us.skill_id = skills.id").
		Where("us.user_id = ?", userID).
		Order("skills.name ASC").
		Find(&skills).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return skills, nil
}

func (r *skillRepository) AddUserSkill(ctx context.Context, userID, skillID uint) error {
	us := models.UserSkill{UserID: userID, SkillID: skillID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&us).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *skillRepository) RemoveUserSkill(ctx context.Context, userID, skillID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Delete(&models.UserSkill{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// JobRepository defines the interface for freelance job history and feedback
// data operations.
type JobRepository interface {
	Create(ctx context.Context, job *models.JobHistory) error
	GetByID(ctx context.Context, id uint) (*models.JobHistory, error)
	GetByUserID(ctx context.Context, userID uint) ([]models.JobHistory, error)
	AddFeedback(ctx context.Context, feedback *models.Feedback) error
	AverageRating(ctx context.Context, userID uint) (float64, int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.JobHistory) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (*models.JobHistory, error) {
	var job models.JobHistory
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Feedback").
		First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Job", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &job, nil
}

func (r *jobRepository) GetByUserID(ctx context.Context, userID uint) ([]models.JobHistory, error) {
	var jobs []models.JobHistory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Client").
		Preload("Feedback").
		Order("completed_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return jobs, nil
}

// AddFeedback stores feedback for a job. The unique index on job_id turns a
// second submission into a conflict error.
func (r *jobRepository) AddFeedback(ctx context.Context, feedback *models.Feedback) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("job_id = ?", feedback.JobID).
		Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count > 0 {
		return models.NewConflictError("Feedback already submitted for this job")
	}
	if err := r.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AverageRating computes the mean feedback rating across a freelancer's jobs.
func (r *jobRepository) AverageRating(ctx context.Context, userID uint) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Select("COALESCE(AVG(feedback.rating), 0) as avg, COUNT(*) as count").
		Joins("JOIN jobs_history j ON j.id = feedback.job_id").
		Where("j.user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return row.Avg, row.Count, nil
}
