package models

import (
	"time"
)

// Project is a portfolio entry on a user's profile.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Link        string    `json:"link,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	// Platform is derived from the link host for icon/label decoration
	// (computed per request, not persisted).
	Platform  string    `gorm:"-" json:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Skill is a globally shared skill name. NormalizedName backs the
// case-insensitive find-or-create lookup; Name keeps the first writer's
// casing for display.
type Skill struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"not null" json:"name"`
	NormalizedName string `gorm:"uniqueIndex;not null" json:"-"`
}

// UserSkill links a user to a skill.
type UserSkill struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	SkillID   uint      `gorm:"primaryKey" json:"skill_id"`
	CreatedAt time.Time `json:"created_at"`
}

// JobHistory is a completed freelance engagement on a freelancer's showcase.
type JobHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ClientID    uint      `gorm:"not null;index" json:"client_id"`
	Client      User      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
	Feedback    *Feedback `gorm:"foreignKey:JobID" json:"feedback,omitempty"`
}

// TableName specifies the table name for GORM.
func (JobHistory) TableName() string {
	return "jobs_history"
}

// Feedback is a client's rating of a completed job. One per job.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobID     uint      `gorm:"uniqueIndex;not null" json:"job_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Feedback) TableName() string {
	return "feedback"
}
