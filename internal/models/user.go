// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a member of the professional network.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"not null" json:"full_name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Headline  string    `json:"headline,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Location  string    `json:"location,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the subset of profile fields embedded in feed posts,
// conversation participant lists and realtime event payloads.
func (u *User) Summary() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"full_name":  u.FullName,
		"headline":   u.Headline,
		"avatar_url": u.AvatarURL,
	}
}
