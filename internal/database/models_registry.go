package database

import "pronet/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Connection{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.MessageAttachment{},
		&models.Project{},
		&models.Skill{},
		&models.UserSkill{},
		&models.JobHistory{},
		&models.Feedback{},
	}
}
