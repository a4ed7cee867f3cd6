package models

import (
	"time"
)

// Conversation represents a direct-message thread between participants.
type Conversation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedBy    uint      `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages     []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	// UnreadCount is the number of unread messages addressed to the
	// current user (computed at query time).
	UnreadCount int `gorm:"->;-:migration" json:"unread_count"`
	// LastMessage is the most recent message, used for list previews.
	// Nil for conversations without messages.
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
}

// ConversationParticipant is the join table between conversations and users.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Message represents a direct message. ReadAt is nil until the recipient
// opens the conversation.
type Message struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ConversationID uint                `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint                `gorm:"not null;index" json:"sender_id"`
	Sender         *User               `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string              `gorm:"type:text" json:"content"`
	ReadAt         *time.Time          `json:"read_at,omitempty"`
	Attachments    []MessageAttachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// MessageAttachment records a stored file referenced by a message.
type MessageAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"message_id"`
	FileURL   string    `gorm:"not null" json:"file_url"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}
