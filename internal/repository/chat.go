package repository

import (
	"context"
	"errors"
	"time"

	"pronet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for conversation and message data
// operations.
type ChatRepository interface {
	CreateConversationWithParticipants(ctx context.Context, createdBy uint, participantIDs []uint) (*models.Conversation, error)
	FindDirectConversation(ctx context.Context, userID1, userID2 uint) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error)
	IsParticipant(ctx context.Context, convID, userID uint) (bool, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error)
	UpdateMessage(ctx context.Context, msgID, senderID uint, content string) (*models.Message, error)
	DeleteMessage(ctx context.Context, msgID, senderID uint) error
	MarkConversationRead(ctx context.Context, convID, userID uint) (int64, error)
	UnreadCount(ctx context.Context, convID, userID uint) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// CreateConversationWithParticipants creates the conversation and all
// participant rows in one transaction, so a failed participant insert never
// leaves an orphaned conversation behind.
func (r *chatRepository) CreateConversationWithParticipants(ctx context.Context, createdBy uint, participantIDs []uint) (*models.Conversation, error) {
	conv := &models.Conversation{CreatedBy: createdBy}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, userID := range participantIDs {
			participant := models.ConversationParticipant{
				ConversationID: conv.ID,
				UserID:         userID,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return r.GetConversation(ctx, conv.ID)
}

// FindDirectConversation returns the existing 1:1 conversation between two
// users, or (nil, nil) when none exists.
func (r *chatRepository) FindDirectConversation(ctx context.Context, userID1, userID2 uint) (*models.Conversation, error) {
	var convID uint
	err := r.db.WithContext(ctx).
		Table("conversations").
		Select("conversations.id").
		Joins("JOIN conversation_participants a ON a.conversation_id = conversations.id AND a.user_id = ?", userID1).
		Joins("JOIN conversation_participants b ON b.conversation_id = conversations.id AND b.user_id = ?", userID2).
		Where("(SELECT COUNT(*) FROM conversation_participants cp WHERE cp.conversation_id = conversations.id) = 2").
		Limit(1).
		Scan(&convID).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if convID == 0 {
		return nil, nil
	}
	return r.GetConversation(ctx, convID)
}

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&conv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

// GetUserConversations lists a user's conversations with unread counts
// computed in the listing query and last messages batched into one follow-up
// query, instead of per-conversation round trips.
func (r *chatRepository) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	err := r.db.WithContext(ctx).
		Select("conversations.*, "+
			"(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = conversations.id AND m.sender_id != ? AND m.read_at IS NULL) as unread_count", userID).
		Joins("JOIN conversation_participants cp ON conversations.id = cp.conversation_id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(conversations) == 0 {
		return conversations, nil
	}

	convIDs := make([]uint, 0, len(conversations))
	for _, c := range conversations {
		convIDs = append(convIDs, c.ID)
	}

	var lastMessages []models.Message
	err = r.db.WithContext(ctx).
		Where("id IN (SELECT MAX(id) FROM messages WHERE conversation_id IN ? GROUP BY conversation_id)", convIDs).
		Preload("Sender").
		Preload("Attachments").
		Find(&lastMessages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	byConv := make(map[uint]*models.Message, len(lastMessages))
	for i := range lastMessages {
		byConv[lastMessages[i].ConversationID] = &lastMessages[i]
	}
	for _, c := range conversations {
		c.LastMessage = byConv[c.ID]
	}

	return conversations, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, convID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// CreateMessage persists the message together with its attachments and bumps
// the conversation's updated_at so it sorts to the top of the list.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Attachments").
		First(msg, msg.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetMessages returns messages in chronological order. Rows are deduplicated
// by id so callers can merge pages and realtime inserts without duplicates.
func (r *chatRepository) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Preload("Sender").
		Preload("Attachments").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// Reverse to chronological order (oldest -> newest).
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	seen := make(map[uint]struct{}, len(messages))
	deduped := messages[:0]
	for _, m := range messages {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		deduped = append(deduped, m)
	}

	return deduped, nil
}

// UpdateMessage edits a message's content. The sender scope is part of the
// query, so other users' messages are untouchable regardless of the caller.
func (r *chatRepository) UpdateMessage(ctx context.Context, msgID, senderID uint, content string) (*models.Message, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND sender_id = ?", msgID, senderID).
		Update("content", content)
	if result.Error != nil {
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Message", msgID)
	}

	var msg models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Attachments").
		First(&msg, msgID).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

// DeleteMessage removes a message and its attachments, sender-scoped.
func (r *chatRepository) DeleteMessage(ctx context.Context, msgID, senderID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND sender_id = ?", msgID, senderID).Delete(&models.Message{})
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Message", msgID)
		}
		if err := tx.Where("message_id = ?", msgID).Delete(&models.MessageAttachment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// MarkConversationRead marks every unread message addressed to userID as read.
// Repeated calls are no-ops; the returned count is how many rows changed.
func (r *chatRepository) MarkConversationRead(ctx context.Context, convID, userID uint) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", convID, userID).
		Update("read_at", &now)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *chatRepository) UnreadCount(ctx context.Context, convID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", convID, userID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
