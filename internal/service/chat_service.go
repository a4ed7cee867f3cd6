package service

import (
	"context"
	"strings"

	"pronet/internal/models"
	"pronet/internal/repository"
)

// MessagePageSize is the default number of messages per page.
const MessagePageSize = 50

const maxMessageLen = 5000

// ChatService implements direct messaging business logic.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

type StartConversationInput struct {
	UserID  uint
	OtherID uint
}

type SendMessageInput struct {
	UserID         uint
	ConversationID uint
	Content        string
	Attachments    []models.MessageAttachment
}

type EditMessageInput struct {
	UserID    uint
	MessageID uint
	Content   string
}

// MarkReadResult reports how many messages a mark-read call actually changed.
type MarkReadResult struct {
	ConversationID uint  `json:"conversation_id"`
	MarkedRead     int64 `json:"marked_read"`
}

// NewChatService creates a ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo}
}

// StartConversation returns the existing 1:1 conversation with the other user
// or atomically creates a new one with both participants.
func (s *ChatService) StartConversation(ctx context.Context, in StartConversationInput) (*models.Conversation, error) {
	if in.UserID == in.OtherID {
		return nil, models.NewValidationError("You cannot message yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, in.OtherID); err != nil {
		return nil, err
	}

	existing, err := s.chatRepo.FindDirectConversation(ctx, in.UserID, in.OtherID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	return s.chatRepo.CreateConversationWithParticipants(ctx, in.UserID, []uint{in.UserID, in.OtherID})
}

// ListConversations returns the user's conversations with unread counts and
// last-message previews.
func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.chatRepo.GetUserConversations(ctx, userID)
}

// GetConversation returns a conversation the user participates in.
func (s *ChatService) GetConversation(ctx context.Context, convID, userID uint) (*models.Conversation, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, convID)
}

// SendMessage stores a message with its attachments. Either text content or
// at least one attachment is required.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Attachments) == 0 {
		return nil, models.NewValidationError("Message content or an attachment is required")
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}
	if err := s.requireParticipant(ctx, in.ConversationID, in.UserID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.UserID,
		Content:        content,
		Attachments:    in.Attachments,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a page of messages in chronological order.
func (s *ChatService) ListMessages(ctx context.Context, convID, userID uint, limit, offset int) ([]*models.Message, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, MessagePageSize, 200)
	if offset < 0 {
		offset = 0
	}
	return s.chatRepo.GetMessages(ctx, convID, limit, offset)
}

// EditMessage updates a message's content. Only the sender can edit; the
// repository enforces the scope in the update query itself.
func (s *ChatService) EditMessage(ctx context.Context, in EditMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}
	return s.chatRepo.UpdateMessage(ctx, in.MessageID, in.UserID, content)
}

// DeleteMessage removes the sender's own message.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID uint) error {
	return s.chatRepo.DeleteMessage(ctx, messageID, userID)
}

// MarkRead marks every unread incoming message in the conversation as read.
// Safe to call repeatedly.
func (s *ChatService) MarkRead(ctx context.Context, convID, userID uint) (*MarkReadResult, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	changed, err := s.chatRepo.MarkConversationRead(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	return &MarkReadResult{ConversationID: convID, MarkedRead: changed}, nil
}

// ParticipantIDs lists the user ids in a conversation, for event fan-out.
func (s *ChatService) ParticipantIDs(ctx context.Context, convID uint) ([]uint, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *ChatService) requireParticipant(ctx context.Context, convID, userID uint) error {
	ok, err := s.chatRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You are not part of this conversation")
	}
	return nil
}
