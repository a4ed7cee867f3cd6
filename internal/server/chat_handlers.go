package server

import (
	"strings"

	"pronet/internal/models"
	"pronet/internal/service"
	"pronet/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// StartConversation handles POST /api/conversations. Creating a conversation
// with the same user twice returns the existing thread.
func (s *Server) StartConversation(c *fiber.Ctx) error {
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	conv, err := s.chat.StartConversation(c.UserContext(), service.StartConversationInput{
		UserID:  currentUserID(c),
		OtherID: req.UserID,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// GetConversations handles GET /api/conversations — participants, unread
// counts and last-message previews resolved in the listing query.
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.chat.ListConversations(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	for _, conv := range convs {
		if conv.LastMessage != nil {
			s.signAttachmentURLs(conv.LastMessage)
		}
	}
	return c.JSON(convs)
}

// GetConversation handles GET /api/conversations/:id
func (s *Server) GetConversation(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	conv, err := s.chat.GetConversation(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conv)
}

// GetMessages handles GET /api/conversations/:id/messages — chronological,
// de-duplicated by id. Fetching a conversation marks its unread incoming
// messages as read.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	userID := currentUserID(c)
	limit, offset := pagination(c, service.MessagePageSize)
	messages, err := s.chat.ListMessages(c.UserContext(), id, userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	for _, msg := range messages {
		s.signAttachmentURLs(msg)
	}

	// Opening a conversation reads it. Best-effort; listing still succeeds
	// if the update fails.
	if result, merr := s.chat.MarkRead(c.UserContext(), id, userID); merr == nil && result.MarkedRead > 0 {
		s.publishConversationEvent(c.UserContext(), id, EventConversationRead, fiber.Map{
			"conversation_id": id,
			"reader_id":       userID,
		})
	}

	return c.JSON(messages)
}

// SendMessage handles POST /api/conversations/:id/messages. Attachments are
// uploaded beforehand; their storage keys ride along in the request.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content     string `json:"content"`
		Attachments []struct {
			FileURL  string `json:"file_url"`
			FileName string `json:"file_name"`
			FileType string `json:"file_type"`
			FileSize int64  `json:"file_size"`
		} `json:"attachments"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	attachments := make([]models.MessageAttachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, models.MessageAttachment{
			FileURL:  a.FileURL,
			FileName: a.FileName,
			FileType: a.FileType,
			FileSize: a.FileSize,
		})
	}

	userID := currentUserID(c)
	msg, err := s.chat.SendMessage(c.UserContext(), service.SendMessageInput{
		UserID:         userID,
		ConversationID: id,
		Content:        req.Content,
		Attachments:    attachments,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.signAttachmentURLs(msg)
	s.publishConversationEvent(c.UserContext(), id, EventMessageCreated, msg)
	s.notifyParticipants(c, id, userID)

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// UpdateMessage handles PUT /api/messages/:id — sender only.
func (s *Server) UpdateMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chat.EditMessage(c.UserContext(), service.EditMessageInput{
		UserID:    currentUserID(c),
		MessageID: id,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.signAttachmentURLs(msg)
	s.publishConversationEvent(c.UserContext(), msg.ConversationID, EventMessageUpdated, msg)

	return c.JSON(msg)
}

// DeleteMessage handles DELETE /api/messages/:id — sender only.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.chat.DeleteMessage(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// MarkConversationRead handles POST /api/conversations/:id/read.
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	userID := currentUserID(c)
	result, err := s.chat.MarkRead(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, err)
	}

	if result.MarkedRead > 0 {
		s.publishConversationEvent(c.UserContext(), id, EventConversationRead, fiber.Map{
			"conversation_id": id,
			"reader_id":       userID,
		})
	}

	return c.JSON(result)
}

// notifyParticipants pushes a conversation_updated event to each participant's
// user channel so conversation lists refresh their previews.
func (s *Server) notifyParticipants(c *fiber.Ctx, conversationID, senderID uint) {
	ids, err := s.chat.ParticipantIDs(c.UserContext(), conversationID)
	if err != nil {
		return
	}
	payload := fiber.Map{"conversation_id": conversationID, "sender_id": senderID}
	for _, id := range ids {
		s.publishUserEvent(c.UserContext(), id, EventConversationUpdated, payload)
	}
}

// signAttachmentURLs replaces stored attachment keys with signed URLs in the
// response copy. Keys that are already absolute URLs pass through untouched.
func (s *Server) signAttachmentURLs(msg *models.Message) {
	for i := range msg.Attachments {
		key := msg.Attachments[i].FileURL
		if key == "" || strings.HasPrefix(key, "http") {
			continue
		}
		if url, err := s.store.SignedURL(key, storage.DefaultSignedURLTTL); err == nil {
			msg.Attachments[i].FileURL = url
		}
	}
}
