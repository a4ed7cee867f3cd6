package server

import (
	"context"
	"encoding/json"
	"log"

	"pronet/internal/middleware"
)

// Realtime event types. Payloads carry the changed entity (or its id plus
// fresh counts) so clients patch their local state instead of refetching.
const (
	EventProfileUpdated = "profile_updated"

	EventConnectionRequested = "connection_request_received"
	EventConnectionAccepted  = "connection_accepted"
	EventConnectionRejected  = "connection_rejected"
	EventConnectionRemoved   = "connection_removed"

	EventPostCreated     = "post_created"
	EventPostUpdated     = "post_updated"
	EventPostDeleted     = "post_deleted"
	EventPostReaction    = "post_reaction_updated"
	EventCommentCreated  = "comment_created"
	EventCommentUpdated  = "comment_updated"
	EventCommentDeleted  = "comment_deleted"

	EventMessageCreated      = "message_created"
	EventMessageUpdated      = "message_updated"
	EventMessageDeleted      = "message_deleted"
	EventConversationUpdated = "conversation_updated"
	EventConversationRead    = "conversation_read"

	EventSkillAdded     = "skill_added"
	EventSkillRemoved   = "skill_removed"
	EventProjectCreated = "project_created"
	EventProjectUpdated = "project_updated"
	EventProjectDeleted = "project_deleted"
	EventJobAdded       = "job_added"
	EventFeedbackAdded  = "feedback_added"
)

type realtimeEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func marshalEvent(eventType string, payload any) (string, bool) {
	data, err := json.Marshal(realtimeEvent{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("marshal %s event: %v", eventType, err)
		return "", false
	}
	return string(data), true
}

// publishUserEvent pushes an event to a single user's channel.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	data, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if err := s.notifier.PublishUser(ctx, userID, data); err != nil {
		log.Printf("publish %s to user %d: %v", eventType, userID, err)
		return
	}
	middleware.RealtimeEventsPublished.WithLabelValues(eventType).Inc()
}

// publishConversationEvent pushes an event to a conversation's channel.
func (s *Server) publishConversationEvent(ctx context.Context, conversationID uint, eventType string, payload any) {
	data, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if err := s.notifier.PublishConversation(ctx, conversationID, data); err != nil {
		log.Printf("publish %s to conversation %d: %v", eventType, conversationID, err)
		return
	}
	middleware.RealtimeEventsPublished.WithLabelValues(eventType).Inc()
}

// publishBroadcastEvent pushes an event to every connected client.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if err := s.notifier.PublishBroadcast(ctx, data); err != nil {
		log.Printf("publish %s broadcast: %v", eventType, err)
		return
	}
	middleware.RealtimeEventsPublished.WithLabelValues(eventType).Inc()
}
