package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"pronet/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub routes change events to websocket clients. It is user-centric
// (userID -> set of Clients) and additionally tracks which conversations each
// user is actively viewing so conversation-scoped events only reach
// participants that care.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	convViews  map[uint]map[uint]struct{} // conversationID -> set of userIDs
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "event hub" }

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		conns:     make(map[uint]map[*Client]struct{}),
		convViews: make(map[uint]map[uint]struct{}),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Register a connection for a given userID. Returns the Client or an error if
// limits are exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	middleware.ActiveWebSockets.Inc()

	return client, nil
}

// UnregisterClient removes a client. When the user's last connection goes away
// their conversation views are cleaned up too.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
			for convID, users := range h.convViews {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.convViews, convID)
				}
			}
		}
	}
	h.mu.Unlock()

	if removed {
		middleware.ActiveWebSockets.Dec()
	}
}

// SubscribeConversation marks a user as actively viewing a conversation.
func (h *Hub) SubscribeConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	users, ok := h.convViews[conversationID]
	if !ok {
		users = make(map[uint]struct{})
		h.convViews[conversationID] = users
	}
	users[userID] = struct{}{}
}

// UnsubscribeConversation removes a user's active view of a conversation.
func (h *Hub) UnsubscribeConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if users, ok := h.convViews[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.convViews, conversationID)
		}
	}
}

// IsOnline reports whether a user has at least one active websocket connection.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// Broadcast sends message to all connections for userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastConversation sends message to every user actively viewing the
// conversation.
func (h *Hub) BroadcastConversation(conversationID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users, ok := h.convViews[conversationID]
	if !ok {
		return
	}
	data := []byte(message)
	for userID := range users {
		for c := range h.conns[userID] {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// StartWiring connects the Notifier to this hub: it subscribes to the event
// channels and forwards payloads to the matching connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartEventSubscriber(ctx, func(channel, payload string) {
		switch {
		case channel == "events:broadcast":
			h.BroadcastAll(payload)
		case strings.HasPrefix(channel, "events:user:"):
			var userID uint
			if _, err := fmt.Sscanf(channel, "events:user:%d", &userID); err != nil {
				log.Printf("invalid event channel: %s", channel)
				return
			}
			h.Broadcast(userID, payload)
		case strings.HasPrefix(channel, "events:conv:"):
			var convID uint
			if _, err := fmt.Sscanf(channel, "events:conv:%d", &convID); err != nil {
				log.Printf("invalid event channel: %s", channel)
				return
			}
			h.BroadcastConversation(convID, payload)
		default:
			log.Printf("unhandled event channel: %s", channel)
		}
	})
}

// clientFrame is the envelope for messages clients send upstream.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

// HandleIncoming processes a frame sent by a connected client: conversation
// view subscriptions and typing indicators.
func (h *Hub) HandleIncoming(n *Notifier, c *Client, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("Client %d: malformed frame: %v", c.UserID, err)
		return
	}

	switch frame.Type {
	case "subscribe_conversation":
		h.SubscribeConversation(c.UserID, frame.ConversationID)
	case "unsubscribe_conversation":
		h.UnsubscribeConversation(c.UserID, frame.ConversationID)
	case "typing":
		if err := n.PublishTyping(context.Background(), frame.ConversationID, c.UserID, frame.IsTyping); err != nil {
			log.Printf("Client %d: publish typing failed: %v", c.UserID, err)
		}
	default:
		log.Printf("Client %d: unknown frame type %q", c.UserID, frame.Type)
	}
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	middleware.ActiveWebSockets.Sub(float64(h.totalConns))
	h.conns = make(map[uint]map[*Client]struct{})
	h.convViews = make(map[uint]map[uint]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	close(h.done)

	return nil
}
