package server

import (
	"log"

	"pronet/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws connections and attaches them to the
// event hub. AuthRequired has already resolved the user from a Bearer token
// or a single-use ticket.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			if werr := conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"error","payload":{"reason":"connection limit reached"}}`)); werr != nil {
				log.Printf("websocket write error: %v", werr)
			}
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		client.IncomingHandler = func(c *notifications.Client, raw []byte) {
			s.hub.HandleIncoming(s.notifier, c, raw)
		}

		client.TrySend([]byte(`{"type":"connected"}`))

		go client.WritePump()

		// ReadPump blocks until the connection drops; it unregisters the
		// client on exit.
		client.ReadPump()
	})
}
