package server

import (
	"github.com/gofiber/fiber/v2"
)

// SendConnectionRequest handles POST /api/connections/:userId
func (s *Server) SendConnectionRequest(c *fiber.Ctx) error {
	receiverID, err := parseID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}

	userID := currentUserID(c)
	conn, err := s.connections.SendRequest(c.UserContext(), userID, receiverID)
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), receiverID, EventConnectionRequested, conn)

	return c.Status(fiber.StatusCreated).JSON(conn)
}

// AcceptConnection handles POST /api/connections/:id/accept
func (s *Server) AcceptConnection(c *fiber.Ctx) error {
	return s.respondToConnection(c, true)
}

// RejectConnection handles POST /api/connections/:id/reject
func (s *Server) RejectConnection(c *fiber.Ctx) error {
	return s.respondToConnection(c, false)
}

func (s *Server) respondToConnection(c *fiber.Ctx, accept bool) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	conn, err := s.connections.Respond(c.UserContext(), id, currentUserID(c), accept)
	if err != nil {
		return respondError(c, err)
	}

	eventType := EventConnectionAccepted
	if !accept {
		eventType = EventConnectionRejected
	}
	s.publishUserEvent(c.UserContext(), conn.RequesterID, eventType, conn)
	s.publishUserEvent(c.UserContext(), conn.ReceiverID, eventType, conn)

	return c.JSON(conn)
}

// RemoveConnection handles DELETE /api/connections/:id
func (s *Server) RemoveConnection(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	conn, err := s.connections.Remove(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	payload := fiber.Map{"connection_id": conn.ID}
	s.publishUserEvent(c.UserContext(), conn.RequesterID, EventConnectionRemoved, payload)
	s.publishUserEvent(c.UserContext(), conn.ReceiverID, EventConnectionRemoved, payload)

	return c.JSON(fiber.Map{"message": "Connection removed"})
}

// GetConnections handles GET /api/connections
func (s *Server) GetConnections(c *fiber.Ctx) error {
	conns, err := s.connections.ListConnections(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conns)
}

// GetPendingConnections handles GET /api/connections/pending
func (s *Server) GetPendingConnections(c *fiber.Ctx) error {
	conns, err := s.connections.ListPending(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conns)
}

// GetSentConnections handles GET /api/connections/sent
func (s *Server) GetSentConnections(c *fiber.Ctx) error {
	conns, err := s.connections.ListSent(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conns)
}

// GetConnectionStatus handles GET /api/connections/status/:userId
func (s *Server) GetConnectionStatus(c *fiber.Ctx) error {
	otherID, err := parseID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}

	conn, err := s.connections.Status(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return respondError(c, err)
	}
	if conn == nil {
		return c.JSON(fiber.Map{"status": "none"})
	}

	return c.JSON(fiber.Map{
		"status":       conn.Status,
		"is_requester": conn.IsRequester,
		"connection":   conn,
	})
}
