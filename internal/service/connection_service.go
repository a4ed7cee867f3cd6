package service

import (
	"context"

	"pronet/internal/models"
	"pronet/internal/repository"
)

// ConnectionService implements the connection (networking) business logic.
type ConnectionService struct {
	connRepo repository.ConnectionRepository
	userRepo repository.UserRepository
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(connRepo repository.ConnectionRepository, userRepo repository.UserRepository) *ConnectionService {
	return &ConnectionService{connRepo: connRepo, userRepo: userRepo}
}

// SendRequest creates a pending connection from requester to receiver.
// There is at most one connection row per user pair, in any state.
func (s *ConnectionService) SendRequest(ctx context.Context, requesterID, receiverID uint) (*models.Connection, error) {
	if requesterID == receiverID {
		return nil, models.NewValidationError("You cannot connect with yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	existing, err := s.connRepo.GetBetweenUsers(ctx, requesterID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.ConnectionStatusAccepted:
			return nil, models.NewConflictError("You are already connected")
		case models.ConnectionStatusPending:
			return nil, models.NewConflictError("A connection request is already pending")
		default:
			// A rejected pair can try again; replace the old row.
			if err := s.connRepo.Delete(ctx, existing.ID); err != nil {
				return nil, err
			}
		}
	}

	conn := &models.Connection{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.ConnectionStatusPending,
	}
	if err := s.connRepo.Create(ctx, conn); err != nil {
		return nil, err
	}
	return s.connRepo.GetByID(ctx, conn.ID)
}

// Respond accepts or rejects a pending request. Only the receiver may respond.
func (s *ConnectionService) Respond(ctx context.Context, connectionID, userID uint, accept bool) (*models.Connection, error) {
	conn, err := s.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.ReceiverID != userID {
		return nil, models.NewForbiddenError("Only the recipient can respond to a connection request")
	}
	if conn.Status != models.ConnectionStatusPending {
		return nil, models.NewConflictError("This request has already been answered")
	}

	status := models.ConnectionStatusRejected
	if accept {
		status = models.ConnectionStatusAccepted
	}
	if err := s.connRepo.UpdateStatus(ctx, connectionID, status); err != nil {
		return nil, err
	}
	return s.connRepo.GetByID(ctx, connectionID)
}

// Remove deletes a connection in any state. Either side can remove it.
func (s *ConnectionService) Remove(ctx context.Context, connectionID, userID uint) (*models.Connection, error) {
	conn, err := s.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.RequesterID != userID && conn.ReceiverID != userID {
		return nil, models.NewForbiddenError("You are not part of this connection")
	}
	if err := s.connRepo.Delete(ctx, connectionID); err != nil {
		return nil, err
	}
	return conn, nil
}

// ListConnections returns accepted connections with IsRequester resolved for
// the viewing user.
func (s *ConnectionService) ListConnections(ctx context.Context, userID uint) ([]models.Connection, error) {
	conns, err := s.connRepo.GetAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	markRequester(conns, userID)
	return conns, nil
}

// ListPending returns requests awaiting the user's response.
func (s *ConnectionService) ListPending(ctx context.Context, userID uint) ([]models.Connection, error) {
	conns, err := s.connRepo.GetPendingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	markRequester(conns, userID)
	return conns, nil
}

// ListSent returns the user's own outstanding requests.
func (s *ConnectionService) ListSent(ctx context.Context, userID uint) ([]models.Connection, error) {
	conns, err := s.connRepo.GetSentRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	markRequester(conns, userID)
	return conns, nil
}

// Status returns the connection between the viewer and another user, nil when
// none exists.
func (s *ConnectionService) Status(ctx context.Context, userID, otherID uint) (*models.Connection, error) {
	conn, err := s.connRepo.GetBetweenUsers(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		conn.IsRequester = conn.RequesterID == userID
	}
	return conn, nil
}

func markRequester(conns []models.Connection, userID uint) {
	for i := range conns {
		conns[i].IsRequester = conns[i].RequesterID == userID
	}
}
