package repository

import (
	"context"
	"errors"

	"pronet/internal/models"

	"gorm.io/gorm"
)

// ConnectionRepository defines the interface for connection data operations.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *models.Connection) error
	GetByID(ctx context.Context, id uint) (*models.Connection, error)
	GetBetweenUsers(ctx context.Context, userID1, userID2 uint) (*models.Connection, error)
	GetAccepted(ctx context.Context, userID uint) ([]models.Connection, error)
	GetConnectedUsers(ctx context.Context, userID uint) ([]models.User, error)
	GetPendingRequests(ctx context.Context, userID uint) ([]models.Connection, error)
	GetSentRequests(ctx context.Context, userID uint) ([]models.Connection, error)
	UpdateStatus(ctx context.Context, id uint, status models.ConnectionStatus) error
	Delete(ctx context.Context, id uint) error
}

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Create(ctx context.Context, conn *models.Connection) error {
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id uint) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Receiver").
		First(&conn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Connection", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conn, nil
}

// GetBetweenUsers finds the single connection row for an unordered user pair.
// Returns (nil, nil) when no connection exists.
func (r *connectionRepository) GetBetweenUsers(ctx context.Context, userID1, userID2 uint) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.WithContext(ctx).
		Where("pair_key = ?", models.ConnectionPairKey(userID1, userID2)).
		Preload("Requester").
		Preload("Receiver").
		First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conn, nil
}

func (r *connectionRepository) GetAccepted(ctx context.Context, userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR receiver_id = ?)",
			models.ConnectionStatusAccepted, userID, userID).
		Preload("Requester").
		Preload("Receiver").
		Order("updated_at DESC").
		Find(&conns).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return conns, nil
}

// GetConnectedUsers returns the other user of every accepted connection.
func (r *connectionRepository) GetConnectedUsers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN connections c ON (users.id = c.requester_id OR users.id = c.receiver_id)").
		Where("c.status = ? AND (c.requester_id = ? OR c.receiver_id = ?) AND users.id != ?",
			models.ConnectionStatusAccepted, userID, userID, userID).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *connectionRepository) GetPendingRequests(ctx context.Context, userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	if err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Preload("Requester").
		Preload("Receiver").
		Order("created_at DESC").
		Find(&conns).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return conns, nil
}

func (r *connectionRepository) GetSentRequests(ctx context.Context, userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	if err := r.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Preload("Requester").
		Preload("Receiver").
		Order("created_at DESC").
		Find(&conns).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return conns, nil
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id uint, status models.ConnectionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Connection", id)
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Connection{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Connection", id)
	}
	return nil
}
