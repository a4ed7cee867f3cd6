package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ConnectionStatus represents the status of a connection request.
type ConnectionStatus string

const (
	// ConnectionStatusPending indicates a connection request awaiting a decision.
	ConnectionStatusPending ConnectionStatus = "pending"
	// ConnectionStatusAccepted indicates an accepted connection.
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	// ConnectionStatusRejected indicates a rejected connection request.
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// Connection represents a connection between two users. At most one row
// exists per unordered pair; PairKey keeps the unique index direction-free.
type Connection struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"not null;index" json:"requester_id"`
	ReceiverID  uint             `gorm:"not null;index" json:"receiver_id"`
	PairKey     string           `gorm:"uniqueIndex;not null" json:"-"`
	Status      ConnectionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Requester User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Receiver  User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	// IsRequester indicates whether the current user initiated this
	// connection (computed per request, not persisted).
	IsRequester bool `gorm:"-" json:"is_requester"`
}

// TableName specifies the table name for GORM.
func (Connection) TableName() string {
	return "connections"
}

// BeforeSave keeps PairKey in sync with the participant pair.
func (c *Connection) BeforeSave(_ *gorm.DB) error {
	c.PairKey = ConnectionPairKey(c.RequesterID, c.ReceiverID)
	return nil
}

// ConnectionPairKey derives the order-independent unique key for a user pair.
func ConnectionPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
