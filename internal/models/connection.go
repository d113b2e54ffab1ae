package models

import (
	"time"

	"gorm.io/gorm"
)

// Connection statuses
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// Connection is a directed request between two users. A requester can only
// hold one connection row per recipient.
type Connection struct {
	ID          string    `gorm:"primaryKey;size:36" json:"_id"`
	RequesterID string    `gorm:"size:36;not null;uniqueIndex:idx_connection_pair" json:"requester"`
	RecipientID string    `gorm:"size:36;not null;uniqueIndex:idx_connection_pair;index" json:"recipient"`
	Status      string    `gorm:"size:16;not null;default:pending;index" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Requester *User `gorm:"foreignKey:RequesterID" json:"-"`
	Recipient *User `gorm:"foreignKey:RecipientID" json:"-"`
}

// Other returns the id of the user on the other side of the connection
func (c *Connection) Other(userID string) string {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	if c.Status == "" {
		c.Status = ConnectionPending
	}
	return nil
}
