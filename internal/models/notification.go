package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types
const (
	NotificationConnectionRequest  = "connection_request"
	NotificationConnectionAccepted = "connection_accepted"
	NotificationMessage            = "message"
	NotificationLike               = "like"
	NotificationComment            = "comment"
	NotificationGroupJoinRequest   = "GROUP_JOIN_REQUEST"
	NotificationGroupApproved      = "GROUP_APPROVED"
)

// Notification is an entry in a user's notification list
type Notification struct {
	ID          string    `gorm:"primaryKey;size:36" json:"_id"`
	RecipientID string    `gorm:"size:36;not null;index:idx_notification_recipient" json:"recipient"`
	SenderID    *string   `gorm:"size:36" json:"-"`
	Sender      *User     `gorm:"foreignKey:SenderID" json:"-"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	RelatedID   *string   `gorm:"size:36;index" json:"relatedId,omitempty"`
	IsRead      bool      `gorm:"default:false;index:idx_notification_recipient" json:"isRead"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidNotificationType reports whether t is a known notification type
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationConnectionRequest, NotificationConnectionAccepted, NotificationMessage,
		NotificationLike, NotificationComment, NotificationGroupJoinRequest, NotificationGroupApproved:
		return true
	}
	return false
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

// AllModels lists every table managed by migrations
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&PostLike{},
		&PostComment{},
		&Connection{},
		&Group{},
		&GroupAdmin{},
		&GroupMember{},
		&GroupJoinRequest{},
		&Message{},
		&Notification{},
	}
}
