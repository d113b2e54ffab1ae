package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Group privacy levels
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// Group is a discussion space. Private groups are visible to users of the
// creator's institute and to members.
type Group struct {
	ID          string    `gorm:"primaryKey;size:36" json:"_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Privacy     string    `gorm:"size:16;not null;default:public;index" json:"privacy"`
	Institute   string    `gorm:"index" json:"institute"`
	Image       string    `json:"image"`
	InviteCode  string    `gorm:"uniqueIndex;size:16" json:"inviteCode"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GroupAdmin marks a user as an administrator of a group
type GroupAdmin struct {
	GroupID   string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

// GroupMember marks a user as a member of a group
type GroupMember struct {
	GroupID   string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

// GroupJoinRequest is a pending request to join a group
type GroupJoinRequest struct {
	GroupID   string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
}

// IsPrivate reports whether the group is institute-scoped
func (g *Group) IsPrivate() bool {
	return g.Privacy == PrivacyPrivate
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = generateUUID()
	}
	if g.Privacy == "" {
		g.Privacy = PrivacyPublic
	}
	if g.InviteCode == "" {
		g.InviteCode = strings.ReplaceAll(generateUUID(), "-", "")[:8]
	}
	return nil
}
