package models

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Attachment kinds a chat message can carry
const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
	FileTypePDF   = "pdf"
	FileTypePPT   = "ppt"
	FileTypeNone  = "none"
)

// Message is a chat message. Exactly one of ReceiverID (direct message) or
// GroupID (group chat) is set.
type Message struct {
	ID         string    `gorm:"primaryKey;size:36" json:"_id"`
	SenderID   string    `gorm:"size:36;not null;index:idx_message_dm" json:"-"`
	Sender     *User     `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID *string   `gorm:"size:36;index:idx_message_dm" json:"receiver,omitempty"`
	GroupID    *string   `gorm:"size:36;index" json:"group,omitempty"`
	Text       string    `gorm:"type:text" json:"text"`
	FileURL    string    `json:"fileUrl"`
	FileType   string    `gorm:"size:8;default:none" json:"fileType"`
	FileName   string    `json:"fileName"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// DirectRoomID returns the room shared by two users in direct messaging.
// The id is symmetric in its arguments.
func DirectRoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}

// ParseDirectRoomID splits a direct-message room id into its two user ids
func ParseDirectRoomID(room string) (string, string, bool) {
	a, b, ok := strings.Cut(room, "_")
	if !ok || a == "" || b == "" || strings.Contains(b, "_") {
		return "", "", false
	}
	return a, b, true
}

// ValidFileType reports whether t is a known attachment kind
func ValidFileType(t string) bool {
	switch t {
	case FileTypeImage, FileTypeVideo, FileTypePDF, FileTypePPT, FileTypeNone:
		return true
	}
	return false
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.FileType == "" {
		m.FileType = FileTypeNone
	}
	return nil
}
