package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a user account can hold
const (
	RoleStudent   = "student"
	RoleAdmin     = "admin"
	RoleInstitute = "institute"
)

// User is a UniConnect account. Institute scopes private group visibility.
type User struct {
	ID             string   `gorm:"primaryKey;size:36" json:"_id"`
	Name           string   `gorm:"not null" json:"name"`
	Username       string   `gorm:"uniqueIndex;not null" json:"username"`
	Email          string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string   `gorm:"not null" json:"-"`
	Institute      string   `gorm:"index" json:"institute"`
	Role           string   `gorm:"default:student" json:"role"`
	IsVerified     bool     `gorm:"default:false" json:"isVerified"`
	Badges         []string `gorm:"serializer:json;type:text" json:"badges"`
	Points         int      `gorm:"default:0" json:"points"`
	Headline       string   `json:"headline"`
	Location       string   `json:"location"`
	ProfilePicture string   `json:"profilePicture"`

	// Email verification; the code is stored bcrypt-hashed
	VerificationCodeHash    string     `json:"-"`
	VerificationCodeExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
