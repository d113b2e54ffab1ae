package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a feed entry with an optional image
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	UserID    string    `gorm:"size:36;index;not null" json:"-"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Text      string    `gorm:"type:text" json:"text"`
	Image     string    `json:"image"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Likes    []PostLike    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comments []PostComment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// PostLike records that a user liked a post. One row per (post, user).
type PostLike struct {
	PostID    string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`
}

// PostComment is a comment left on a post
type PostComment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	PostID    string    `gorm:"size:36;index;not null" json:"-"`
	UserID    string    `gorm:"size:36;not null" json:"-"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Text      string    `gorm:"type:text" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (c *PostComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
