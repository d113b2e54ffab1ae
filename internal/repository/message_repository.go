package repository

import (
	"context"
	"errors"

	"github.com/uniconnect/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository handles direct and group chat messages
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	ListGroupMessages(ctx context.Context, groupID string) ([]*models.Message, error)
	ListGroupMedia(ctx context.Context, groupID string) ([]*models.Message, error)
	ListDirectMessages(ctx context.Context, userA, userB string) ([]*models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetMessage loads a message with its sender
func (r *messageRepository) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).Preload("Sender").Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListGroupMessages returns a group's history oldest first
func (r *messageRepository) ListGroupMessages(ctx context.Context, groupID string) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// ListGroupMedia returns a group's messages that carry an attachment, newest first
func (r *messageRepository) ListGroupMedia(ctx context.Context, groupID string) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id = ? AND file_url <> ?", groupID, "").
		Order("created_at DESC").
		Find(&msgs).Error
	return msgs, err
}

// ListDirectMessages returns the conversation between two users oldest first
func (r *messageRepository) ListDirectMessages(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id IS NULL").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}
