package repository

import (
	"context"
	"errors"

	"github.com/uniconnect/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository handles user notifications
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, notificationID string) (*models.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// GetNotification loads a notification with its sender
func (r *notificationRepository) GetNotification(ctx context.Context, notificationID string) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Preload("Sender").Where("id = ?", notificationID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForRecipient returns the newest notifications for a user
func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	var ns []*models.Notification
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ns).Error
	return ns, err
}

// MarkAllRead flags every unread notification of a user as read.
// Returns the number of rows changed.
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
