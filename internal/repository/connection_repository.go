package repository

import (
	"context"
	"errors"

	"github.com/uniconnect/backend/internal/models"
	"gorm.io/gorm"
)

// ConnectionRepository handles connection requests between users
type ConnectionRepository interface {
	CreateConnection(ctx context.Context, conn *models.Connection) error
	GetConnection(ctx context.Context, connectionID string) (*models.Connection, error)
	FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error)
	SetStatus(ctx context.Context, connectionID, status string) error
	DeleteConnection(ctx context.Context, connectionID string) error
	ListPendingFor(ctx context.Context, recipientID string) ([]*models.Connection, error)
	ListAccepted(ctx context.Context, userID string) ([]*models.Connection, error)
	ListInvolving(ctx context.Context, userID string) ([]*models.Connection, error)
}

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) CreateConnection(ctx context.Context, conn *models.Connection) error {
	if conn == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *connectionRepository) GetConnection(ctx context.Context, connectionID string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).Where("id = ?", connectionID).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// FindBetween returns the connection between two users in either direction
func (r *connectionRepository) FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)", userA, userB, userB, userA).
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) SetStatus(ctx context.Context, connectionID, status string) error {
	return r.db.WithContext(ctx).Model(&models.Connection{}).
		Where("id = ?", connectionID).
		Update("status", status).Error
}

func (r *connectionRepository) DeleteConnection(ctx context.Context, connectionID string) error {
	return r.db.WithContext(ctx).Where("id = ?", connectionID).Delete(&models.Connection{}).Error
}

// ListPendingFor returns pending requests addressed to recipientID with requesters loaded
func (r *connectionRepository) ListPendingFor(ctx context.Context, recipientID string) ([]*models.Connection, error) {
	var conns []*models.Connection
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("recipient_id = ? AND status = ?", recipientID, models.ConnectionPending).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, err
}

// ListAccepted returns accepted connections involving userID with both sides loaded
func (r *connectionRepository) ListAccepted(ctx context.Context, userID string) ([]*models.Connection, error) {
	var conns []*models.Connection
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Recipient").
		Where("(requester_id = ? OR recipient_id = ?) AND requester_id <> recipient_id", userID, userID).
		Where("status = ?", models.ConnectionAccepted).
		Order("updated_at DESC").
		Find(&conns).Error
	return conns, err
}

// ListInvolving returns every connection row that involves userID
func (r *connectionRepository) ListInvolving(ctx context.Context, userID string) ([]*models.Connection, error) {
	var conns []*models.Connection
	err := r.db.WithContext(ctx).
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Find(&conns).Error
	return conns, err
}
