package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/uniconnect/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles all database operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error)
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
	ListOtherUsers(ctx context.Context, userID string, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return r.first(ctx, "id = ?", userID)
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers loads users by id and returns them in the order of userIDs.
// Unknown ids are skipped.
func (r *userRepository) GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error) {
	if len(userIDs) == 0 {
		return []*models.User{}, nil
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]*models.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

// UpdateFields updates the given columns of a user
func (r *userRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	// Serialized columns only go through the struct path
	columns := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		columns[k] = v
	}
	badges, hasBadges := columns["badges"].([]string)
	delete(columns, "badges")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var affected int64
		if len(columns) > 0 {
			res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(columns)
			if res.Error != nil {
				return res.Error
			}
			affected += res.RowsAffected
		}
		if hasBadges {
			res := tx.Model(&models.User{ID: userID}).Select("badges").Updates(&models.User{Badges: badges})
			if res.Error != nil {
				return res.Error
			}
			affected += res.RowsAffected
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListOtherUsers returns up to limit users excluding userID, oldest accounts first
func (r *userRepository) ListOtherUsers(ctx context.Context, userID string, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", userID).
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
