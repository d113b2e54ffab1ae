package repository

import (
	"context"
	"errors"

	"github.com/uniconnect/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository handles posts, likes and comments
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	GetLikerIDs(ctx context.Context, postID string) ([]string, error)
	AddComment(ctx context.Context, comment *models.PostComment) error
	GetComments(ctx context.Context, postID string) ([]models.PostComment, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User")
}

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(post).Error
}

// GetPost loads a post with author, likes and comments
func (r *postRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(ctx).Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns every post, newest first
func (r *postRepository) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withRelations(ctx).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// ToggleLike adds the like if absent and removes it otherwise.
// Returns true when the post is liked after the call.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	db := r.db.WithContext(ctx)

	res := db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	like := models.PostLike{PostID: postID, UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
		return false, err
	}
	return true, nil
}

// GetLikerIDs returns the ids of users who liked a post, in like order
func (r *postRepository) GetLikerIDs(ctx context.Context, postID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *postRepository) AddComment(ctx context.Context, comment *models.PostComment) error {
	if comment == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetComments returns a post's comments oldest first with authors loaded
func (r *postRepository) GetComments(ctx context.Context, postID string) ([]models.PostComment, error) {
	var comments []models.PostComment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
