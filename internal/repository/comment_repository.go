package repository

import (
	"context"
	"errors"

	"github.com/yatube/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository handles database operations for comments
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	// ListComments returns a post's comments, newest first
	ListComments(ctx context.Context, postID uint) ([]*models.Comment, error)
	CountComments(ctx context.Context, postID uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment == nil || comment.PostID == 0 || comment.AuthorID == 0 {
		return ErrInvalidInput
	}
	comment.ID = 0
	comment.CreatedAt = r.db.NowFunc()
	err := r.db.WithContext(ctx).Omit("Post", "Author").Create(comment).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrPostNotFound
	}
	return err
}

func (r *commentRepository) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountComments(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}
