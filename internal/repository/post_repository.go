package repository

import (
	"context"
	"errors"

	"github.com/yatube/backend/internal/models"
	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	GroupID  *uint
	AuthorID *uint
	// FollowerID restricts the listing to authors this user follows
	FollowerID *uint
}

// PostRepository handles database operations for posts.
// Every listing is ordered newest first, ties broken by descending ID.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID uint) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, postID uint) error

	ListPosts(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// CreatePost inserts a post. The creation time is always assigned here.
func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post == nil || post.AuthorID == 0 {
		return ErrInvalidInput
	}
	post.ID = 0
	post.CreatedAt = r.db.NowFunc()
	return r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error
}

// GetPost loads a post with its author and group
func (r *postRepository) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost writes the editable fields (text, group, image). Author and
// creation time never change.
func (r *postRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	if post == nil || post.ID == 0 {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("text", "group_id", "image", "updated_at").
		Updates(map[string]interface{}{
			"text":       post.Text,
			"group_id":   post.GroupID,
			"image":      post.Image,
			"updated_at": r.db.NowFunc(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post and, through the foreign key, its comments
func (r *postRepository) DeletePost(ctx context.Context, postID uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, postID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ListPosts returns one window of the filtered listing
func (r *postRepository) ListPosts(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.scoped(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// CountPosts counts the filtered listing
func (r *postRepository) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	err := r.scoped(ctx, filter).Count(&count).Error
	return count, err
}

func (r *postRepository) scoped(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.GroupID != nil {
		q = q.Where("posts.group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *filter.AuthorID)
	}
	if filter.FollowerID != nil {
		followed := r.db.Model(&models.Follow{}).
			Select("author_id").
			Where("user_id = ?", *filter.FollowerID)
		q = q.Where("posts.author_id IN (?)", followed)
	}
	return q
}
