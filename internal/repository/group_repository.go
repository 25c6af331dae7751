package repository

import (
	"context"
	"errors"

	"github.com/yatube/backend/internal/models"
	"gorm.io/gorm"
)

// GroupRepository handles database operations for groups
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID uint) (*models.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	// DeleteGroup removes a group; its posts stay, ungrouped
	DeleteGroup(ctx context.Context, slug string) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group == nil || group.Slug == "" || group.Title == "" {
		return ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Create(group).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateGroup
	}
	return err
}

func (r *groupRepository) GetGroup(ctx context.Context, groupID uint) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).First(&group, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups returns every group ordered by title, for the post form's select
func (r *groupRepository) ListGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	err := r.db.WithContext(ctx).Order("title ASC").Order("id ASC").Find(&groups).Error
	return groups, err
}

func (r *groupRepository) DeleteGroup(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Group{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}
