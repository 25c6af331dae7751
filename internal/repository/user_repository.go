package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yatube/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for users and the follow graph
type UserRepository interface {
	// User CRUD
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID uint, at time.Time) error
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
	DeleteUser(ctx context.Context, username string) error

	// Followers/Following
	GetFollowerCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)

	// Follow relationship
	CreateFollow(ctx context.Context, followerID, authorID uint) (bool, error)
	DeleteFollow(ctx context.Context, followerID, authorID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser creates a new user
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername gets a user by exact username, as used in profile URLs
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameTaken checks for a case-insensitive username clash
func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", username).
		Count(&count).Error
	return count > 0, err
}

// EmailTaken checks for a case-insensitive email clash
func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// SetAdmin grants or revokes admin rights
func (r *userRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the account along with its posts, comments and follow edges
func (r *userRepository) DeleteUser(ctx context.Context, username string) error {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetFollowerCount returns how many users follow userID
func (r *userRepository) GetFollowerCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("author_id = ?", userID).
		Count(&count).Error
	return count, err
}

// GetFollowingCount returns how many authors userID follows
func (r *userRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CreateFollow inserts the edge unless it already exists. created is false
// when the pair was already present; a concurrent duplicate resolves to the
// same outcome through the unique index instead of surfacing an error.
func (r *userRepository) CreateFollow(ctx context.Context, followerID, authorID uint) (bool, error) {
	if followerID == authorID {
		return false, ErrSelfFollow
	}

	follow := models.Follow{UserID: followerID, AuthorID: authorID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteFollow removes the edge if present
func (r *userRepository) DeleteFollow(ctx context.Context, followerID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsFollowing checks if followerID follows authorID
func (r *userRepository) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	return count > 0, err
}
