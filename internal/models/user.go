package models

import (
	"strings"
	"time"
)

// User is a registered account. Authors, commenters and followers are all users.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	PasswordHash string     `gorm:"type:text;not null" json:"-"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName returns "First Last", or the username when no name is set
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) String() string {
	return u.Username
}

// Follow is a directed subscription: User follows Author.
// The (user_id, author_id) pair is unique.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follows_user_author" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follows_user_author;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordReset is a single-use token mailed to a user who forgot their password
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token can no longer be redeemed
func (p *PasswordReset) Expired(now time.Time) bool {
	return p.Used || now.After(p.ExpiresAt)
}
