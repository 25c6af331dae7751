package models

import (
	"time"
)

// ShortTextLimit is how many characters of a post or comment its String form shows
const ShortTextLimit = 15

// Group is a themed community a post may belong to
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;size:50;not null" json:"slug"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
}

func (g *Group) String() string {
	return g.Title
}

// Post is a text entry with an optional image. Deleting the author deletes the post;
// deleting the group leaves the post ungrouped.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"group,omitempty"`
}

func (p *Post) String() string {
	return Truncate(p.Text, ShortTextLimit)
}

// Comment is a reply to a post. It goes away with either its post or its author.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (c *Comment) String() string {
	return Truncate(c.Text, ShortTextLimit)
}

// Truncate returns the first n characters of s, counted in runes
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
