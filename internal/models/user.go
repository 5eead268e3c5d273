// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in the feed application. The Posts association
// is the user's owned-post set: it is maintained explicitly by the feed
// service through user_posts join rows, not derived from Post.UserID.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"many2many:user_posts" json:"posts,omitempty"`
}

// UserPost is a row in the owned-post set. The unique index makes appends
// idempotent under concurrent creates.
type UserPost struct {
	UserID    uint      `gorm:"primaryKey;uniqueIndex:idx_user_post" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;uniqueIndex:idx_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Creator is the minimal public identity attached to posts and feed events.
type Creator struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Summary returns the user's public identity.
func (u *User) Summary() Creator {
	return Creator{ID: u.ID, Username: u.Username}
}
