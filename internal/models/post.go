// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post is a short text entry authored by a user. LikeCount and CommentCount are
// denormalized and only ever changed with atomic column arithmetic, each
// change bumping CounterVersion in the same statement.
type Post struct {
	ID             uint      `gorm:"primaryKey;index:idx_posts_feed,priority:2" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	LikeCount      int64     `gorm:"not null;default:0" json:"like_count"`
	CommentCount   int64     `gorm:"not null;default:0" json:"comment_count"`
	CounterVersion int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time `gorm:"index:idx_posts_feed,priority:1" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
