package models

import "time"

// User is an account holder. The three counters are denormalized and kept in
// step with the follow and post tables inside the same transactions.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;not null" json:"-"`
	Password       string    `gorm:"not null" json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	FollowersCount int64     `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int64     `gorm:"not null;default:0" json:"following_count"`
	PostCount      int64     `gorm:"not null;default:0" json:"post_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
