package models

import "time"

// Follow represents a one-way follow relationship
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;index;uniqueIndex:idx_follower_following,priority:1"`
	FollowingID uint      `json:"following_id" gorm:"not null;index;uniqueIndex:idx_follower_following,priority:2"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  *User `json:"-" gorm:"foreignKey:FollowerID"`
	Following *User `json:"-" gorm:"foreignKey:FollowingID"`
}
