package models

import (
	"fmt"
	"time"
)

// Notification types
const (
	NotificationLiked    = "liked"
	NotificationFollowed = "followed"
)

// Notification represents a user notification (PostgreSQL).
// DedupKey holds the natural identity of the notification, so at most one
// row exists per (recipient, actor, type[, post]).
type Notification struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	RecipientID      uint      `json:"recipient_id" gorm:"not null;index"`
	ActorID          uint      `json:"actor_id" gorm:"not null;index"`
	NotificationType string    `json:"notification_type" gorm:"size:30;not null;index"`
	PostID           *uint     `json:"post_id" gorm:"index"`
	DedupKey         string    `json:"-" gorm:"size:120;not null;uniqueIndex"`
	IsRead           bool      `json:"is_read" gorm:"not null;default:false;index"`
	CreatedAt        time.Time `json:"created_at" gorm:"index"`

	Actor *User `json:"-" gorm:"foreignKey:ActorID"`
	Post  *Post `json:"-" gorm:"foreignKey:PostID"`
}

// NewLikedNotification builds the notification sent to a post author when actor likes it.
func NewLikedNotification(recipientID, actorID, postID uint) *Notification {
	pid := postID
	return &Notification{
		RecipientID:      recipientID,
		ActorID:          actorID,
		NotificationType: NotificationLiked,
		PostID:           &pid,
		DedupKey:         fmt.Sprintf("%s:%d:%d:%d", NotificationLiked, recipientID, actorID, postID),
	}
}

// NewFollowedNotification builds the notification sent to a user when actor follows them.
func NewFollowedNotification(recipientID, actorID uint) *Notification {
	return &Notification{
		RecipientID:      recipientID,
		ActorID:          actorID,
		NotificationType: NotificationFollowed,
		DedupKey:         fmt.Sprintf("%s:%d:%d", NotificationFollowed, recipientID, actorID),
	}
}
