package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity kinds
const (
	ActivityReactionAdded   = "reaction_added"
	ActivityReactionRemoved = "reaction_removed"
	ActivityFollowed        = "followed"
	ActivityUnfollowed      = "unfollowed"
	ActivityPostCreated     = "post_created"
	ActivityPostDeleted     = "post_deleted"
	ActivityPostReported    = "post_reported"
)

// Activity is an append-only record of a completed user action (MongoDB)
type Activity struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Kind         string             `json:"kind" bson:"kind"`
	ActorID      uint               `json:"actor_id" bson:"actor_id"`
	PostID       uint               `json:"post_id,omitempty" bson:"post_id,omitempty"`
	TargetUserID uint               `json:"target_user_id,omitempty" bson:"target_user_id,omitempty"`
	ReactionType string             `json:"reaction_type,omitempty" bson:"reaction_type,omitempty"`
	Detail       string             `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
