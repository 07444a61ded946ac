package handlers

import (
	"time"

	"github.com/anonto42/mitaina/backend/internal/models"
)

// PostView is a post as returned by the API
type PostView struct {
	models.Post
	Author         models.UserCompact `json:"author"`
	ReactionCounts map[string]int64   `json:"reaction_counts"`
	MyReactions    []string           `json:"my_reactions"`
}

func newPostView(p models.Post, set models.ReactionSet, mine []string) PostView {
	v := PostView{Post: p, ReactionCounts: p.ReactionCounts(set), MyReactions: mine}
	if p.Author != nil {
		v.Author = p.Author.ToCompact()
	}
	if v.MyReactions == nil {
		v.MyReactions = []string{}
	}
	return v
}

// FollowView is a follow relationship with the user on the other side
type FollowView struct {
	ID        uint                `json:"id"`
	Follower  *models.UserCompact `json:"follower,omitempty"`
	Following *models.UserCompact `json:"following,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func newFollowView(f models.Follow) FollowView {
	v := FollowView{ID: f.ID, CreatedAt: f.CreatedAt}
	if f.Follower != nil {
		c := f.Follower.ToCompact()
		v.Follower = &c
	}
	if f.Following != nil {
		c := f.Following.ToCompact()
		v.Following = &c
	}
	return v
}

// PostSummary is the short post shown inside notifications
type PostSummary struct {
	ID     uint               `json:"id"`
	Text   string             `json:"text"`
	Genre  string             `json:"genre"`
	Author models.UserCompact `json:"author"`
}

// NotificationView is a notification with its actor and post
type NotificationView struct {
	ID               uint               `json:"id"`
	NotificationType string             `json:"notification_type"`
	IsRead           bool               `json:"is_read"`
	CreatedAt        time.Time          `json:"created_at"`
	Actor            models.UserCompact `json:"actor"`
	Post             *PostSummary       `json:"post"`
}

func newNotificationView(n models.Notification) NotificationView {
	v := NotificationView{
		ID:               n.ID,
		NotificationType: n.NotificationType,
		IsRead:           n.IsRead,
		CreatedAt:        n.CreatedAt,
	}
	if n.Actor != nil {
		v.Actor = n.Actor.ToCompact()
	}
	if n.Post != nil {
		v.Post = &PostSummary{ID: n.Post.ID, Text: n.Post.Text, Genre: n.Post.Genre}
		if n.Post.Author != nil {
			v.Post.Author = n.Post.Author.ToCompact()
		}
	}
	return v
}

func newNotificationViews(ns []models.Notification) []NotificationView {
	views := make([]NotificationView, len(ns))
	for i, n := range ns {
		views[i] = newNotificationView(n)
	}
	return views
}
