package models

import (
	"fmt"
	"strings"
	"time"
)

// Reaction represents a user's current reaction of one type on a post.
// A row exists only while the reaction is active.
type Reaction struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_reaction_user_post_type,priority:1"`
	PostID       uint      `json:"post_id" gorm:"not null;index;uniqueIndex:idx_reaction_user_post_type,priority:2"`
	ReactionType string    `json:"reaction_type" gorm:"size:20;not null;uniqueIndex:idx_reaction_user_post_type,priority:3"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`

	Post *Post `json:"-" gorm:"foreignKey:PostID"`
}

// Known reaction types. Each one owns a counter column on posts.
const (
	ReactionLike    = "like"
	ReactionHatena  = "hatena"
	ReactionCorrect = "correct"
	ReactionCollect = "collect"
)

var counterColumns = map[string]string{
	ReactionLike:    "like_count",
	ReactionHatena:  "hatena_count",
	ReactionCorrect: "correct_count",
	ReactionCollect: "collect_count",
}

// KnownReactionTypes lists every type that has a counter column, in display order.
func KnownReactionTypes() []string {
	return []string{ReactionLike, ReactionHatena, ReactionCorrect, ReactionCollect}
}

// CounterColumn returns the posts column that caches the count for reactionType.
func CounterColumn(reactionType string) (string, bool) {
	col, ok := counterColumns[reactionType]
	return col, ok
}

// ReactionSet is the configured set of enabled reaction types.
type ReactionSet struct {
	types []string
	index map[string]struct{}
}

// NewReactionSet builds a set from the given types. Every type must have a
// counter column and appear at most once.
func NewReactionSet(types []string) (ReactionSet, error) {
	set := ReactionSet{index: make(map[string]struct{}, len(types))}
	for _, raw := range types {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		if _, ok := counterColumns[t]; !ok {
			return ReactionSet{}, fmt.Errorf("reaction type %q has no counter column", t)
		}
		if _, dup := set.index[t]; dup {
			return ReactionSet{}, fmt.Errorf("reaction type %q listed twice", t)
		}
		set.index[t] = struct{}{}
		set.types = append(set.types, t)
	}
	if len(set.types) == 0 {
		return ReactionSet{}, fmt.Errorf("at least one reaction type is required")
	}
	return set, nil
}

// DefaultReactionSet enables every known type.
func DefaultReactionSet() ReactionSet {
	set, _ := NewReactionSet(KnownReactionTypes())
	return set
}

// Contains reports whether reactionType is enabled.
func (s ReactionSet) Contains(reactionType string) bool {
	_, ok := s.index[reactionType]
	return ok
}

// Types returns the enabled types in configured order.
func (s ReactionSet) Types() []string {
	out := make([]string, len(s.types))
	copy(out, s.types)
	return out
}

// String joins the enabled types with ", ".
func (s ReactionSet) String() string {
	return strings.Join(s.types, ", ")
}

// ReactionToggleRequest defines the request body for toggling a reaction
type ReactionToggleRequest struct {
	ReactionType string `json:"reaction_type" validate:"required"`
}
