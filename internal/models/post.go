package models

import (
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"
)

// PostSuffix is appended to every post text by clients, so it is never stored.
const PostSuffix = "みたいな"

// Text limits in runes. Storage keeps room for a space and the four-rune suffix.
const (
	MaxPostTextStored = 141
	MaxPostTextInput  = MaxPostTextStored - 5
)

// Post represents a short text post (PostgreSQL)
type Post struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	AuthorID      uint           `json:"author_id" gorm:"not null;index"`
	Text          string         `json:"text" gorm:"size:141;not null"`
	Genre         string         `json:"genre" gorm:"size:30;not null;index"`
	WorkTitle     *string        `json:"work_title" gorm:"size:200"`
	PerformerName *string        `json:"performer_name" gorm:"size:200"`
	CharacterName *string        `json:"character_name" gorm:"size:200"`
	LikeCount     int64          `json:"like_count" gorm:"not null;default:0"`
	HatenaCount   int64          `json:"hatena_count" gorm:"not null;default:0"`
	CorrectCount  int64          `json:"correct_count" gorm:"not null;default:0"`
	CollectCount  int64          `json:"collect_count" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	Author *User `json:"-" gorm:"foreignKey:AuthorID"`
}

// Count returns the cached counter for reactionType.
func (p *Post) Count(reactionType string) int64 {
	switch reactionType {
	case ReactionLike:
		return p.LikeCount
	case ReactionHatena:
		return p.HatenaCount
	case ReactionCorrect:
		return p.CorrectCount
	case ReactionCollect:
		return p.CollectCount
	}
	return 0
}

// ReactionCounts returns the counters of the enabled types keyed by type.
func (p *Post) ReactionCounts(set ReactionSet) map[string]int64 {
	counts := make(map[string]int64, len(set.types))
	for _, t := range set.types {
		counts[t] = p.Count(t)
	}
	return counts
}

// StripSuffix removes one trailing PostSuffix and the whitespace around it.
func StripSuffix(text string) string {
	if text == "" {
		return text
	}
	t := strings.TrimRightFunc(text, unicode.IsSpace)
	if strings.HasSuffix(t, PostSuffix) {
		t = strings.TrimRightFunc(strings.TrimSuffix(t, PostSuffix), unicode.IsSpace)
	}
	return t
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Text          string  `json:"text" validate:"required,max=136"`
	Genre         string  `json:"genre" validate:"required,genre"`
	WorkTitle     *string `json:"work_title,omitempty" validate:"omitempty,max=200"`
	PerformerName *string `json:"performer_name,omitempty" validate:"omitempty,max=200"`
	CharacterName *string `json:"character_name,omitempty" validate:"omitempty,max=200"`
}

// PostFilter narrows post listings.
type PostFilter struct {
	Genre    string
	Search   string
	AuthorID uint
	Ordering string
}
