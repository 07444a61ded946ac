package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"github.com/anonto42/mitaina/backend/pkg/config"
)

var testGenres = []string{"movie", "drama", "anime", "manga", "stage", "music", "book", "game", "other"}

type fixture struct {
	db           *gorm.DB
	store        *repositories.GormStore
	interactions *InteractionService
	posts        *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := config.OpenSQL("sqlite://" + filepath.Join(t.TempDir(), "mitaina.db"))
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repositories.NewGormStore(db)
	reactions := models.DefaultReactionSet()
	return &fixture{
		db:           db,
		store:        store,
		interactions: NewInteractionService(store, reactions, nil, nil),
		posts:        NewPostService(store, reactions, testGenres, nil, nil),
	}
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, HandleName: username, Email: fmt.Sprintf("%s@example.com", username)}
	require.NoError(t, f.store.Repos().Users.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, text string) *models.Post {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), author.ID, models.CreatePostRequest{Text: text, Genre: "movie"})
	require.NoError(t, err)
	return p
}

func (f *fixture) reloadPost(t *testing.T, id uint) *models.Post {
	t.Helper()
	p, err := f.store.Repos().Posts.UnscopedGetPost(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) reactionRows(t *testing.T, postID uint, reactionType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Reaction{}).
		Where("post_id = ? AND reaction_type = ?", postID, reactionType).
		Count(&n).Error)
	return n
}

func (f *fixture) notifications(t *testing.T, recipientID uint, notificationType string) []models.Notification {
	t.Helper()
	var ns []models.Notification
	require.NoError(t, f.db.Where("recipient_id = ? AND notification_type = ?", recipientID, notificationType).Find(&ns).Error)
	return ns
}
