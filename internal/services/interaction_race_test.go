package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
)

// racingStore runs interleave inside the toggle's transaction right before
// the membership insert, standing in for a competing toggle that committed
// between our delete and our insert.
type racingStore struct {
	repositories.Store
	interleave func(ctx context.Context, r *repositories.Repos) error
	posts      func(repositories.PostRepository) repositories.PostRepository
}

func (s *racingStore) Transaction(ctx context.Context, fn func(r *repositories.Repos) error) error {
	return s.Store.Transaction(ctx, func(r *repositories.Repos) error {
		wrapped := *r
		before := func() error {
			if s.interleave == nil {
				return nil
			}
			return s.interleave(ctx, r)
		}
		wrapped.Reactions = racingReactions{ReactionRepository: r.Reactions, before: before}
		wrapped.Follows = racingFollows{FollowRepository: r.Follows, before: before}
		if s.posts != nil {
			wrapped.Posts = s.posts(r.Posts)
		}
		return fn(&wrapped)
	})
}

type racingReactions struct {
	repositories.ReactionRepository
	before func() error
}

func (r racingReactions) InsertReaction(ctx context.Context, reaction *models.Reaction) (repositories.InsertOutcome, error) {
	if err := r.before(); err != nil {
		return 0, err
	}
	return r.ReactionRepository.InsertReaction(ctx, reaction)
}

type racingFollows struct {
	repositories.FollowRepository
	before func() error
}

func (r racingFollows) InsertFollow(ctx context.Context, follow *models.Follow) (repositories.InsertOutcome, error) {
	if err := r.before(); err != nil {
		return 0, err
	}
	return r.FollowRepository.InsertFollow(ctx, follow)
}

// deletingPosts soft-deletes the post right before its counter is touched.
type deletingPosts struct {
	repositories.PostRepository
}

func (p deletingPosts) IncrementCounter(ctx context.Context, postID uint, reactionType string) error {
	if err := p.SoftDeletePost(ctx, postID); err != nil {
		return err
	}
	return p.PostRepository.IncrementCounter(ctx, postID, reactionType)
}

func TestToggleReactionInsertConflictTurnsOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	bob := f.user(t, "bob")
	post := f.post(t, author, "競合する投稿")

	store := &racingStore{Store: f.store}
	store.interleave = func(ctx context.Context, r *repositories.Repos) error {
		store.interleave = nil
		outcome, err := r.Reactions.InsertReaction(ctx, &models.Reaction{UserID: bob.ID, PostID: post.ID, ReactionType: models.ReactionLike})
		if err != nil {
			return err
		}
		if outcome != repositories.Inserted {
			return errors.New("competing insert did not create the row")
		}
		return r.Posts.IncrementCounter(ctx, post.ID, models.ReactionLike)
	}
	svc := NewInteractionService(store, models.DefaultReactionSet(), nil, nil)

	result, err := svc.ToggleReaction(ctx, bob.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Nil(t, result.Reaction)
	assert.Equal(t, int64(0), result.Post.LikeCount)
	assert.Equal(t, int64(0), f.reactionRows(t, post.ID, models.ReactionLike))
	assert.Equal(t, int64(0), f.reloadPost(t, post.ID).LikeCount)
	assert.Empty(t, f.notifications(t, author.ID, models.NotificationLiked))
}

func TestToggleFollowInsertConflictTurnsOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	store := &racingStore{Store: f.store}
	store.interleave = func(ctx context.Context, r *repositories.Repos) error {
		store.interleave = nil
		outcome, err := r.Follows.InsertFollow(ctx, &models.Follow{FollowerID: bob.ID, FollowingID: alice.ID})
		if err == nil && outcome != repositories.Inserted {
			err = errors.New("competing insert did not create the row")
		}
		return err
	}
	svc := NewInteractionService(store, models.DefaultReactionSet(), nil, nil)

	result, err := svc.ToggleFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Nil(t, result.Follow)

	following, err := f.store.Repos().Follows.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)
	assert.Empty(t, f.notifications(t, alice.ID, models.NotificationFollowed))
}

func TestToggleReactionOnPostDeletedMidway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	bob := f.user(t, "bob")
	post := f.post(t, author, "途中で消える")

	store := &racingStore{
		Store: f.store,
		posts: func(p repositories.PostRepository) repositories.PostRepository { return deletingPosts{p} },
	}
	svc := NewInteractionService(store, models.DefaultReactionSet(), nil, nil)

	_, err := svc.ToggleReaction(ctx, bob.ID, post.ID, models.ReactionLike)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	// The transaction rolled back: no reaction row and the post is still live.
	assert.Equal(t, int64(0), f.reactionRows(t, post.ID, models.ReactionLike))
	_, err = f.posts.GetPost(ctx, post.ID)
	assert.NoError(t, err)
}
