package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/mitaina/backend/internal/metrics"
	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
)

// ReactionResult reports the state left by ToggleReaction. Reaction is nil
// when the toggle removed the reaction. Post carries the updated counters.
type ReactionResult struct {
	Created  bool
	Reaction *models.Reaction
	Post     *models.Post
}

// FollowResult reports the state left by ToggleFollow. Follow is nil when the
// toggle removed the follow.
type FollowResult struct {
	Created   bool
	Follow    *models.Follow
	Following *models.User
}

// InteractionService toggles reactions and follows.
//
// Both toggles run as one transaction: delete the membership row, and only if
// nothing was deleted insert it with ON CONFLICT DO NOTHING. An insert that
// finds the row already present lost a race with a concurrent toggle that
// committed in between, so the call falls back to removing it again.
type InteractionService struct {
	store     repositories.Store
	reactions models.ReactionSet
	activity  *ActivityRecorder
	logger    *slog.Logger
}

func NewInteractionService(store repositories.Store, reactions models.ReactionSet, activity *ActivityRecorder, logger *slog.Logger) *InteractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if activity == nil {
		activity = NewActivityRecorder(nil, logger)
	}
	return &InteractionService{store: store, reactions: reactions, activity: activity, logger: logger}
}

// ReactionTypes returns the enabled reaction types.
func (s *InteractionService) ReactionTypes() models.ReactionSet {
	return s.reactions
}

// ToggleReaction flips userID's reactionType reaction on postID and keeps the
// post counter in step with the reaction rows.
func (s *InteractionService) ToggleReaction(ctx context.Context, userID, postID uint, reactionType string) (result ReactionResult, err error) {
	if !s.reactions.Contains(reactionType) {
		return ReactionResult{}, fmt.Errorf("%w: unknown reaction type %q", ErrInvalidArgument, reactionType)
	}

	start := time.Now()
	defer func() {
		metrics.ObserveToggle(reactionType, metrics.ToggleOutcome(result.Created, err), start)
	}()

	var notified bool
	err = s.store.Transaction(ctx, func(r *repositories.Repos) error {
		post, err := r.Posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFound(err, "post")
		}

		removed, err := r.Reactions.DeleteReaction(ctx, userID, postID, reactionType)
		if err != nil {
			return err
		}

		if !removed {
			reaction := &models.Reaction{UserID: userID, PostID: postID, ReactionType: reactionType}
			outcome, err := r.Reactions.InsertReaction(ctx, reaction)
			if err != nil {
				return err
			}

			if outcome == repositories.Inserted {
				if err := r.Posts.IncrementCounter(ctx, postID, reactionType); err != nil {
					return notFound(err, "post")
				}
				if reactionType == models.ReactionLike && post.AuthorID != userID {
					outcome, err := r.Notifications.EnsureNotification(ctx, models.NewLikedNotification(post.AuthorID, userID, postID))
					if err != nil {
						return err
					}
					notified = outcome == repositories.Inserted
				}
				result.Created = true
				result.Reaction = reaction
				result.Post, err = r.Posts.GetPostByID(ctx, postID)
				return err
			}

			// A concurrent toggle committed the row after our delete.
			removed, err = r.Reactions.DeleteReaction(ctx, userID, postID, reactionType)
			if err != nil {
				return err
			}
		}

		if removed {
			if err := r.Posts.DecrementCounter(ctx, postID, reactionType); err != nil {
				return notFound(err, "post")
			}
		}
		result.Post, err = r.Posts.GetPostByID(ctx, postID)
		return err
	})
	if err != nil {
		return ReactionResult{}, err
	}

	if notified {
		metrics.NotificationsCreated.WithLabelValues(models.NotificationLiked).Inc()
	}
	kind := models.ActivityReactionRemoved
	if result.Created {
		kind = models.ActivityReactionAdded
	}
	s.activity.Record(ctx, models.Activity{
		Kind:         kind,
		ActorID:      userID,
		PostID:       postID,
		TargetUserID: result.Post.AuthorID,
		ReactionType: reactionType,
	})
	return result, nil
}

// ToggleFollow flips the follow from followerID to followingID.
func (s *InteractionService) ToggleFollow(ctx context.Context, followerID, followingID uint) (result FollowResult, err error) {
	if followerID == followingID {
		return FollowResult{}, fmt.Errorf("%w: cannot follow yourself", ErrInvalidArgument)
	}

	start := time.Now()
	defer func() {
		metrics.ObserveToggle(metrics.KindFollow, metrics.ToggleOutcome(result.Created, err), start)
	}()

	var notified bool
	err = s.store.Transaction(ctx, func(r *repositories.Repos) error {
		following, err := r.Users.GetUserByID(ctx, followingID)
		if err != nil {
			return notFound(err, "user")
		}
		result.Following = following

		removed, err := r.Follows.DeleteFollow(ctx, followerID, followingID)
		if err != nil || removed {
			return err
		}

		follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
		outcome, err := r.Follows.InsertFollow(ctx, follow)
		if err != nil {
			return err
		}
		if outcome == repositories.AlreadyPresent {
			// A concurrent toggle committed the row after our delete.
			_, err = r.Follows.DeleteFollow(ctx, followerID, followingID)
			return err
		}

		outcome, err = r.Notifications.EnsureNotification(ctx, models.NewFollowedNotification(followingID, followerID))
		if err != nil {
			return err
		}
		notified = outcome == repositories.Inserted
		result.Created = true
		result.Follow = follow
		return nil
	})
	if err != nil {
		return FollowResult{}, err
	}

	if notified {
		metrics.NotificationsCreated.WithLabelValues(models.NotificationFollowed).Inc()
	}
	kind := models.ActivityUnfollowed
	if result.Created {
		kind = models.ActivityFollowed
	}
	s.activity.Record(ctx, models.Activity{Kind: kind, ActorID: followerID, TargetUserID: followingID})
	return result, nil
}
