package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
)

// PostService creates, lists, deletes and reports posts.
type PostService struct {
	store     repositories.Store
	reactions models.ReactionSet
	genres    map[string]struct{}
	activity  *ActivityRecorder
	logger    *slog.Logger
}

func NewPostService(store repositories.Store, reactions models.ReactionSet, genres []string, activity *ActivityRecorder, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	if activity == nil {
		activity = NewActivityRecorder(nil, logger)
	}
	g := make(map[string]struct{}, len(genres))
	for _, genre := range genres {
		g[genre] = struct{}{}
	}
	return &PostService{store: store, reactions: reactions, genres: g, activity: activity, logger: logger}
}

// ValidGenre reports whether genre is configured.
func (s *PostService) ValidGenre(genre string) bool {
	_, ok := s.genres[genre]
	return ok
}

// CreatePost stores a new post by authorID. The trailing suffix is stripped
// before the text is checked.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, req models.CreatePostRequest) (*models.Post, error) {
	text := models.StripSuffix(req.Text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidArgument)
	}
	if n := utf8.RuneCountInString(text); n > models.MaxPostTextInput {
		return nil, fmt.Errorf("%w: text has %d characters, at most %d allowed", ErrInvalidArgument, n, models.MaxPostTextInput)
	}
	if !s.ValidGenre(req.Genre) {
		return nil, fmt.Errorf("%w: unknown genre %q", ErrInvalidArgument, req.Genre)
	}

	post := &models.Post{
		AuthorID:      authorID,
		Text:          text,
		Genre:         req.Genre,
		WorkTitle:     nonEmpty(req.WorkTitle),
		PerformerName: nonEmpty(req.PerformerName),
		CharacterName: nonEmpty(req.CharacterName),
	}
	repos := s.store.Repos()
	if err := repos.Posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	created, err := repos.Posts.GetPostByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, models.Activity{Kind: models.ActivityPostCreated, ActorID: authorID, PostID: post.ID})
	return created, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// GetPost returns a live post.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.store.Repos().Posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post")
	}
	return post, nil
}

// ListPosts lists live posts matching filter.
func (s *PostService) ListPosts(ctx context.Context, filter models.PostFilter, page repositories.Page) ([]models.Post, int64, error) {
	if filter.Genre != "" && !s.ValidGenre(filter.Genre) {
		return nil, 0, fmt.Errorf("%w: unknown genre %q", ErrInvalidArgument, filter.Genre)
	}
	if !repositories.ValidOrdering(filter.Ordering) {
		return nil, 0, fmt.Errorf("%w: cannot order by %q", ErrInvalidArgument, filter.Ordering)
	}
	return s.store.Repos().Posts.ListPosts(ctx, filter, page)
}

// Feed lists the live posts of the users viewerID follows.
func (s *PostService) Feed(ctx context.Context, viewerID uint, page repositories.Page) ([]models.Post, int64, error) {
	return s.store.Repos().Posts.ListFeed(ctx, viewerID, page)
}

// ReactedPosts lists the live posts userID reacted to with reactionType.
func (s *PostService) ReactedPosts(ctx context.Context, userID uint, reactionType string, page repositories.Page) ([]models.Post, int64, error) {
	if !s.reactions.Contains(reactionType) {
		return nil, 0, fmt.Errorf("%w: unknown reaction type %q", ErrInvalidArgument, reactionType)
	}
	return s.store.Repos().Posts.ListReactedPosts(ctx, userID, reactionType, page)
}

// MyReactions returns the reaction types viewerID has on each of postIDs.
func (s *PostService) MyReactions(ctx context.Context, viewerID uint, postIDs []uint) (map[uint][]string, error) {
	return s.store.Repos().Reactions.TypesByUser(ctx, viewerID, postIDs)
}

// DeletePost soft-deletes postID. Only its author may delete it.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	err := s.store.Transaction(ctx, func(r *repositories.Repos) error {
		post, err := r.Posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFound(err, "post")
		}
		if post.AuthorID != userID {
			return fmt.Errorf("%w: only the author can delete this post", ErrForbidden)
		}
		return notFound(r.Posts.SoftDeletePost(ctx, postID), "post")
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, models.Activity{Kind: models.ActivityPostDeleted, ActorID: userID, PostID: postID})
	return nil
}

// ReportPost files reporterID's report on a live post. A second report by the
// same user fails with ErrAlreadyReported.
func (s *PostService) ReportPost(ctx context.Context, reporterID, postID uint, reason string) (*models.Report, error) {
	switch reason {
	case models.ReportSpam, models.ReportInappropriate, models.ReportQuote:
	default:
		return nil, fmt.Errorf("%w: unknown report reason %q", ErrInvalidArgument, reason)
	}

	repos := s.store.Repos()
	if _, err := repos.Posts.GetPostByID(ctx, postID); err != nil {
		return nil, notFound(err, "post")
	}

	report := &models.Report{ReporterID: reporterID, PostID: postID, Reason: reason}
	outcome, err := repos.Reports.CreateReport(ctx, report)
	if err != nil {
		return nil, err
	}
	if outcome == repositories.AlreadyPresent {
		return nil, ErrAlreadyReported
	}

	s.activity.Record(ctx, models.Activity{
		Kind:    models.ActivityPostReported,
		ActorID: reporterID,
		PostID:  postID,
		Detail:  reason,
	})
	return report, nil
}
