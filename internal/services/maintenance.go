package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anonto42/mitaina/backend/internal/metrics"
	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Maintenance runs the offline jobs behind mitainactl.
type Maintenance struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewMaintenance(store repositories.Store, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{store: store, logger: logger}
}

// ReconcileReport summarizes a counter reconciliation run.
type ReconcileReport struct {
	Checked int
	Drifted int
}

// ReconcileCounters recomputes every post counter from the reaction rows.
// Each post is checked and fixed in its own transaction that holds the post
// row lock while it counts, so a concurrent toggle cannot slip its increment
// between the count and the write. With dryRun set,
// drift is reported but nothing is written.
func (m *Maintenance) ReconcileCounters(ctx context.Context, dryRun bool) (ReconcileReport, error) {
	var report ReconcileReport

	ids, err := m.store.Repos().Posts.UnscopedPostIDs(ctx)
	if err != nil {
		return report, err
	}

	for _, id := range ids {
		err := m.store.Transaction(ctx, func(r *repositories.Repos) error {
			post, err := r.Posts.LockPost(ctx, id)
			if err != nil {
				return err
			}
			counts, err := r.Reactions.CountByPost(ctx, id)
			if err != nil {
				return err
			}

			fixed := make(map[string]int64)
			for _, t := range models.KnownReactionTypes() {
				if post.Count(t) != counts[t] {
					fixed[t] = counts[t]
					metrics.CounterDrift.WithLabelValues(t).Inc()
					m.logger.Info("counter drift",
						"post_id", id,
						"reaction_type", t,
						"stored", post.Count(t),
						"actual", counts[t],
					)
				}
			}
			if len(fixed) == 0 {
				return nil
			}
			report.Drifted++
			if dryRun {
				return nil
			}
			return r.Posts.SetCounters(ctx, id, fixed)
		})
		if err != nil {
			return report, err
		}
		report.Checked++
	}
	return report, nil
}

// StripSuffixes removes the trailing suffix from every stored post text and
// returns how many texts changed.
func (m *Maintenance) StripSuffixes(ctx context.Context, dryRun bool) (int, error) {
	repos := m.store.Repos()
	ids, err := repos.Posts.UnscopedPostIDs(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, id := range ids {
		post, err := repos.Posts.UnscopedGetPost(ctx, id)
		if err != nil {
			return changed, err
		}
		text := models.StripSuffix(post.Text)
		if text == post.Text {
			continue
		}
		changed++
		if dryRun {
			continue
		}
		if err := repos.Posts.UpdateText(ctx, id, text); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// SeedReport summarizes a seed run.
type SeedReport struct {
	UserCreated  bool
	PostsCreated int
	TotalPosts   int64
}

const (
	SeedUsername = "testuser"
	SeedPassword = "testpass123"
)

var seedPosts = []models.CreatePostRequest{
	{Text: "映画「インセプション」は本当に面白かった", Genre: "movie", WorkTitle: strPtr("インセプション"), PerformerName: strPtr("クリストファー・ノーラン")},
	{Text: "舞台「ハムレット」の演技が素晴らしい", Genre: "stage", WorkTitle: strPtr("ハムレット"), PerformerName: strPtr("竹中直人")},
	{Text: "マンガ「進撃の巨人」の世界観が素晴らしい", Genre: "manga", WorkTitle: strPtr("進撃の巨人"), PerformerName: strPtr("諫山創")},
}

func strPtr(s string) *string { return &s }

// Seed get-or-creates the development user and its sample posts.
func (m *Maintenance) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	repos := m.store.Repos()

	user, err := repos.Users.GetUserByUsername(ctx, SeedUsername)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
		if err != nil {
			return report, err
		}
		user = &models.User{
			Username:   SeedUsername,
			HandleName: "テストユーザー",
			Email:      "test@example.com",
			Password:   string(hash),
		}
		if err := repos.Users.CreateUser(ctx, user); err != nil {
			return report, err
		}
		report.UserCreated = true
	case err != nil:
		return report, err
	}

	for _, p := range seedPosts {
		_, err := repos.Posts.GetPostByAuthorText(ctx, user.ID, p.Text)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return report, err
		}
		post := &models.Post{
			AuthorID:      user.ID,
			Text:          p.Text,
			Genre:         p.Genre,
			WorkTitle:     p.WorkTitle,
			PerformerName: p.PerformerName,
		}
		if err := repos.Posts.CreatePost(ctx, post); err != nil {
			return report, err
		}
		report.PostsCreated++
	}

	_, total, err := repos.Posts.ListPosts(ctx, models.PostFilter{}, repositories.Page{Number: 1, Size: 1})
	if err != nil {
		return report, err
	}
	report.TotalPosts = total
	return report, nil
}
