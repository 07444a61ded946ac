package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/mitaina/backend/internal/models"
)

func TestReconcileCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	drifted := f.post(t, alice, "drifted")
	clean := f.post(t, alice, "clean")

	_, err := f.interactions.ToggleReaction(ctx, bob.ID, drifted.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = f.interactions.ToggleReaction(ctx, bob.ID, clean.ID, models.ReactionHatena)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", drifted.ID).
		UpdateColumns(map[string]any{"like_count": 5, "correct_count": 3}).Error)

	m := NewMaintenance(f.store, nil)

	report, err := m.ReconcileCounters(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 2, Drifted: 1}, report)
	assert.Equal(t, int64(5), f.reloadPost(t, drifted.ID).LikeCount)

	report, err = m.ReconcileCounters(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Drifted)
	p := f.reloadPost(t, drifted.ID)
	assert.Equal(t, int64(1), p.LikeCount)
	assert.Equal(t, int64(0), p.CorrectCount)
	assert.Equal(t, int64(1), f.reloadPost(t, clean.ID).HatenaCount)

	report, err = m.ReconcileCounters(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, report.Drifted)
}

func TestStripSuffixes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	plain := f.post(t, alice, "そのまま")
	suffixed := f.post(t, alice, "あとで直す")
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", suffixed.ID).
		UpdateColumn("text", "あとで直す みたいな ").Error)

	m := NewMaintenance(f.store, nil)

	changed, err := m.StripSuffixes(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, "あとで直す みたいな ", f.reloadPost(t, suffixed.ID).Text)

	changed, err = m.StripSuffixes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, "あとで直す", f.reloadPost(t, suffixed.ID).Text)
	assert.Equal(t, "そのまま", f.reloadPost(t, plain.ID).Text)

	changed, err = m.StripSuffixes(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := NewMaintenance(f.store, nil)

	report, err := m.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, report.UserCreated)
	assert.Equal(t, 3, report.PostsCreated)
	assert.Equal(t, int64(3), report.TotalPosts)

	report, err = m.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, report.UserCreated)
	assert.Zero(t, report.PostsCreated)
	assert.Equal(t, int64(3), report.TotalPosts)
}
