package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/anonto42/mitaina/backend/internal/metrics"
	"github.com/anonto42/mitaina/backend/internal/models"
	"github.com/anonto42/mitaina/backend/internal/repositories"
)

const activityWriteTimeout = 3 * time.Second

// ActivityRecorder writes activity log entries after the domain change has
// committed. Failures are logged and counted, never returned.
type ActivityRecorder struct {
	repo   repositories.ActivityRepository
	logger *slog.Logger
}

// NewActivityRecorder creates a recorder over repo. A nil repo disables recording.
func NewActivityRecorder(repo repositories.ActivityRepository, logger *slog.Logger) *ActivityRecorder {
	if repo == nil {
		repo = repositories.NopActivityRepository{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityRecorder{repo: repo, logger: logger}
}

// Record stores activity. It outlives a cancelled request context.
func (r *ActivityRecorder) Record(ctx context.Context, activity models.Activity) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityWriteTimeout)
	defer cancel()

	if err := r.repo.Record(ctx, &activity); err != nil {
		metrics.ActivityRecordFailures.Inc()
		r.logger.Warn("recording activity failed",
			"kind", activity.Kind,
			"actor_id", activity.ActorID,
			"error", err,
		)
	}
}

// List returns the newest activities of actorID.
func (r *ActivityRecorder) List(ctx context.Context, actorID uint, skip, limit int64) ([]models.Activity, error) {
	return r.repo.GetByActorID(ctx, actorID, skip, limit)
}
