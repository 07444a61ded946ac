package repositories

import (
	"context"

	"github.com/anonto42/mitaina/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	InsertFollow(ctx context.Context, follow *models.Follow) (InsertOutcome, error)
	DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint) ([]models.Follow, error)
	GetFollowing(ctx context.Context, userID uint) ([]models.Follow, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) InsertFollow(ctx context.Context, follow *models.Follow) (InsertOutcome, error) {
	return insertIfAbsent(r.db.WithContext(ctx), follow)
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// GetFollowers returns the follows pointing at userID with the follower loaded
func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).Preload("Follower").
		Where("following_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&follows).Error
	return follows, err
}

// GetFollowing returns the follows made by userID with the followed user loaded
func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).Preload("Following").
		Where("follower_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&follows).Error
	return follows, err
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}
