package repositories

import (
	"context"

	"github.com/anonto42/mitaina/backend/internal/models"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	InsertReaction(ctx context.Context, reaction *models.Reaction) (InsertOutcome, error)
	DeleteReaction(ctx context.Context, userID, postID uint, reactionType string) (bool, error)
	GetReaction(ctx context.Context, userID, postID uint, reactionType string) (*models.Reaction, error)
	CountByPost(ctx context.Context, postID uint) (map[string]int64, error)
	TypesByUser(ctx context.Context, userID uint, postIDs []uint) (map[uint][]string, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// InsertReaction creates the reaction unless (user, post, type) already exists
func (r *PostgresReactionRepository) InsertReaction(ctx context.Context, reaction *models.Reaction) (InsertOutcome, error) {
	return insertIfAbsent(r.db.WithContext(ctx), reaction)
}

// DeleteReaction removes the reaction and reports whether a row was deleted
func (r *PostgresReactionRepository) DeleteReaction(ctx context.Context, userID, postID uint, reactionType string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ? AND reaction_type = ?", userID, postID, reactionType).
		Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresReactionRepository) GetReaction(ctx context.Context, userID, postID uint, reactionType string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ? AND reaction_type = ?", userID, postID, reactionType).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// CountByPost counts the live reaction rows per type for one post
func (r *PostgresReactionRepository) CountByPost(ctx context.Context, postID uint) (map[string]int64, error) {
	var rows []struct {
		ReactionType string
		Total        int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("reaction_type, COUNT(*) AS total").
		Where("post_id = ?", postID).
		Group("reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ReactionType] = row.Total
	}
	return counts, nil
}

// TypesByUser returns, for each of postIDs, the reaction types userID has on it
func (r *PostgresReactionRepository) TypesByUser(ctx context.Context, userID uint, postIDs []uint) (map[uint][]string, error) {
	result := make(map[uint][]string)
	if len(postIDs) == 0 {
		return result, nil
	}
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Order("id").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	for _, re := range reactions {
		result[re.PostID] = append(result[re.PostID], re.ReactionType)
	}
	return result, nil
}
