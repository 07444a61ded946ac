package repositories

import (
	"context"

	"github.com/anonto42/mitaina/backend/internal/models"
	"gorm.io/gorm"
)

// ReportRepository defines the interface for report operations
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) (InsertOutcome, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
}

// PostgresReportRepository implements ReportRepository for PostgreSQL
type PostgresReportRepository struct {
	db *gorm.DB
}

func NewPostgresReportRepository(db *gorm.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// CreateReport files the report unless the reporter already reported the post
func (r *PostgresReportRepository) CreateReport(ctx context.Context, report *models.Report) (InsertOutcome, error) {
	return insertIfAbsent(r.db.WithContext(ctx), report)
}

func (r *PostgresReportRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
