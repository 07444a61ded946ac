package repositories

import (
	"context"
	"time"

	"github.com/anonto42/mitaina/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	EnsureNotification(ctx context.Context, notification *models.Notification) (InsertOutcome, error)
	GetByRecipientID(ctx context.Context, recipientID uint, page Page) ([]models.Notification, int64, error)
	GetGrouped(ctx context.Context, recipientID uint, now time.Time) (*NotificationGroups, error)
	GetUnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, recipientID uint) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error)
	CountByDedupKey(ctx context.Context, dedupKey string) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// EnsureNotification inserts the notification unless one with the same
// DedupKey exists, read or not
func (r *postgresNotificationRepository) EnsureNotification(ctx context.Context, notification *models.Notification) (InsertOutcome, error) {
	return insertIfAbsent(r.db.WithContext(ctx), notification)
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID uint, page Page) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Actor").
		Preload("Post").
		Preload("Post.Author").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&notifications).Error

	return notifications, total, err
}

// NotificationGroups buckets notifications by age relative to the local day.
type NotificationGroups struct {
	Today     []models.Notification
	Yesterday []models.Notification
	ThisWeek  []models.Notification
	Older     []models.Notification
}

const groupedNotificationLimit = 200

// GetGrouped loads the newest notifications of recipientID and buckets them
// into today, yesterday, the rest of the last seven days and older.
func (r *postgresNotificationRepository) GetGrouped(ctx context.Context, recipientID uint, now time.Time) (*NotificationGroups, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Preload("Post").
		Preload("Post.Author").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(groupedNotificationLimit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	groups := &NotificationGroups{
		Today:     []models.Notification{},
		Yesterday: []models.Notification{},
		ThisWeek:  []models.Notification{},
		Older:     []models.Notification{},
	}
	for _, n := range notifications {
		switch {
		case !n.CreatedAt.Before(todayStart):
			groups.Today = append(groups.Today, n)
		case !n.CreatedAt.Before(yesterdayStart):
			groups.Yesterday = append(groups.Yesterday, n)
		case !n.CreatedAt.Before(weekStart):
			groups.ThisWeek = append(groups.ThisWeek, n)
		default:
			groups.Older = append(groups.Older, n)
		}
	}
	return groups, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead marks one of recipientID's notifications read. Notifications of
// other users are reported as not found.
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID, recipientID uint) (*models.Notification, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var n models.Notification
	err := r.db.WithContext(ctx).Preload("Actor").Preload("Post").Preload("Post.Author").First(&n, notificationID).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) CountByDedupKey(ctx context.Context, dedupKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("dedup_key = ?", dedupKey).Count(&count).Error
	return count, err
}
