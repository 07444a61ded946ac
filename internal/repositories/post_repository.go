package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/mitaina/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations.
// Soft-deleted posts are invisible to every method except the Unscoped ones.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostByAuthorText(ctx context.Context, authorID uint, text string) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter, page Page) ([]models.Post, int64, error)
	ListFeed(ctx context.Context, followerID uint, page Page) ([]models.Post, int64, error)
	ListReactedPosts(ctx context.Context, userID uint, reactionType string, page Page) ([]models.Post, int64, error)
	SoftDeletePost(ctx context.Context, id uint) error
	IncrementCounter(ctx context.Context, postID uint, reactionType string) error
	DecrementCounter(ctx context.Context, postID uint, reactionType string) error
	UnscopedPostIDs(ctx context.Context) ([]uint, error)
	UnscopedGetPost(ctx context.Context, id uint) (*models.Post, error)
	LockPost(ctx context.Context, id uint) (*models.Post, error)
	SetCounters(ctx context.Context, postID uint, counts map[string]int64) error
	UpdateText(ctx context.Context, postID uint, text string) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

var postOrderings = map[string]string{
	"created_at":    "posts.created_at",
	"like_count":    "posts.like_count",
	"hatena_count":  "posts.hatena_count",
	"correct_count": "posts.correct_count",
	"collect_count": "posts.collect_count",
}

// orderClause turns "-like_count" style orderings into SQL. Unknown fields fall
// back to newest first.
func orderClause(ordering string) string {
	desc := strings.HasPrefix(ordering, "-")
	col, ok := postOrderings[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return "posts.created_at DESC, posts.id DESC"
	}
	if desc {
		return col + " DESC, posts.id DESC"
	}
	return col + " ASC, posts.id ASC"
}

// ValidOrdering reports whether ordering names a sortable field.
func ValidOrdering(ordering string) bool {
	if ordering == "" {
		return true
	}
	_, ok := postOrderings[strings.TrimPrefix(ordering, "-")]
	return ok
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostgresPostRepository) GetPostByAuthorText(ctx context.Context, authorID uint, text string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("author_id = ? AND text = ?", authorID, text).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// paginate counts the rows selected by scope, then loads one page of them.
func (r *PostgresPostRepository) paginate(ctx context.Context, scope func(*gorm.DB) *gorm.DB, order string, page Page) ([]models.Post, int64, error) {
	var total int64
	if err := scope(r.db.WithContext(ctx).Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := scope(r.db.WithContext(ctx).Model(&models.Post{})).
		Select("posts.*").
		Preload("Author").
		Order(order).
		Offset(page.Offset()).Limit(page.Size).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter models.PostFilter, page Page) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Genre != "" {
			db = db.Where("posts.genre = ?", filter.Genre)
		}
		if filter.AuthorID != 0 {
			db = db.Where("posts.author_id = ?", filter.AuthorID)
		}
		if q := strings.TrimSpace(filter.Search); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("(LOWER(posts.text) LIKE ? OR LOWER(posts.work_title) LIKE ? OR LOWER(posts.performer_name) LIKE ?)", like, like, like)
		}
		return db
	}
	return r.paginate(ctx, scope, orderClause(filter.Ordering), page)
}

// ListFeed returns the posts of the users followerID follows, newest first
func (r *PostgresPostRepository) ListFeed(ctx context.Context, followerID uint, page Page) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id IN (?)",
			r.db.Table("follows").Select("following_id").Where("follower_id = ?", followerID))
	}
	return r.paginate(ctx, scope, orderClause(""), page)
}

// ListReactedPosts returns the posts userID reacted to with reactionType,
// most recent reaction first
func (r *PostgresPostRepository) ListReactedPosts(ctx context.Context, userID uint, reactionType string, page Page) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN reactions ON reactions.post_id = posts.id").
			Where("reactions.user_id = ? AND reactions.reaction_type = ?", userID, reactionType)
	}
	return r.paginate(ctx, scope, "reactions.created_at DESC, reactions.id DESC", page)
}

func (r *PostgresPostRepository) SoftDeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresPostRepository) adjust(ctx context.Context, postID uint, reactionType string, expr func(clause.Column) clause.Expr) error {
	col, ok := models.CounterColumn(reactionType)
	if !ok {
		return fmt.Errorf("no counter column for reaction type %q", reactionType)
	}
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(col, expr(clause.Column{Name: col}))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementCounter adds one to the counter in SQL, so concurrent updates are not lost
func (r *PostgresPostRepository) IncrementCounter(ctx context.Context, postID uint, reactionType string) error {
	return r.adjust(ctx, postID, reactionType, func(c clause.Column) clause.Expr {
		return gorm.Expr("? + 1", c)
	})
}

// DecrementCounter subtracts one from the counter in SQL, never going below zero
func (r *PostgresPostRepository) DecrementCounter(ctx context.Context, postID uint, reactionType string) error {
	return r.adjust(ctx, postID, reactionType, func(c clause.Column) clause.Expr {
		return gorm.Expr("CASE WHEN ? > 0 THEN ? - 1 ELSE 0 END", c, c)
	})
}

// UnscopedPostIDs lists every post id including soft-deleted posts
func (r *PostgresPostRepository) UnscopedPostIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *PostgresPostRepository) UnscopedGetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Unscoped().First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// lockForUpdate takes a row lock on PostgreSQL. SQLite ignores it and
// serializes writers instead.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockPost loads the post, soft-deleted or not, and holds its row lock until
// the surrounding transaction ends. Counter updates from toggles wait for it.
func (r *PostgresPostRepository) LockPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Unscoped().Scopes(lockForUpdate).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// SetCounters overwrites counters keyed by reaction type
func (r *PostgresPostRepository) SetCounters(ctx context.Context, postID uint, counts map[string]int64) error {
	updates := make(map[string]any, len(counts))
	for reactionType, n := range counts {
		col, ok := models.CounterColumn(reactionType)
		if !ok {
			return fmt.Errorf("no counter column for reaction type %q", reactionType)
		}
		updates[col] = n
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(updates).Error
}

func (r *PostgresPostRepository) UpdateText(ctx context.Context, postID uint, text string) error {
	return r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("text", text).Error
}
