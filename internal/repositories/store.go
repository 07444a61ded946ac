package repositories

import (
	"context"

	"github.com/anonto42/mitaina/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertOutcome tells whether an insert-if-absent created the row.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota + 1
	AlreadyPresent
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyPresent:
		return "already_present"
	}
	return "unknown"
}

// insertIfAbsent inserts value unless a row with the same unique key exists.
// The unique indexes on the model decide what "same" means.
func insertIfAbsent(db *gorm.DB, value any) (InsertOutcome, error) {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(value)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return AlreadyPresent, nil
	}
	return Inserted, nil
}

// Page selects a window of a listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Repos groups the repositories bound to one database handle.
type Repos struct {
	Users         UserRepository
	Posts         PostRepository
	Reactions     ReactionRepository
	Follows       FollowRepository
	Notifications NotificationRepository
	Reports       ReportRepository
}

// NewRepos binds every SQL repository to db.
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Users:         NewPostgresUserRepository(db),
		Posts:         NewPostgresPostRepository(db),
		Reactions:     NewPostgresReactionRepository(db),
		Follows:       NewPostgresFollowRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
		Reports:       NewPostgresReportRepository(db),
	}
}

// Store runs units of work against the SQL database.
type Store interface {
	// Repos returns repositories that run outside any transaction.
	Repos() *Repos
	// Transaction runs fn with repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(r *Repos) error) error
}

// GormStore implements Store with GORM.
type GormStore struct {
	db    *gorm.DB
	repos *Repos
}

// NewGormStore creates a Store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, repos: NewRepos(db)}
}

func (s *GormStore) Repos() *Repos {
	return s.repos
}

func (s *GormStore) Transaction(ctx context.Context, fn func(r *Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

// AutoMigrate creates or updates the SQL schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Reaction{},
		&models.Follow{},
		&models.Notification{},
		&models.Report{},
	)
}
