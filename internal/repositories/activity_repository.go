package repositories

import (
	"context"
	"time"

	"github.com/anonto42/mitaina/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for activity log operations
type ActivityRepository interface {
	Record(ctx context.Context, activity *models.Activity) error
	GetByActorID(ctx context.Context, actorID uint, skip, limit int64) ([]models.Activity, error)
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

// EnsureIndexes creates the actor/time index used by GetByActorID
func (r *MongoActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Record appends an activity document
func (r *MongoActivityRepository) Record(ctx context.Context, activity *models.Activity) error {
	activity.ID = primitive.NewObjectID()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

// actorQuery selects one page of an actor's activities, newest first.
func actorQuery(actorID uint, skip, limit int64) (bson.M, *options.FindOptions) {
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().SetSkip(skip).SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return bson.M{"actor_id": actorID}, opts
}

// GetByActorID returns an actor's activities, newest first
func (r *MongoActivityRepository) GetByActorID(ctx context.Context, actorID uint, skip, limit int64) ([]models.Activity, error) {
	activities := []models.Activity{}
	filter, findOptions := actorQuery(actorID, skip, limit)
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// NopActivityRepository drops every activity. It stands in when MongoDB is
// not configured.
type NopActivityRepository struct{}

func (NopActivityRepository) Record(context.Context, *models.Activity) error { return nil }

func (NopActivityRepository) GetByActorID(context.Context, uint, int64, int64) ([]models.Activity, error) {
	return []models.Activity{}, nil
}
