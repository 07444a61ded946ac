package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections. Mongo is nil when MONGO_URI is unset.
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client
}

// InitDB opens the SQL store named by cfg.DatabaseURL and, if configured, MongoDB.
func InitDB(cfg *Config) (*DB, error) {
	sqlDB, err := OpenSQL(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db := &DB{SQL: sqlDB}
	if cfg.MongoURI == "" {
		slog.Info("MONGO_URI not set, activity log disabled")
		return db, nil
	}

	db.Mongo, err = initMongo(cfg.MongoURI)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return db, nil
}

// OpenSQL opens a GORM connection. "postgres://" and "postgresql://" URLs select
// PostgreSQL, "sqlite://<path>" selects SQLite.
func OpenSQL(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	isSQLite := false

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		dialector = postgres.Open(databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
		isSQLite = true
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL: must start with postgres:// or sqlite://")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// SQLite allows one writer; a single connection queues writers instead of failing with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(10 * time.Minute)
	}

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connection established", "driver", db.Dialector.Name())
	return db, nil
}

func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("connected to MongoDB")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			slog.Error("getting sql.DB from GORM", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			slog.Error("closing SQL connection", "error", err)
		} else {
			slog.Info("SQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			slog.Error("closing MongoDB connection", "error", err)
		} else {
			slog.Info("MongoDB connection closed")
		}
	}
}
