// ============================================================================
// backend/internal/shared/database.go
// Shared MongoDB connection and helper utilities
// ============================================================================

package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// ConnectMongoDB establishes a connection to MongoDB and verifies it with a ping
func ConnectMongoDB(ctx context.Context, config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	connectCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("connected to MongoDB", "database", config.Database)
	return client, client.Database(config.Database), nil
}

// DisconnectMongoDB gracefully closes the MongoDB connection
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	slog.Info("disconnected from MongoDB")
	return nil
}

// EnsureIndexes creates the indexes every binary relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		ColUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		ColSessions: {
			{Keys: bson.D{{Key: "token", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		ColOTPChallenges: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(3600)},
		},
		ColSubjects: {
			{Keys: bson.D{{Key: "code", Value: 1}, {Key: "semester", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ColCategories: {
			{Keys: bson.D{{Key: "subject_id", Value: 1}}},
		},
		ColScores: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "subject_id", Value: 1}, {Key: "submitted_at", Value: 1}}},
		},
		ColExams: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "subject_id", Value: 1}, {Key: "type", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ColEnrollments: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "subject_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ColMessages: {
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read_at", Value: 1}}},
		},
		ColActivityLogs: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
	}

	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", col, err)
		}
	}
	return nil
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID generates a unique ID with a prefix
func GenerateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// ============================================================================
// Query Helpers
// ============================================================================

// BuildFindOptions creates common find options with defaults
func BuildFindOptions(limit int64, sortField string, sortOrder int) *options.FindOptions {
	opts := options.Find()

	if limit > 0 {
		opts.SetLimit(limit)
	}
	if sortField != "" {
		opts.SetSort(bson.D{{Key: sortField, Value: sortOrder}})
	}
	return opts
}

// FindAll runs a query and decodes every document into out
func FindAll(ctx context.Context, col *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// FindOne decodes a single document, mapping a missing document to ErrNotFound
func FindOne(ctx context.Context, col *mongo.Collection, filter interface{}, out interface{}) error {
	err := col.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
