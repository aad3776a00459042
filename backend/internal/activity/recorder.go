// Package activity records and lists system activity logs.
package activity

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"plp_smartgrade/backend/internal/shared"
)

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 100

// Recorder stores activity entries.
type Recorder interface {
	Record(ctx context.Context, entry shared.ActivityLog) error
	List(ctx context.Context, filter Filter) ([]shared.ActivityLog, error)
}

// Filter narrows an activity listing.
type Filter struct {
	UserID string
	Action string
	Limit  int64
}

// Log records an entry and only logs a warning when storing it fails; a lost
// activity entry never fails the user's request.
func Log(ctx context.Context, r Recorder, userID, action, resource string, details map[string]interface{}) {
	if r == nil {
		return
	}
	entry := shared.ActivityLog{
		UserID:   userID,
		Action:   action,
		Resource: resource,
		Details:  details,
	}
	if err := r.Record(ctx, entry); err != nil {
		slog.Warn("failed to record activity", "action", action, "resource", resource, "error", err)
	}
}

// MongoRecorder keeps activity logs in the activity_logs collection.
type MongoRecorder struct {
	col *mongo.Collection
}

// NewMongoRecorder creates a MongoRecorder
func NewMongoRecorder(db *mongo.Database) *MongoRecorder {
	return &MongoRecorder{col: db.Collection(shared.ColActivityLogs)}
}

// Record inserts an entry, filling in its ID and timestamp when missing.
func (r *MongoRecorder) Record(ctx context.Context, entry shared.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = shared.GenerateID("act")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.col.InsertOne(insertCtx, entry)
	return err
}

// List returns the newest entries first.
func (r *MongoRecorder) List(ctx context.Context, filter Filter) ([]shared.ActivityLog, error) {
	q := bson.M{}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}
	if filter.Action != "" {
		q["action"] = filter.Action
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var out []shared.ActivityLog
	if err := shared.FindAll(queryCtx, r.col, q, &out, shared.BuildFindOptions(limit, "timestamp", -1)); err != nil {
		return nil, err
	}
	return out, nil
}
