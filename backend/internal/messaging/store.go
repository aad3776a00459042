package messaging

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"plp_smartgrade/backend/internal/shared"
)

// Store persists messages. Message listings are returned newest first.
type Store interface {
	GetUser(ctx context.Context, id string) (*shared.User, error)
	InsertMessage(ctx context.Context, m *shared.Message) error
	Conversation(ctx context.Context, userID, peerID string, limit int64) ([]shared.Message, error)
	Recent(ctx context.Context, userID string, limit int64) ([]shared.Message, error)
	MarkRead(ctx context.Context, recipientID, senderID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

// MongoStore implements Store on MongoDB
type MongoStore struct {
	usersCol    *mongo.Collection
	messagesCol *mongo.Collection
}

// NewMongoStore creates a MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		usersCol:    db.Collection(shared.ColUsers),
		messagesCol: db.Collection(shared.ColMessages),
	}
}

func (m *MongoStore) GetUser(ctx context.Context, id string) (*shared.User, error) {
	var u shared.User
	if err := shared.FindOne(ctx, m.usersCol, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoStore) InsertMessage(ctx context.Context, msg *shared.Message) error {
	_, err := m.messagesCol.InsertOne(ctx, msg)
	return err
}

func (m *MongoStore) Conversation(ctx context.Context, userID, peerID string, limit int64) ([]shared.Message, error) {
	filter := bson.M{"$or": []bson.M{
		{"sender_id": userID, "recipient_id": peerID},
		{"sender_id": peerID, "recipient_id": userID},
	}}
	var out []shared.Message
	err := shared.FindAll(ctx, m.messagesCol, filter, &out, shared.BuildFindOptions(limit, "created_at", -1))
	return out, err
}

func (m *MongoStore) Recent(ctx context.Context, userID string, limit int64) ([]shared.Message, error) {
	filter := bson.M{"$or": []bson.M{
		{"sender_id": userID},
		{"recipient_id": userID},
	}}
	var out []shared.Message
	err := shared.FindAll(ctx, m.messagesCol, filter, &out, shared.BuildFindOptions(limit, "created_at", -1))
	return out, err
}

func (m *MongoStore) MarkRead(ctx context.Context, recipientID, senderID string, at time.Time) (int64, error) {
	res, err := m.messagesCol.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "sender_id": senderID, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": at}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (m *MongoStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return m.messagesCol.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "read_at": nil})
}
