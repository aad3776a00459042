package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plp_smartgrade/backend/internal/shared"
)

// Store persists users, login challenges and sessions for the auth service.
// Single-record lookups return shared.ErrNotFound when nothing matches.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*shared.User, error)
	GetUser(ctx context.Context, id string) (*shared.User, error)

	SaveChallenge(ctx context.Context, c *shared.OTPChallenge) error
	GetChallenge(ctx context.Context, id string) (*shared.OTPChallenge, error)
	LatestChallenge(ctx context.Context, email string) (*shared.OTPChallenge, error)
	// ClaimAttempt reserves one verification attempt on an unused challenge.
	// It reports false once max attempts have been claimed.
	ClaimAttempt(ctx context.Context, id string, max int) (bool, error)
	// MarkChallengeUsed reports false when the challenge was already used
	MarkChallengeUsed(ctx context.Context, id string, at time.Time) (bool, error)

	CreateSession(ctx context.Context, s *shared.Session) error
	SessionExists(ctx context.Context, token string) (bool, error)
	DeleteSession(ctx context.Context, token string) (int64, error)
}

// MongoStore implements Store on MongoDB
type MongoStore struct {
	usersCol      *mongo.Collection
	challengesCol *mongo.Collection
	sessionsCol   *mongo.Collection
}

// NewMongoStore creates a MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		usersCol:      db.Collection(shared.ColUsers),
		challengesCol: db.Collection(shared.ColOTPChallenges),
		sessionsCol:   db.Collection(shared.ColSessions),
	}
}

func (m *MongoStore) FindUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	var u shared.User
	if err := shared.FindOne(ctx, m.usersCol, bson.M{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoStore) GetUser(ctx context.Context, id string) (*shared.User, error) {
	var u shared.User
	if err := shared.FindOne(ctx, m.usersCol, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoStore) SaveChallenge(ctx context.Context, c *shared.OTPChallenge) error {
	_, err := m.challengesCol.InsertOne(ctx, c)
	return err
}

func (m *MongoStore) GetChallenge(ctx context.Context, id string) (*shared.OTPChallenge, error) {
	var c shared.OTPChallenge
	if err := shared.FindOne(ctx, m.challengesCol, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MongoStore) LatestChallenge(ctx context.Context, email string) (*shared.OTPChallenge, error) {
	var c shared.OTPChallenge
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := m.challengesCol.FindOne(ctx, bson.M{"email": email}, opts).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MongoStore) ClaimAttempt(ctx context.Context, id string, max int) (bool, error) {
	res, err := m.challengesCol.UpdateOne(ctx,
		bson.M{"_id": id, "used_at": nil, "attempts": bson.M{"$lt": max}},
		bson.M{"$inc": bson.M{"attempts": 1}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (m *MongoStore) MarkChallengeUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := m.challengesCol.UpdateOne(ctx,
		bson.M{"_id": id, "used_at": nil},
		bson.M{"$set": bson.M{"used_at": at}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (m *MongoStore) CreateSession(ctx context.Context, s *shared.Session) error {
	_, err := m.sessionsCol.InsertOne(ctx, s)
	return err
}

func (m *MongoStore) SessionExists(ctx context.Context, token string) (bool, error) {
	n, err := m.sessionsCol.CountDocuments(ctx, bson.M{"token": token})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *MongoStore) DeleteSession(ctx context.Context, token string) (int64, error) {
	// DeleteMany keeps logout idempotent if a token was stored twice
	res, err := m.sessionsCol.DeleteMany(ctx, bson.M{"token": token})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
