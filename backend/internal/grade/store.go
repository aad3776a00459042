package grade

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plp_smartgrade/backend/internal/shared"
)

// Store is the read side the grade service evaluates from. Lookups of a
// single record return shared.ErrNotFound when it does not exist.
type Store interface {
	GetStudent(ctx context.Context, id string) (*shared.User, error)
	GetSubject(ctx context.Context, id string) (*shared.Subject, error)
	IsEnrolled(ctx context.Context, studentID, subjectID string) (bool, error)
	ListEnrolledSubjects(ctx context.Context, studentID, semester string) ([]shared.Subject, error)
	ListEnrolledStudents(ctx context.Context, subjectID string) ([]shared.User, error)
	ListCategories(ctx context.Context, subjectID string) ([]shared.ScoreCategory, error)
	ListScores(ctx context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error)
	ListExams(ctx context.Context, studentID, subjectID string) ([]shared.ExamRecord, error)
}

// MongoStore reads grade inputs from MongoDB.
type MongoStore struct {
	usersCol       *mongo.Collection
	subjectsCol    *mongo.Collection
	categoriesCol  *mongo.Collection
	scoresCol      *mongo.Collection
	examsCol       *mongo.Collection
	enrollmentsCol *mongo.Collection
}

// NewMongoStore creates a MongoStore over db
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		usersCol:       db.Collection(shared.ColUsers),
		subjectsCol:    db.Collection(shared.ColSubjects),
		categoriesCol:  db.Collection(shared.ColCategories),
		scoresCol:      db.Collection(shared.ColScores),
		examsCol:       db.Collection(shared.ColExams),
		enrollmentsCol: db.Collection(shared.ColEnrollments),
	}
}

func (m *MongoStore) GetStudent(ctx context.Context, id string) (*shared.User, error) {
	var u shared.User
	if err := shared.FindOne(ctx, m.usersCol, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoStore) GetSubject(ctx context.Context, id string) (*shared.Subject, error) {
	var s shared.Subject
	if err := shared.FindOne(ctx, m.subjectsCol, bson.M{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MongoStore) IsEnrolled(ctx context.Context, studentID, subjectID string) (bool, error) {
	n, err := m.enrollmentsCol.CountDocuments(ctx, bson.M{"student_id": studentID, "subject_id": subjectID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *MongoStore) ListEnrolledSubjects(ctx context.Context, studentID, semester string) ([]shared.Subject, error) {
	ids, err := m.enrolledIDs(ctx, bson.M{"student_id": studentID}, "subject_id")
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	if semester != "" {
		filter["semester"] = semester
	}

	var out []shared.Subject
	err = shared.FindAll(ctx, m.subjectsCol, filter, &out, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	return out, err
}

func (m *MongoStore) ListEnrolledStudents(ctx context.Context, subjectID string) ([]shared.User, error) {
	ids, err := m.enrolledIDs(ctx, bson.M{"subject_id": subjectID}, "student_id")
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	filter := bson.M{"_id": bson.M{"$in": ids}, "role": shared.RoleStudent}
	var out []shared.User
	err = shared.FindAll(ctx, m.usersCol, filter, &out, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	return out, err
}

func (m *MongoStore) ListCategories(ctx context.Context, subjectID string) ([]shared.ScoreCategory, error) {
	var out []shared.ScoreCategory
	err := shared.FindAll(ctx, m.categoriesCol, bson.M{"subject_id": subjectID}, &out,
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}))
	return out, err
}

func (m *MongoStore) ListScores(ctx context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error) {
	var out []shared.ScoreRecord
	err := shared.FindAll(ctx, m.scoresCol, bson.M{"student_id": studentID, "subject_id": subjectID}, &out,
		options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}))
	return out, err
}

func (m *MongoStore) ListExams(ctx context.Context, studentID, subjectID string) ([]shared.ExamRecord, error) {
	var out []shared.ExamRecord
	err := shared.FindAll(ctx, m.examsCol, bson.M{"student_id": studentID, "subject_id": subjectID}, &out,
		options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}}))
	return out, err
}

func (m *MongoStore) enrolledIDs(ctx context.Context, filter bson.M, field string) ([]string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var enrollments []shared.Enrollment
	if err := shared.FindAll(queryCtx, m.enrollmentsCol, filter, &enrollments); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if field == "subject_id" {
			ids = append(ids, e.SubjectID)
		} else {
			ids = append(ids, e.StudentID)
		}
	}
	return ids, nil
}
