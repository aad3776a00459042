package admin

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plp_smartgrade/backend/internal/shared"
)

// Store persists the records administrators manage. Single-record lookups
// and updates return shared.ErrNotFound for missing ids; inserts that hit a
// unique index return shared.ErrConflict.
type Store interface {
	CreateUser(ctx context.Context, u *shared.User) error
	UpdateUser(ctx context.Context, u *shared.User) error
	// DeleteUser also removes the user's enrollments, scores and exams
	DeleteUser(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*shared.User, error)
	ListUsers(ctx context.Context, role string) ([]shared.User, error)

	CreateSubject(ctx context.Context, s *shared.Subject) error
	UpdateSubject(ctx context.Context, s *shared.Subject) error
	// DeleteSubject also removes the subject's categories, enrollments, scores and exams
	DeleteSubject(ctx context.Context, id string) error
	GetSubject(ctx context.Context, id string) (*shared.Subject, error)
	ListSubjects(ctx context.Context, semester string) ([]shared.Subject, error)

	SaveCategory(ctx context.Context, c *shared.ScoreCategory) error
	DeleteCategory(ctx context.Context, id string) error
	GetCategory(ctx context.Context, id string) (*shared.ScoreCategory, error)
	ListCategories(ctx context.Context, subjectID string) ([]shared.ScoreCategory, error)

	SaveScore(ctx context.Context, s *shared.ScoreRecord) error
	DeleteScore(ctx context.Context, id string) error
	ListScores(ctx context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error)

	// SaveExam replaces any exam of the same type for the student and subject
	SaveExam(ctx context.Context, e *shared.ExamRecord) error
	ListExams(ctx context.Context, studentID, subjectID string) ([]shared.ExamRecord, error)

	CreateEnrollment(ctx context.Context, e *shared.Enrollment) error
	DeleteEnrollment(ctx context.Context, studentID, subjectID string) error
	IsEnrolled(ctx context.Context, studentID, subjectID string) (bool, error)
	ListEnrollments(ctx context.Context, subjectID string) ([]shared.Enrollment, error)
}

// MongoStore implements Store on MongoDB
type MongoStore struct {
	usersCol       *mongo.Collection
	subjectsCol    *mongo.Collection
	categoriesCol  *mongo.Collection
	scoresCol      *mongo.Collection
	examsCol       *mongo.Collection
	enrollmentsCol *mongo.Collection
}

// NewMongoStore creates a MongoStore
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

func insertErr(err error) error {
	if shared.IsDuplicateKey(err) {
		return shared.ErrConflict
	}
	return err
}

func replaceByID(ctx context.Context, col *mongo.Collection, id string, doc interface{}) error {
	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return insertErr(err)
	}
	if res.MatchedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ============================================================================
// Users
// ============================================================================

func (m *MongoStore) CreateUser(ctx context.Context, u *shared.User) error {
	_, err := m.usersCol.InsertOne(ctx, u)
	return insertErr(err)
}

func (m *MongoStore) UpdateUser(ctx context.Context, u *shared.User) error {
	return replaceByID(ctx, m.usersCol, u.ID, u)
}

func (m *MongoStore) DeleteUser(ctx context.Context, id string) error {
	if err := deleteByID(ctx, m.usersCol, id); err != nil {
		return err
	}
	filter := bson.M{"student_id": id}
	for _, col := range []*mongo.Collection{m.enrollmentsCol, m.scoresCol, m.examsCol} {
		if _, err := col.DeleteMany(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}

func (m *MongoStore) GetUser(ctx context.Context, id string) (*shared.User, error) {
	var u shared.User
	if err := shared.FindOne(ctx, m.usersCol, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoStore) ListUsers(ctx context.Context, role string) ([]shared.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	var out []shared.User
	err := shared.FindAll(ctx, m.usersCol, filter, &out, shared.BuildFindOptions(0, "name", 1))
	return out, err
}

// ============================================================================
// Subjects and categories
// ============================================================================

func (m *MongoStore) CreateSubject(ctx context.Context, s *shared.Subject) error {
	_, err := m.subjectsCol.InsertOne(ctx, s)
	return insertErr(err)
}

func (m *MongoStore) UpdateSubject(ctx context.Context, s *shared.Subject) error {
	return replaceByID(ctx, m.subjectsCol, s.ID, s)
}

func (m *MongoStore) DeleteSubject(ctx context.Context, id string) error {
	if err := deleteByID(ctx, m.subjectsCol, id); err != nil {
		return err
	}
	filter := bson.M{"subject_id": id}
	for _, col := range []*mongo.Collection{m.categoriesCol, m.enrollmentsCol, m.scoresCol, m.examsCol} {
		if _, err := col.DeleteMany(ctx, filter); err != nil {
			return err
		}
	}
	return nil
}

func (m *MongoStore) GetSubject(ctx context.Context, id string) (*shared.Subject, error) {
	var s shared.Subject
	if err := shared.FindOne(ctx, m.subjectsCol, bson.M{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MongoStore) ListSubjects(ctx context.Context, semester string) ([]shared.Subject, error) {
	filter := bson.M{}
	if semester != "" {
		filter["semester"] = semester
	}
	var out []shared.Subject
	err := shared.FindAll(ctx, m.subjectsCol, filter, &out, shared.BuildFindOptions(0, "code", 1))
	return out, err
}

func (m *MongoStore) SaveCategory(ctx context.Context, c *shared.ScoreCategory) error {
	_, err := m.categoriesCol.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoStore) DeleteCategory(ctx context.Context, id string) error {
	if err := deleteByID(ctx, m.categoriesCol, id); err != nil {
		return err
	}
	_, err := m.scoresCol.DeleteMany(ctx, bson.M{"category_id": id})
	return err
}

func (m *MongoStore) GetCategory(ctx context.Context, id string) (*shared.ScoreCategory, error) {
	var c shared.ScoreCategory
	if err := shared.FindOne(ctx, m.categoriesCol, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MongoStore) ListCategories(ctx context.Context, subjectID string) ([]shared.ScoreCategory, error) {
	var out []shared.ScoreCategory
	err := shared.FindAll(ctx, m.categoriesCol, bson.M{"subject_id": subjectID}, &out,
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}))
	return out, err
}

// ============================================================================
// Scores and exams
// ============================================================================

func (m *MongoStore) SaveScore(ctx context.Context, s *shared.ScoreRecord) error {
	_, err := m.scoresCol.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoStore) DeleteScore(ctx context.Context, id string) error {
	return deleteByID(ctx, m.scoresCol, id)
}

func (m *MongoStore) ListScores(ctx context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error) {
	var out []shared.ScoreRecord
	err := shared.FindAll(ctx, m.scoresCol, bson.M{"student_id": studentID, "subject_id": subjectID}, &out,
		shared.BuildFindOptions(0, "submitted_at", 1))
	return out, err
}

func (m *MongoStore) SaveExam(ctx context.Context, e *shared.ExamRecord) error {
	filter := bson.M{"student_id": e.StudentID, "subject_id": e.SubjectID, "type": e.Type}
	update := bson.M{
		"$set": bson.M{
			"value":       e.Value,
			"max_value":   e.MaxValue,
			"recorded_at": e.RecordedAt,
			"recorded_by": e.RecordedBy,
		},
		"$setOnInsert": bson.M{"_id": e.ID},
	}

	var saved shared.ExamRecord
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := m.examsCol.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return err
	}
	e.ID = saved.ID
	return nil
}

func (m *MongoStore) ListExams(ctx context.Context, studentID, subjectID string) ([]shared.ExamRecord, error) {
	var out []shared.ExamRecord
	err := shared.FindAll(ctx, m.examsCol, bson.M{"student_id": studentID, "subject_id": subjectID}, &out,
		shared.BuildFindOptions(0, "type", 1))
	return out, err
}

// ============================================================================
// Enrollments
// ============================================================================

func (m *MongoStore) CreateEnrollment(ctx context.Context, e *shared.Enrollment) error {
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	_, err := m.enrollmentsCol.InsertOne(ctx, e)
	return insertErr(err)
}

func (m *MongoStore) DeleteEnrollment(ctx context.Context, studentID, subjectID string) error {
	res, err := m.enrollmentsCol.DeleteOne(ctx, bson.M{"student_id": studentID, "subject_id": subjectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (m *MongoStore) IsEnrolled(ctx context.Context, studentID, subjectID string) (bool, error) {
	n, err := m.enrollmentsCol.CountDocuments(ctx, bson.M{"student_id": studentID, "subject_id": subjectID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *MongoStore) ListEnrollments(ctx context.Context, subjectID string) ([]shared.Enrollment, error) {
	var out []shared.Enrollment
	err := shared.FindAll(ctx, m.enrollmentsCol, bson.M{"subject_id": subjectID}, &out,
		shared.BuildFindOptions(0, "enrolled_at", 1))
	return out, err
}
