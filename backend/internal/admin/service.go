package admin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"plp_smartgrade/backend/internal/activity"
	"plp_smartgrade/backend/internal/gradeengine"
	"plp_smartgrade/backend/internal/shared"
)

// MaxTotalWeight is the largest total weight the categories of one subject may carry.
const MaxTotalWeight = 100.0

// Service implements administrator record management
type Service struct {
	store    Store
	recorder activity.Recorder
	timeout  time.Duration
	now      func() time.Time
}

// NewService creates a new admin Service
func NewService(store Store, recorder activity.Recorder) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		timeout:  10 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ============================================================================
// Request Types
// ============================================================================

// UserInput creates or updates an account
type UserInput struct {
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name" validate:"required,max=120"`
	StudentNumber string `json:"student_number" validate:"omitempty,max=32"`
	Program       string `json:"program" validate:"omitempty,max=120"`
	YearLevel     int32  `json:"year_level" validate:"gte=0,lte=6"`
	Section       string `json:"section" validate:"omitempty,max=32"`
	IsActive      *bool  `json:"is_active"`
}

// SubjectInput creates or updates a subject
type SubjectInput struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Units       int32  `json:"units" validate:"gte=0,lte=10"`
	Semester    string `json:"semester" validate:"required,max=40"`
}

// CategoryInput creates a category, or updates it when ID is set
type CategoryInput struct {
	ID            string  `json:"id"`
	Name          string  `json:"name" validate:"required,max=60"`
	WeightPercent float64 `json:"weight_percent" validate:"gt=0,lte=100"`
}

func (in SubjectInput) normalize() SubjectInput {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.Semester = strings.TrimSpace(in.Semester)
	return in
}

// ScoreInput records a score, or updates it when ID is set
type ScoreInput struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id" validate:"required"`
	SubjectID   string    `json:"subject_id" validate:"required"`
	CategoryID  string    `json:"category_id" validate:"required"`
	Name        string    `json:"name" validate:"omitempty,max=120"`
	Value       float64   `json:"value" validate:"gte=0"`
	MaxValue    float64   `json:"max_value" validate:"gte=0"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// normalize trims the free-text fields and lowercases the email so
// validation sees what will be stored
func (in UserInput) normalize() UserInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.StudentNumber = strings.TrimSpace(in.StudentNumber)
	in.Program = strings.TrimSpace(in.Program)
	in.Section = strings.TrimSpace(in.Section)
	return in
}

// ExamInput records a midterm or final exam
type ExamInput struct {
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=midterm final"`
	Value     float64 `json:"value" validate:"gte=0"`
	MaxValue  float64 `json:"max_value" validate:"gte=0"`
}

// EnrollmentInput links a student to a subject
type EnrollmentInput struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// ============================================================================
// Users
// ============================================================================

// CreateStudent creates an active student account
func (s *Service) CreateStudent(ctx context.Context, actorID string, in UserInput) (*shared.User, error) {
	in = in.normalize()
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.StudentNumber == "" {
		return nil, &shared.InputError{Fields: []shared.ValidationError{{Field: "student_number", Message: "this field is required"}}}
	}
	u, err := s.createUser(ctx, shared.RoleStudent, in)
	if err != nil {
		return nil, err
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionStudentCreate, u.ID, map[string]interface{}{"email": u.Email})
	return u, nil
}

// CreateAdmin creates an active administrator account
func (s *Service) CreateAdmin(ctx context.Context, actorID string, in UserInput) (*shared.User, error) {
	in = in.normalize()
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}
	u, err := s.createUser(ctx, shared.RoleAdmin, in)
	if err != nil {
		return nil, err
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionAdminCreate, u.ID, map[string]interface{}{"email": u.Email})
	return u, nil
}

func (s *Service) createUser(ctx context.Context, role string, in UserInput) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	u := &shared.User{
		ID:        shared.GenerateID(role),
		Email:     in.Email,
		Role:      role,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  in.IsActive == nil || *in.IsActive,
	}
	if role == shared.RoleStudent {
		u.StudentNumber = in.StudentNumber
		u.Program = in.Program
		u.YearLevel = in.YearLevel
		u.Section = in.Section
	}

	if err := s.store.CreateUser(queryCtx, u); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("%w: email %s is already registered", shared.ErrConflict, u.Email)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// UpdateStudent replaces a student's profile
func (s *Service) UpdateStudent(ctx context.Context, actorID, id string, in UserInput) (*shared.User, error) {
	in = in.normalize()
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.getStudent(queryCtx, id)
	if err != nil {
		return nil, err
	}

	u.Email = in.Email
	u.Name = in.Name
	u.StudentNumber = in.StudentNumber
	u.Program = in.Program
	u.YearLevel = in.YearLevel
	u.Section = in.Section
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	u.UpdatedAt = s.now()

	if err := s.store.UpdateUser(queryCtx, u); err != nil {
		return nil, wrapStoreErr("updating student", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionStudentUpdate, u.ID, nil)
	return u, nil
}

// DeleteStudent removes a student and every record attached to them
func (s *Service) DeleteStudent(ctx context.Context, actorID, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.getStudent(queryCtx, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(queryCtx, id); err != nil {
		return wrapStoreErr("deleting student", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionStudentDelete, id, nil)
	return nil
}

// GetStudent returns one student
func (s *Service) GetStudent(ctx context.Context, id string) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.getStudent(queryCtx, id)
}

// ListUsers lists accounts, optionally filtered by role
func (s *Service) ListUsers(ctx context.Context, role string) ([]shared.User, error) {
	if role != "" && !shared.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", shared.ErrInvalidInput, role)
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	users, err := s.store.ListUsers(queryCtx, role)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ============================================================================
// Subjects
// ============================================================================

// CreateSubject creates a subject offering
func (s *Service) CreateSubject(ctx context.Context, actorID string, in SubjectInput) (*shared.Subject, error) {
	in = in.normalize()
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	subj := &shared.Subject{
		ID:          shared.GenerateID("subj"),
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		Units:       in.Units,
		Semester:    in.Semester,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSubject(queryCtx, subj); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("%w: subject %s already exists for %s", shared.ErrConflict, subj.Code, subj.Semester)
		}
		return nil, fmt.Errorf("creating subject: %w", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionSubjectCreate, subj.ID, map[string]interface{}{"code": subj.Code})
	return subj, nil
}

// UpdateSubject replaces a subject's details
func (s *Service) UpdateSubject(ctx context.Context, actorID, id string, in SubjectInput) (*shared.Subject, error) {
	in = in.normalize()
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subj, err := s.store.GetSubject(queryCtx, id)
	if err != nil {
		return nil, wrapStoreErr("loading subject", err)
	}
	subj.Code = in.Code
	subj.Name = in.Name
	subj.Description = in.Description
	subj.Units = in.Units
	subj.Semester = in.Semester
	subj.UpdatedAt = s.now()

	if err := s.store.UpdateSubject(queryCtx, subj); err != nil {
		return nil, wrapStoreErr("updating subject", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionSubjectUpdate, subj.ID, nil)
	return subj, nil
}

// DeleteSubject removes a subject with its categories, enrollments and grades
func (s *Service) DeleteSubject(ctx context.Context, actorID, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.DeleteSubject(queryCtx, id); err != nil {
		return wrapStoreErr("deleting subject", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionSubjectDelete, id, nil)
	return nil
}

// GetSubject returns one subject
func (s *Service) GetSubject(ctx context.Context, id string) (*shared.Subject, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subj, err := s.store.GetSubject(queryCtx, id)
	if err != nil {
		return nil, wrapStoreErr("loading subject", err)
	}
	return subj, nil
}

// ListSubjects lists subjects, optionally for one semester
func (s *Service) ListSubjects(ctx context.Context, semester string) ([]shared.Subject, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subjects, err := s.store.ListSubjects(queryCtx, semester)
	if err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	return subjects, nil
}

// ============================================================================
// Score Categories
// ============================================================================

// SaveCategory creates or updates a category of a subject. The weights of
// all categories of the subject may not exceed MaxTotalWeight.
func (s *Service) SaveCategory(ctx context.Context, actorID, subjectID string, in CategoryInput) (*shared.ScoreCategory, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.store.GetSubject(queryCtx, subjectID); err != nil {
		return nil, wrapStoreErr("loading subject", err)
	}

	existing, err := s.store.ListCategories(queryCtx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	name := in.Name
	found := in.ID == ""
	total := in.WeightPercent
	position := int32(0)
	for _, c := range existing {
		if in.ID == "" && c.Position >= position {
			position = c.Position + 1
		}
		if c.ID == in.ID {
			found = true
			position = c.Position
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return nil, fmt.Errorf("%w: category %q already exists", shared.ErrConflict, name)
		}
		total += c.WeightPercent
	}
	if !found {
		return nil, fmt.Errorf("%w: category %s", shared.ErrNotFound, in.ID)
	}
	if total > MaxTotalWeight+1e-9 {
		return nil, fmt.Errorf("%w: category weights would total %.2f%%, above %.0f%%",
			shared.ErrInvalidInput, total, MaxTotalWeight)
	}

	cat := &shared.ScoreCategory{
		ID:            in.ID,
		SubjectID:     subjectID,
		Name:          name,
		WeightPercent: in.WeightPercent,
		Position:      position,
	}
	if cat.ID == "" {
		cat.ID = shared.GenerateID("cat")
	}
	if err := s.store.SaveCategory(queryCtx, cat); err != nil {
		return nil, fmt.Errorf("saving category: %w", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionCategorySave, cat.ID, map[string]interface{}{
		"subject_id": subjectID,
		"weight":     cat.WeightPercent,
	})
	return cat, nil
}

// DeleteCategory removes a category and its scores
func (s *Service) DeleteCategory(ctx context.Context, actorID, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.DeleteCategory(queryCtx, id); err != nil {
		return wrapStoreErr("deleting category", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionCategoryDelete, id, nil)
	return nil
}

// ListCategories lists the categories of a subject
func (s *Service) ListCategories(ctx context.Context, subjectID string) ([]shared.ScoreCategory, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cats, err := s.store.ListCategories(queryCtx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

// TotalWeight sums category weights
func TotalWeight(cats []shared.ScoreCategory) float64 {
	total := 0.0
	for _, c := range cats {
		total += c.WeightPercent
	}
	return math.Round(total*100) / 100
}

// ============================================================================
// Scores and Exams
// ============================================================================

// RecordScore stores a score of an enrolled student
func (s *Service) RecordScore(ctx context.Context, actorID string, in ScoreInput) (*shared.ScoreRecord, error) {
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.MaxValue > 0 && in.Value > in.MaxValue {
		return nil, &shared.InputError{Fields: []shared.ValidationError{{Field: "value", Message: "must not exceed max_value"}}}
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cat, err := s.store.GetCategory(queryCtx, in.CategoryID)
	if err != nil {
		return nil, wrapStoreErr("loading category", err)
	}
	if cat.SubjectID != in.SubjectID {
		return nil, fmt.Errorf("%w: category does not belong to subject", shared.ErrInvalidInput)
	}
	if err := s.requireEnrollment(queryCtx, in.StudentID, in.SubjectID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if gradeengine.IsAttendance(cat.Engine()) && name == "" {
		return nil, &shared.InputError{Fields: []shared.ValidationError{{Field: "name", Message: "attendance scores need a status"}}}
	}

	rec := &shared.ScoreRecord{
		ID:          in.ID,
		StudentID:   in.StudentID,
		SubjectID:   in.SubjectID,
		CategoryID:  in.CategoryID,
		Name:        name,
		Value:       in.Value,
		MaxValue:    in.MaxValue,
		SubmittedAt: in.SubmittedAt,
		RecordedBy:  actorID,
	}
	if rec.ID == "" {
		rec.ID = shared.GenerateID("score")
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = s.now()
	}

	if err := s.store.SaveScore(queryCtx, rec); err != nil {
		return nil, fmt.Errorf("saving score: %w", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionScoreRecord, rec.ID, map[string]interface{}{
		"student_id":  rec.StudentID,
		"category_id": rec.CategoryID,
	})
	return rec, nil
}

// DeleteScore removes a score
func (s *Service) DeleteScore(ctx context.Context, actorID, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.DeleteScore(queryCtx, id); err != nil {
		return wrapStoreErr("deleting score", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionScoreDelete, id, nil)
	return nil
}

// ListScores lists a student's scores in a subject
func (s *Service) ListScores(ctx context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scores, err := s.store.ListScores(queryCtx, studentID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	return scores, nil
}

// RecordExam stores the midterm or final of an enrolled student, replacing
// an earlier result of the same type
func (s *Service) RecordExam(ctx context.Context, actorID string, in ExamInput) (*shared.ExamRecord, error) {
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.MaxValue > 0 && in.Value > in.MaxValue {
		return nil, &shared.InputError{Fields: []shared.ValidationError{{Field: "value", Message: "must not exceed max_value"}}}
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.requireEnrollment(queryCtx, in.StudentID, in.SubjectID); err != nil {
		return nil, err
	}

	rec := &shared.ExamRecord{
		ID:         shared.GenerateID("exam"),
		StudentID:  in.StudentID,
		SubjectID:  in.SubjectID,
		Type:       in.Type,
		Value:      in.Value,
		MaxValue:   in.MaxValue,
		RecordedAt: s.now(),
		RecordedBy: actorID,
	}
	if err := s.store.SaveExam(queryCtx, rec); err != nil {
		return nil, fmt.Errorf("saving exam: %w", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionExamRecord, rec.ID, map[string]interface{}{
		"student_id": rec.StudentID,
		"type":       rec.Type,
	})
	return rec, nil
}

// ListExams lists a student's exams in a subject
func (s *Service) ListExams(ctx context.Context, studentID, subjectID string) ([]shared.ExamRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exams, err := s.store.ListExams(queryCtx, studentID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing exams: %w", err)
	}
	return exams, nil
}

// ============================================================================
// Enrollments
// ============================================================================

// Enroll links a student to a subject
func (s *Service) Enroll(ctx context.Context, actorID string, in EnrollmentInput) (*shared.Enrollment, error) {
	if err := shared.ValidateInput(in); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.getStudent(queryCtx, in.StudentID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetSubject(queryCtx, in.SubjectID); err != nil {
		return nil, wrapStoreErr("loading subject", err)
	}

	e := &shared.Enrollment{
		ID:         shared.GenerateID("enr"),
		StudentID:  in.StudentID,
		SubjectID:  in.SubjectID,
		EnrolledAt: s.now(),
	}
	if err := s.store.CreateEnrollment(queryCtx, e); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("%w: student is already enrolled", shared.ErrConflict)
		}
		return nil, fmt.Errorf("enrolling student: %w", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionEnroll, e.ID, map[string]interface{}{
		"student_id": e.StudentID,
		"subject_id": e.SubjectID,
	})
	return e, nil
}

// Unenroll removes a student from a subject
func (s *Service) Unenroll(ctx context.Context, actorID string, in EnrollmentInput) error {
	if err := shared.ValidateInput(in); err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.DeleteEnrollment(queryCtx, in.StudentID, in.SubjectID); err != nil {
		return wrapStoreErr("unenrolling student", err)
	}
	activity.Log(ctx, s.recorder, actorID, shared.ActionUnenroll, in.SubjectID, map[string]interface{}{
		"student_id": in.StudentID,
	})
	return nil
}

// ListEnrollments lists the enrollments of a subject
func (s *Service) ListEnrollments(ctx context.Context, subjectID string) ([]shared.Enrollment, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.store.ListEnrollments(queryCtx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	return out, nil
}

// ============================================================================
// Activity
// ============================================================================

// ListActivity returns recent activity entries
func (s *Service) ListActivity(ctx context.Context, filter activity.Filter) ([]shared.ActivityLog, error) {
	if s.recorder == nil {
		return nil, nil
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logs, err := s.recorder.List(queryCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return logs, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) getStudent(ctx context.Context, id string) (*shared.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, wrapStoreErr("loading student", err)
	}
	if u.Role != shared.RoleStudent {
		return nil, fmt.Errorf("%w: user %s is not a student", shared.ErrInvalidInput, id)
	}
	return u, nil
}

func (s *Service) requireEnrollment(ctx context.Context, studentID, subjectID string) error {
	ok, err := s.store.IsEnrolled(ctx, studentID, subjectID)
	if err != nil {
		return fmt.Errorf("checking enrollment: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: student is not enrolled in subject", shared.ErrInvalidInput)
	}
	return nil
}

// wrapStoreErr keeps the sentinel of store errors visible to errors.Is
func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
