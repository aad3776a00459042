// ============================================================================
// backend/internal/shared/models.go
// Shared data models for MongoDB documents
// ============================================================================

package shared

import (
	"time"

	"plp_smartgrade/backend/internal/gradeengine"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a portal account (student or admin)
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role" json:"role"` // student, admin
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	// Student-specific fields
	StudentNumber string `bson:"student_number,omitempty" json:"student_number,omitempty"`
	Program       string `bson:"program,omitempty" json:"program,omitempty"`
	YearLevel     int32  `bson:"year_level,omitempty" json:"year_level,omitempty"`
	Section       string `bson:"section,omitempty" json:"section,omitempty"`

	IsActive bool `bson:"is_active" json:"is_active"`
}

// Session represents an issued JWT that has not been revoked
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsExpired checks if a session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// OTPChallenge is a pending one-time-password login. The code and the magic
// link secret are stored as bcrypt hashes.
type OTPChallenge struct {
	ID            string     `bson:"_id" json:"id"`
	UserID        string     `bson:"user_id" json:"user_id"`
	Email         string     `bson:"email" json:"email"`
	CodeHash      string     `bson:"code_hash" json:"-"`
	LinkTokenHash string     `bson:"link_token_hash" json:"-"`
	Attempts      int        `bson:"attempts" json:"attempts"`
	ExpiresAt     time.Time  `bson:"expires_at" json:"expires_at"`
	UsedAt        *time.Time `bson:"used_at,omitempty" json:"used_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

// IsUsable reports whether the challenge can still be redeemed
func (c *OTPChallenge) IsUsable(now time.Time, maxAttempts int) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt) && c.Attempts < maxAttempts
}

// ============================================================================
// Academic Models
// ============================================================================

// Subject represents a subject offering
type Subject struct {
	ID          string    `bson:"_id" json:"id"`
	Code        string    `bson:"code" json:"code"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Units       int32     `bson:"units" json:"units"`
	Semester    string    `bson:"semester" json:"semester"` // e.g. "1st Sem 2024-2025"
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ScoreCategory is a weighted grading component of a subject
type ScoreCategory struct {
	ID            string  `bson:"_id" json:"id"`
	SubjectID     string  `bson:"subject_id" json:"subject_id"`
	Name          string  `bson:"name" json:"name"`
	WeightPercent float64 `bson:"weight_percent" json:"weight_percent"`
	// Position keeps categories in the order they were added
	Position int32 `bson:"position" json:"position"`
}

// Engine converts the document to the grade engine record
func (c ScoreCategory) Engine() gradeengine.ScoreCategory {
	return gradeengine.ScoreCategory{ID: c.ID, Name: c.Name, WeightPercent: c.WeightPercent}
}

// ScoreRecord is a recorded score of a student in a category
type ScoreRecord struct {
	ID          string    `bson:"_id" json:"id"`
	StudentID   string    `bson:"student_id" json:"student_id"`
	SubjectID   string    `bson:"subject_id" json:"subject_id"`
	CategoryID  string    `bson:"category_id" json:"category_id"`
	Name        string    `bson:"name,omitempty" json:"name,omitempty"` // item label, or attendance status
	Value       float64   `bson:"value" json:"value"`
	MaxValue    float64   `bson:"max_value" json:"max_value"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
	RecordedBy  string    `bson:"recorded_by,omitempty" json:"recorded_by,omitempty"`
}

// Engine converts the document to the grade engine record
func (s ScoreRecord) Engine() gradeengine.Score {
	return gradeengine.Score{
		ID:          s.ID,
		CategoryID:  s.CategoryID,
		Name:        s.Name,
		Value:       s.Value,
		MaxValue:    s.MaxValue,
		SubmittedAt: s.SubmittedAt,
	}
}

// ExamRecord is a midterm or final exam result
type ExamRecord struct {
	ID         string    `bson:"_id" json:"id"`
	StudentID  string    `bson:"student_id" json:"student_id"`
	SubjectID  string    `bson:"subject_id" json:"subject_id"`
	Type       string    `bson:"type" json:"type"` // midterm, final
	Value      float64   `bson:"value" json:"value"`
	MaxValue   float64   `bson:"max_value" json:"max_value"`
	RecordedAt time.Time `bson:"recorded_at" json:"recorded_at"`
	RecordedBy string    `bson:"recorded_by,omitempty" json:"recorded_by,omitempty"`
}

// Engine converts the document to the grade engine record
func (e ExamRecord) Engine() gradeengine.ExamScore {
	return gradeengine.ExamScore{Type: gradeengine.ExamType(e.Type), Value: e.Value, MaxValue: e.MaxValue}
}

// Enrollment links a student to a subject
type Enrollment struct {
	ID         string    `bson:"_id" json:"id"`
	StudentID  string    `bson:"student_id" json:"student_id"`
	SubjectID  string    `bson:"subject_id" json:"subject_id"`
	EnrolledAt time.Time `bson:"enrolled_at" json:"enrolled_at"`
}

// EngineCategories converts category documents in order
func EngineCategories(in []ScoreCategory) []gradeengine.ScoreCategory {
	out := make([]gradeengine.ScoreCategory, 0, len(in))
	for _, c := range in {
		out = append(out, c.Engine())
	}
	return out
}

// EngineScores converts score documents in order
func EngineScores(in []ScoreRecord) []gradeengine.Score {
	out := make([]gradeengine.Score, 0, len(in))
	for _, s := range in {
		out = append(out, s.Engine())
	}
	return out
}

// EngineExams converts exam documents in order
func EngineExams(in []ExamRecord) []gradeengine.ExamScore {
	out := make([]gradeengine.ExamScore, 0, len(in))
	for _, e := range in {
		out = append(out, e.Engine())
	}
	return out
}

// ============================================================================
// Messaging Models
// ============================================================================

// Message is a single inbox message between two users
type Message struct {
	ID          string     `bson:"_id" json:"id"`
	SenderID    string     `bson:"sender_id" json:"sender_id"`
	RecipientID string     `bson:"recipient_id" json:"recipient_id"`
	Body        string     `bson:"body" json:"body"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	ReadAt      *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// IsRead reports whether the recipient has read the message
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// ============================================================================
// Activity Log Models
// ============================================================================

// ActivityLog represents a system activity entry
type ActivityLog struct {
	ID        string                 `bson:"_id" json:"id"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	UserID    string                 `bson:"user_id" json:"user_id"`
	Action    string                 `bson:"action" json:"action"`
	Resource  string                 `bson:"resource" json:"resource"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress string                 `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}

// ============================================================================
// Constants
// ============================================================================

const (
	// User roles
	RoleStudent = "student"
	RoleAdmin   = "admin"

	// Exam types
	ExamMidterm = string(gradeengine.ExamMidterm)
	ExamFinal   = string(gradeengine.ExamFinal)

	// Collections
	ColUsers         = "users"
	ColSessions      = "sessions"
	ColOTPChallenges = "otp_challenges"
	ColSubjects      = "subjects"
	ColCategories    = "score_categories"
	ColScores        = "scores"
	ColExams         = "exam_scores"
	ColEnrollments   = "enrollments"
	ColMessages      = "messages"
	ColActivityLogs  = "activity_logs"

	// Activity actions
	ActionOTPRequest     = "otp_request"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionAdminCreate    = "admin_create"
	ActionStudentCreate  = "student_create"
	ActionStudentUpdate  = "student_update"
	ActionStudentDelete  = "student_delete"
	ActionSubjectCreate  = "subject_create"
	ActionSubjectUpdate  = "subject_update"
	ActionSubjectDelete  = "subject_delete"
	ActionCategorySave   = "category_save"
	ActionCategoryDelete = "category_delete"
	ActionScoreRecord    = "score_record"
	ActionScoreDelete    = "score_delete"
	ActionExamRecord     = "exam_record"
	ActionEnroll         = "enroll"
	ActionUnenroll       = "unenroll"
	ActionMessageSend    = "message_send"
)

// IsValidRole checks a role name
func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleAdmin
}

// IsValidExamType checks an exam type name
func IsValidExamType(t string) bool {
	return t == ExamMidterm || t == ExamFinal
}

// ============================================================================
// Error Models
// ============================================================================

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
