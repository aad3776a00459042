package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"plp_smartgrade/backend/internal/activity"
	"plp_smartgrade/backend/internal/admin"
	"plp_smartgrade/backend/internal/gateway/util"
	"plp_smartgrade/backend/internal/shared"
)

// AdminService is the part of admin.Service the handlers call
type AdminService interface {
	CreateStudent(ctx context.Context, actorID string, in admin.UserInput) (*shared.User, error)
	CreateAdmin(ctx context.Context, actorID string, in admin.UserInput) (*shared.User, error)
	UpdateStudent(ctx context.Context, actorID, id string, in admin.UserInput) (*shared.User, error)
	DeleteStudent(ctx context.Context, actorID, id string) error
	GetStudent(ctx context.Context, id string) (*shared.User, error)
	ListUsers(ctx context.Context, role string) ([]shared.User, error)

	CreateSubject(ctx context.Context, actorID string, in admin.SubjectInput) (*shared.Subject, error)
	UpdateSubject(ctx context.Context, actorID, id string, in admin.SubjectInput) (*shared.Subject, error)
	DeleteSubject(ctx context.Context, actorID, id string) error
	GetSubject(ctx context.Context, id string) (*shared.Subject, error)
	ListSubjects(ctx context.Context, semester string) ([]shared.Subject, error)

	SaveCategory(ctx context.Context, actorID, subjectID string, in admin.CategoryInput) (*shared.ScoreCategory, error)
	DeleteCategory(ctx context.Context, actorID, id string) error
	ListCategories(ctx context.Context, subjectID string) ([]shared.ScoreCategory, error)

	RecordScore(ctx context.Context, actorID string, in admin.ScoreInput) (*shared.ScoreRecord, error)
	DeleteScore(ctx context.Context, actorID, id string) error
	ListScores(ctx context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error)
	RecordExam(ctx context.Context, actorID string, in admin.ExamInput) (*shared.ExamRecord, error)
	ListExams(ctx context.Context, studentID, subjectID string) ([]shared.ExamRecord, error)

	Enroll(ctx context.Context, actorID string, in admin.EnrollmentInput) (*shared.Enrollment, error)
	Unenroll(ctx context.Context, actorID string, in admin.EnrollmentInput) error
	ListEnrollments(ctx context.Context, subjectID string) ([]shared.Enrollment, error)

	ListActivity(ctx context.Context, filter activity.Filter) ([]shared.ActivityLog, error)
}

// AdminHandler serves the /admin routes
type AdminHandler struct {
	Admin AdminService
}

func actorID(r *http.Request) string {
	if u := util.UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

// respond writes v with status, or maps err
func respond(w http.ResponseWriter, status int, v interface{}, err error) {
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, status, v)
}

// -- Users --

// ListUsers handles GET /admin/users?role=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.ListUsers(r.Context(), r.URL.Query().Get("role"))
	respond(w, http.StatusOK, users, err)
}

// ListStudents handles GET /admin/students
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	users, err := h.Admin.ListUsers(r.Context(), shared.RoleStudent)
	respond(w, http.StatusOK, users, err)
}

// CreateStudent handles POST /admin/students
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var in admin.UserInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	user, err := h.Admin.CreateStudent(r.Context(), actorID(r), in)
	respond(w, http.StatusCreated, user, err)
}

// CreateAdmin handles POST /admin/admins
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in admin.UserInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	user, err := h.Admin.CreateAdmin(r.Context(), actorID(r), in)
	respond(w, http.StatusCreated, user, err)
}

// GetStudent handles GET /admin/students/{id}
func (h *AdminHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	user, err := h.Admin.GetStudent(r.Context(), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, user, err)
}

// UpdateStudent handles PUT /admin/students/{id}
func (h *AdminHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var in admin.UserInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	user, err := h.Admin.UpdateStudent(r.Context(), actorID(r), chi.URLParam(r, "id"), in)
	respond(w, http.StatusOK, user, err)
}

// DeleteStudent handles DELETE /admin/students/{id}
func (h *AdminHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteStudent(r.Context(), actorID(r), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, map[string]string{"message": "Student deleted"}, err)
}

// -- Subjects --

// ListSubjects handles GET /admin/subjects?semester=
func (h *AdminHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.Admin.ListSubjects(r.Context(), r.URL.Query().Get("semester"))
	respond(w, http.StatusOK, subjects, err)
}

// CreateSubject handles POST /admin/subjects
func (h *AdminHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var in admin.SubjectInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	subject, err := h.Admin.CreateSubject(r.Context(), actorID(r), in)
	respond(w, http.StatusCreated, subject, err)
}

// GetSubject handles GET /admin/subjects/{id}
func (h *AdminHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := h.Admin.GetSubject(r.Context(), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, subject, err)
}

// UpdateSubject handles PUT /admin/subjects/{id}
func (h *AdminHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	var in admin.SubjectInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	subject, err := h.Admin.UpdateSubject(r.Context(), actorID(r), chi.URLParam(r, "id"), in)
	respond(w, http.StatusOK, subject, err)
}

// DeleteSubject handles DELETE /admin/subjects/{id}
func (h *AdminHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteSubject(r.Context(), actorID(r), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, map[string]string{"message": "Subject deleted"}, err)
}

// -- Categories --

// ListCategories handles GET /admin/subjects/{id}/categories
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Admin.ListCategories(r.Context(), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, cats, err)
}

// SaveCategory handles POST /admin/subjects/{id}/categories.
// A body with an id updates that category.
func (h *AdminHandler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	var in admin.CategoryInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	status := http.StatusCreated
	if in.ID != "" {
		status = http.StatusOK
	}
	cat, err := h.Admin.SaveCategory(r.Context(), actorID(r), chi.URLParam(r, "id"), in)
	respond(w, status, cat, err)
}

// DeleteCategory handles DELETE /admin/categories/{id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteCategory(r.Context(), actorID(r), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, map[string]string{"message": "Category deleted"}, err)
}

// -- Scores and exams --

// RecordScore handles POST /admin/scores
func (h *AdminHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	var in admin.ScoreInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	score, err := h.Admin.RecordScore(r.Context(), actorID(r), in)
	respond(w, http.StatusCreated, score, err)
}

// DeleteScore handles DELETE /admin/scores/{id}
func (h *AdminHandler) DeleteScore(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteScore(r.Context(), actorID(r), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, map[string]string{"message": "Score deleted"}, err)
}

// ListScores handles GET /admin/students/{id}/subjects/{subject_id}/scores
func (h *AdminHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.Admin.ListScores(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subject_id"))
	respond(w, http.StatusOK, scores, err)
}

// RecordExam handles POST /admin/exams
func (h *AdminHandler) RecordExam(w http.ResponseWriter, r *http.Request) {
	var in admin.ExamInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	exam, err := h.Admin.RecordExam(r.Context(), actorID(r), in)
	respond(w, http.StatusOK, exam, err)
}

// ListExams handles GET /admin/students/{id}/subjects/{subject_id}/exams
func (h *AdminHandler) ListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.Admin.ListExams(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subject_id"))
	respond(w, http.StatusOK, exams, err)
}

// -- Enrollments --

// ListEnrollments handles GET /admin/subjects/{id}/enrollments
func (h *AdminHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.Admin.ListEnrollments(r.Context(), chi.URLParam(r, "id"))
	respond(w, http.StatusOK, enrollments, err)
}

// Enroll handles POST /admin/subjects/{id}/enrollments
func (h *AdminHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var in admin.EnrollmentInput
	if err := util.DecodeJSON(w, r, &in); err != nil {
		util.HandleError(w, err)
		return
	}
	in.SubjectID = chi.URLParam(r, "id")
	enrollment, err := h.Admin.Enroll(r.Context(), actorID(r), in)
	respond(w, http.StatusCreated, enrollment, err)
}

// Unenroll handles DELETE /admin/subjects/{id}/enrollments/{student_id}
func (h *AdminHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.Unenroll(r.Context(), actorID(r), admin.EnrollmentInput{
		StudentID: chi.URLParam(r, "student_id"),
		SubjectID: chi.URLParam(r, "id"),
	})
	respond(w, http.StatusOK, map[string]string{"message": "Student unenrolled"}, err)
}

// -- Activity --

// ListActivity handles GET /admin/activity?user_id=&action=&limit=
func (h *AdminHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := util.QueryInt(r, "limit")
	if err != nil {
		util.HandleError(w, err)
		return
	}
	q := r.URL.Query()
	logs, err := h.Admin.ListActivity(r.Context(), activity.Filter{
		UserID: q.Get("user_id"),
		Action: q.Get("action"),
		Limit:  int64(limit),
	})
	respond(w, http.StatusOK, logs, err)
}
