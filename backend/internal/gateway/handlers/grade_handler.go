package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"plp_smartgrade/backend/internal/gateway/util"
	pb_grade "plp_smartgrade/backend/internal/pb/grade"
)

// GradeHandler holds the gRPC client for the Grade Service.
type GradeHandler struct {
	GradeClient pb_grade.GradeServiceClient
	Timeout     time.Duration
}

func (h *GradeHandler) callContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

// MySummary handles GET /grades/summary
// Query Params: semester (optional)
func (h *GradeHandler) MySummary(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())
	h.summary(w, r, user.ID)
}

// MySubject handles GET /grades/subjects/{subject_id}
func (h *GradeHandler) MySubject(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())
	h.subject(w, r, user.ID, chi.URLParam(r, "subject_id"))
}

// StudentSummary handles GET /admin/students/{id}/summary
func (h *GradeHandler) StudentSummary(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, chi.URLParam(r, "id"))
}

// StudentSubject handles GET /admin/students/{id}/subjects/{subject_id}/performance
func (h *GradeHandler) StudentSubject(w http.ResponseWriter, r *http.Request) {
	h.subject(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "subject_id"))
}

// ClassPerformance handles GET /admin/subjects/{id}/performance
func (h *GradeHandler) ClassPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.callContext(r)
	defer cancel()

	resp, err := h.GradeClient.GetClassPerformance(ctx, &pb_grade.ClassPerformanceRequest{
		SubjectId: chi.URLParam(r, "id"),
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

func (h *GradeHandler) summary(w http.ResponseWriter, r *http.Request, studentID string) {
	ctx, cancel := h.callContext(r)
	defer cancel()

	resp, err := h.GradeClient.GetStudentSummary(ctx, &pb_grade.StudentSummaryRequest{
		StudentId: studentID,
		Semester:  r.URL.Query().Get("semester"),
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

func (h *GradeHandler) subject(w http.ResponseWriter, r *http.Request, studentID, subjectID string) {
	ctx, cancel := h.callContext(r)
	defer cancel()

	resp, err := h.GradeClient.GetSubjectPerformance(ctx, &pb_grade.SubjectPerformanceRequest{
		StudentId: studentID,
		SubjectId: subjectID,
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, resp)
}
