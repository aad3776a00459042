// Package gradepb is the wire contract of the grade service. Messages are
// plain Go structs carried over gRPC with the JSON codec registered in codec.go.
package gradepb

import "plp_smartgrade/backend/internal/gradeengine"

// SubjectPerformanceRequest asks for one student's standing in one subject.
type SubjectPerformanceRequest struct {
	StudentId string `json:"student_id"`
	SubjectId string `json:"subject_id"`
}

// SubjectInfo describes a subject in responses.
type SubjectInfo struct {
	Id       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Units    int32  `json:"units"`
	Semester string `json:"semester"`
}

// SubjectPerformanceResponse carries the snapshot, its breakdown and advisories.
type SubjectPerformanceResponse struct {
	StudentId   string                          `json:"student_id"`
	StudentName string                          `json:"student_name"`
	Subject     *SubjectInfo                    `json:"subject"`
	Snapshot    gradeengine.PerformanceSnapshot `json:"snapshot"`
	Breakdown   []gradeengine.CategoryBreakdown `json:"breakdown"`
	Exams       []gradeengine.ExamScore         `json:"exams"`
	Advisories  []gradeengine.Advisory          `json:"advisories"`
	Passing     bool                            `json:"passing"`
}

// StudentSummaryRequest asks for every enrolled subject of a student.
type StudentSummaryRequest struct {
	StudentId string `json:"student_id"`
	Semester  string `json:"semester,omitempty"`
}

// SubjectResult is one subject inside a student summary.
type SubjectResult struct {
	Subject    *SubjectInfo                    `json:"subject"`
	Snapshot   gradeengine.PerformanceSnapshot `json:"snapshot"`
	Advisories []gradeengine.Advisory          `json:"advisories"`
}

// StudentSummaryResponse aggregates a student's subjects into one GWA.
type StudentSummaryResponse struct {
	StudentId        string               `json:"student_id"`
	StudentName      string               `json:"student_name"`
	Subjects         []*SubjectResult     `json:"subjects"`
	Gwa              float64              `json:"gwa"`
	MeanOverallGrade float64              `json:"mean_overall_grade"`
	RiskTier         gradeengine.RiskTier `json:"risk_tier"`
	TotalUnits       int32                `json:"total_units"`
	AtRiskSubjects   int32                `json:"at_risk_subjects"`
}

// ClassPerformanceRequest asks for every enrolled student of a subject.
type ClassPerformanceRequest struct {
	SubjectId string `json:"subject_id"`
}

// StudentResult is one student row in a class report.
type StudentResult struct {
	StudentId     string                          `json:"student_id"`
	StudentName   string                          `json:"student_name"`
	StudentNumber string                          `json:"student_number,omitempty"`
	Snapshot      gradeengine.PerformanceSnapshot `json:"snapshot"`
}

// ClassStats summarises the overall grades of a class.
type ClassStats struct {
	Count             int32   `json:"count"`
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	StandardDeviation float64 `json:"standard_deviation"`
	Highest           float64 `json:"highest"`
	Lowest            float64 `json:"lowest"`
	HighRisk          int32   `json:"high_risk"`
	Passing           int32   `json:"passing"`
}

// ClassPerformanceResponse is the per-subject class report.
type ClassPerformanceResponse struct {
	Subject  *SubjectInfo     `json:"subject"`
	Students []*StudentResult `json:"students"`
	Stats    *ClassStats      `json:"stats"`
}
