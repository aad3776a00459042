// Package gradeengine turns raw category, score and exam records into a
// performance snapshot (class standing, exam contribution, overall grade,
// GWA, risk tier) and a list of advisories.
//
// Every function is pure: it reads only its arguments and allocates only its
// results, so callers may evaluate many students concurrently.
package gradeengine

import "time"

// ScoreCategory is a graded component of a subject (quizzes, projects,
// attendance, ...) and its share of the class standing.
type ScoreCategory struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	WeightPercent float64 `json:"weight_percent"`
}

// Score is a single recorded score within a category. For attendance
// categories Name holds the status label ("present", "absent", "late").
type Score struct {
	ID          string    `json:"id,omitempty"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name,omitempty"`
	Value       float64   `json:"value"`
	MaxValue    float64   `json:"max_value"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ExamType identifies one of the two major exams.
type ExamType string

const (
	ExamMidterm ExamType = "midterm"
	ExamFinal   ExamType = "final"
)

// ExamScore is a midterm or final exam result.
type ExamScore struct {
	Type     ExamType `json:"type"`
	Value    float64  `json:"value"`
	MaxValue float64  `json:"max_value"`
}

// RiskTier is the coarse classification used to pick advisory text.
type RiskTier string

const (
	RiskLow      RiskTier = "low_risk"
	RiskModerate RiskTier = "moderate_risk"
	RiskHigh     RiskTier = "high_risk"
)

// Priority ranks an advisory for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// PerformanceSnapshot is the computed standing of one student in one subject.
type PerformanceSnapshot struct {
	ClassStandingPercent    float64  `json:"class_standing_percent"`
	ExamContributionPercent float64  `json:"exam_contribution_percent"`
	OverallGrade            float64  `json:"overall_grade"`
	GWA                     float64  `json:"gwa"`
	RiskTier                RiskTier `json:"risk_tier"`
}

// Advisory is a recommendation produced for a student.
type Advisory struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
}

// CategoryBreakdown is the per-category contribution to class standing.
type CategoryBreakdown struct {
	Category   ScoreCategory `json:"category"`
	Percent    float64       `json:"percent"`
	Weighted   float64       `json:"weighted"`
	ScoreCount int           `json:"score_count"`
}
