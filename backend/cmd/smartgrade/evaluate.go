package main

import (
	"context"
	"fmt"

	"plp_smartgrade/backend/internal/gradeengine"
	"plp_smartgrade/backend/internal/grade"
	"plp_smartgrade/backend/internal/shared"
)

// SubjectReport is one evaluated subject
type SubjectReport struct {
	Code       string                          `json:"code"`
	Name       string                          `json:"name"`
	Units      int32                           `json:"units"`
	Snapshot   gradeengine.PerformanceSnapshot `json:"snapshot"`
	Breakdown  []gradeengine.CategoryBreakdown `json:"breakdown"`
	Advisories []gradeengine.Advisory          `json:"advisories"`
}

// SummaryReport rolls several subjects into one GWA
type SummaryReport struct {
	GWA              float64              `json:"gwa"`
	MeanOverallGrade float64              `json:"mean_overall_grade"`
	RiskTier         gradeengine.RiskTier `json:"risk_tier"`
	TotalUnits       int32                `json:"total_units"`
	AtRiskSubjects   int32                `json:"at_risk_subjects"`
}

// EvaluationReport is what `smartgrade evaluate` prints
type EvaluationReport struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	Subjects    []SubjectReport `json:"subjects"`
	Summary     *SummaryReport  `json:"summary,omitempty"`
}

// Evaluate runs the grade engine for one subject, or for every enrolled
// subject of the semester when subjectID is empty
func Evaluate(ctx context.Context, store grade.Store, studentID, subjectID, semester string) (*EvaluationReport, error) {
	student, err := store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", studentID, err)
	}

	var subjects []shared.Subject
	if subjectID != "" {
		enrolled, err := store.IsEnrolled(ctx, studentID, subjectID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, fmt.Errorf("%w: %s is not enrolled in %s", shared.ErrForbidden, studentID, subjectID)
		}
		subject, err := store.GetSubject(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", subjectID, err)
		}
		subjects = append(subjects, *subject)
	} else {
		subjects, err = store.ListEnrolledSubjects(ctx, studentID, semester)
		if err != nil {
			return nil, err
		}
	}

	report := &EvaluationReport{StudentID: student.ID, StudentName: student.Name}
	evals := make([]*grade.Evaluation, 0, len(subjects))
	for _, subject := range subjects {
		ev, err := grade.EvaluateSubject(ctx, store, studentID, subject)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", subject.Code, err)
		}
		evals = append(evals, ev)
		report.Subjects = append(report.Subjects, SubjectReport{
			Code:       subject.Code,
			Name:       subject.Name,
			Units:      subject.Units,
			Snapshot:   ev.Snapshot,
			Breakdown:  ev.Breakdown,
			Advisories: ev.Advisories,
		})
	}

	if subjectID == "" {
		sum := grade.Summarize(evals)
		report.Summary = &SummaryReport{
			GWA:              sum.GWA,
			MeanOverallGrade: sum.MeanOverallGrade,
			RiskTier:         sum.RiskTier,
			TotalUnits:       sum.TotalUnits,
			AtRiskSubjects:   sum.AtRisk,
		}
	}
	return report, nil
}
