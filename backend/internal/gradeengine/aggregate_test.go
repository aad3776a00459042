package gradeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullScores(categories []ScoreCategory) []Score {
	var out []Score
	for _, c := range categories {
		out = append(out,
			Score{CategoryID: c.ID, Value: 10, MaxValue: 10},
			Score{CategoryID: c.ID, Value: 25, MaxValue: 25},
		)
	}
	return out
}

func TestClassStandingFullMarks(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    float64
	}{
		{"single category", []float64{30}, 30},
		{"under cap", []float64{20, 15, 10}, 45},
		{"exactly cap", []float64{40, 20}, 60},
		{"capped", []float64{40, 30, 30}, 60},
		{"zero weight", []float64{0, 25}, 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cats []ScoreCategory
			for i, w := range tc.weights {
				cats = append(cats, ScoreCategory{ID: string(rune('a' + i)), Name: "cat", WeightPercent: w})
			}
			assert.InDelta(t, tc.want, ClassStanding(cats, fullScores(cats)), 1e-9)
		})
	}
}

func TestClassStandingPartialScores(t *testing.T) {
	cats := []ScoreCategory{
		{ID: "quiz", Name: "Quizzes", WeightPercent: 20},
		{ID: "proj", Name: "Projects", WeightPercent: 30},
	}
	scores := []Score{
		{CategoryID: "quiz", Value: 8, MaxValue: 10},
		{CategoryID: "quiz", Value: 7, MaxValue: 10},
		{CategoryID: "proj", Value: 45, MaxValue: 50},
	}

	// quizzes 75% * 0.2 = 15, projects 90% * 0.3 = 27
	assert.InDelta(t, 42.0, ClassStanding(cats, scores), 1e-9)

	b := Breakdown(cats, scores)
	require.Len(t, b, 2)
	assert.Equal(t, "quiz", b[0].Category.ID)
	assert.InDelta(t, 75.0, b[0].Percent, 1e-9)
	assert.Equal(t, 2, b[0].ScoreCount)
	assert.InDelta(t, 27.0, b[1].Weighted, 1e-9)
}

func TestClassStandingSkipsZeroMax(t *testing.T) {
	cats := []ScoreCategory{
		{ID: "a", Name: "Empty", WeightPercent: 30},
		{ID: "b", Name: "Zero", WeightPercent: 20},
		{ID: "c", Name: "Real", WeightPercent: 10},
	}
	scores := []Score{
		{CategoryID: "b", Value: 0, MaxValue: 0},
		{CategoryID: "c", Value: 5, MaxValue: 10},
	}
	assert.InDelta(t, 5.0, ClassStanding(cats, scores), 1e-9)
	assert.Zero(t, ClassStanding(nil, scores))
}

func TestExamContribution(t *testing.T) {
	tests := []struct {
		name  string
		exams []ExamScore
		want  float64
	}{
		{"none", nil, 0},
		{"both perfect", []ExamScore{{ExamMidterm, 50, 50}, {ExamFinal, 100, 100}}, 40},
		{"midterm only", []ExamScore{{ExamMidterm, 30, 40}}, 15},
		{"zero max skipped", []ExamScore{{ExamMidterm, 30, 0}, {ExamFinal, 40, 80}}, 10},
		{"negative max skipped", []ExamScore{{ExamFinal, 10, -5}}, 0},
		{"duplicate type counted once", []ExamScore{{ExamFinal, 10, 10}, {ExamFinal, 10, 10}}, 20},
		{"unknown type ignored", []ExamScore{{ExamType("prelim"), 10, 10}}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ExamContribution(tc.exams), 1e-9)
		})
	}
}

func TestOverallGradeClamped(t *testing.T) {
	assert.Equal(t, 100.0, OverallGrade(60, 45))
	assert.Equal(t, 0.0, OverallGrade(-10, 5))
	assert.InDelta(t, 87.5, OverallGrade(55, 32.5), 1e-9)
}

func TestComputePerformanceEmpty(t *testing.T) {
	got := ComputePerformance(nil, nil, nil)
	assert.Equal(t, PerformanceSnapshot{
		ClassStandingPercent:    0,
		ExamContributionPercent: 0,
		OverallGrade:            0,
		GWA:                     5.00,
		RiskTier:                RiskHigh,
	}, got)
}

func TestComputePerformance(t *testing.T) {
	cats := []ScoreCategory{
		{ID: "quiz", Name: "Quizzes", WeightPercent: 30},
		{ID: "proj", Name: "Projects", WeightPercent: 30},
	}
	scores := []Score{
		{CategoryID: "quiz", Value: 9, MaxValue: 10},
		{CategoryID: "proj", Value: 100, MaxValue: 100},
	}
	exams := []ExamScore{{ExamMidterm, 40, 50}, {ExamFinal, 90, 100}}

	got := ComputePerformance(cats, scores, exams)
	assert.InDelta(t, 57.0, got.ClassStandingPercent, 1e-9)
	assert.InDelta(t, 34.0, got.ExamContributionPercent, 1e-9)
	assert.InDelta(t, 91.0, got.OverallGrade, 1e-9)
	assert.Equal(t, 1.00, got.GWA)
	assert.Equal(t, RiskLow, got.RiskTier)
}
