package gradeengine

const (
	// ClassStandingCap is the largest share of the final grade class standing may reach.
	ClassStandingCap = 60.0

	// ExamShare is the fixed contribution of each of the midterm and final exams.
	ExamShare = 20.0

	// MaxOverallGrade bounds the overall grade.
	MaxOverallGrade = 100.0
)

// ComputePerformance aggregates categories, scores and exams into a snapshot.
func ComputePerformance(categories []ScoreCategory, scores []Score, exams []ExamScore) PerformanceSnapshot {
	standing := ClassStanding(categories, scores)
	exam := ExamContribution(exams)
	overall := OverallGrade(standing, exam)

	return PerformanceSnapshot{
		ClassStandingPercent:    standing,
		ExamContributionPercent: exam,
		OverallGrade:            overall,
		GWA:                     GWA(overall),
		RiskTier:                ClassifyRisk(overall),
	}
}

// Breakdown computes the percent and weighted contribution of every category,
// in the order the categories were given.
func Breakdown(categories []ScoreCategory, scores []Score) []CategoryBreakdown {
	byCategory := groupScores(scores)

	out := make([]CategoryBreakdown, 0, len(categories))
	for _, c := range categories {
		catScores := byCategory[c.ID]
		percent := categoryPercent(catScores)
		out = append(out, CategoryBreakdown{
			Category:   c,
			Percent:    percent,
			Weighted:   percent * c.WeightPercent / 100,
			ScoreCount: len(catScores),
		})
	}
	return out
}

// ClassStanding returns the weighted sum of category percentages, capped at
// ClassStandingCap. Categories without any max value contribute nothing.
func ClassStanding(categories []ScoreCategory, scores []Score) float64 {
	total := 0.0
	for _, b := range Breakdown(categories, scores) {
		total += b.Weighted
	}
	if total > ClassStandingCap {
		return ClassStandingCap
	}
	return total
}

// ExamContribution returns the exam share of the final grade. Only the first
// midterm and the first final are counted; exams with a non-positive max are skipped.
func ExamContribution(exams []ExamScore) float64 {
	seen := make(map[ExamType]bool, 2)
	total := 0.0
	for _, e := range exams {
		if e.Type != ExamMidterm && e.Type != ExamFinal {
			continue
		}
		if seen[e.Type] {
			continue
		}
		seen[e.Type] = true

		if e.MaxValue <= 0 {
			continue
		}
		total += ExamShare * (e.Value / e.MaxValue)
	}
	return total
}

// OverallGrade combines class standing and exam contribution, clamped to [0, 100].
func OverallGrade(classStanding, examContribution float64) float64 {
	g := classStanding + examContribution
	switch {
	case g > MaxOverallGrade:
		return MaxOverallGrade
	case g < 0:
		return 0
	}
	return g
}

// Percent returns 100*value/max, or false when max is not positive.
func Percent(value, max float64) (float64, bool) {
	if max <= 0 {
		return 0, false
	}
	return 100 * value / max, true
}

func categoryPercent(scores []Score) float64 {
	var sum, max float64
	for _, s := range scores {
		sum += s.Value
		max += s.MaxValue
	}
	p, _ := Percent(sum, max)
	return p
}

func groupScores(scores []Score) map[string][]Score {
	out := make(map[string][]Score)
	for _, s := range scores {
		out[s.CategoryID] = append(out[s.CategoryID], s)
	}
	return out
}
