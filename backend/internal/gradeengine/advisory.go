package gradeengine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// Advisory rule identifiers, in evaluation order.
const (
	RuleAttendance = "attendance"
	RuleStruggle   = "category_struggle"
	RuleTrend      = "declining_trend"
	RuleBand       = "overall_band"
	RuleFallback   = "encouragement"
)

const (
	attendanceCategory = "attendance"
	presentLabel       = "present"

	minPresenceRate   = 0.80
	passingScoreRatio = 0.75
	struggleShare     = 0.50
	trendWindow       = 5
)

// GenerateAdvisories evaluates every advisory rule and returns the advisories
// in rule order. The result always holds at least one advisory.
func GenerateAdvisories(tier RiskTier, categories []ScoreCategory, scores []Score, overallGrade float64) []Advisory {
	byCategory := groupScores(scores)

	var out []Advisory
	if a, ok := attendanceAdvisory(categories, byCategory); ok {
		out = append(out, a)
	}
	out = append(out, struggleAdvisories(categories, byCategory)...)
	if a, ok := trendAdvisory(categories, scores, overallGrade); ok {
		out = append(out, a)
	}
	if a, ok := bandAdvisory(overallGrade); ok {
		out = append(out, a)
	}

	if len(out) == 0 {
		out = append(out, fallbackAdvisory(tier))
	}
	return out
}

// IsAttendance reports whether a category is the attendance category.
func IsAttendance(c ScoreCategory) bool {
	return strings.EqualFold(strings.TrimSpace(c.Name), attendanceCategory)
}

// PresenceRate returns the share of attendance scores labelled "present".
// The second result is false when there are no attendance scores.
func PresenceRate(scores []Score) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	present := 0
	for _, s := range scores {
		if strings.EqualFold(strings.TrimSpace(s.Name), presentLabel) {
			present++
		}
	}
	return float64(present) / float64(len(scores)), true
}

func attendanceAdvisory(categories []ScoreCategory, byCategory map[string][]Score) (Advisory, bool) {
	for _, c := range categories {
		if !IsAttendance(c) {
			continue
		}
		rate, ok := PresenceRate(byCategory[c.ID])
		if !ok || rate >= minPresenceRate {
			return Advisory{}, false
		}
		return Advisory{
			Rule:     RuleAttendance,
			Priority: PriorityHigh,
			Message: fmt.Sprintf("Your attendance rate is %.0f%%. Attend classes regularly; "+
				"attendance below 80%% puts your class standing at risk.", rate*100),
		}, true
	}
	return Advisory{}, false
}

func struggleAdvisories(categories []ScoreCategory, byCategory map[string][]Score) []Advisory {
	var out []Advisory
	for _, c := range categories {
		if IsAttendance(c) {
			continue
		}

		scored, below := 0, 0
		for _, s := range byCategory[c.ID] {
			if s.MaxValue <= 0 {
				continue
			}
			scored++
			if s.Value < passingScoreRatio*s.MaxValue {
				below++
			}
		}
		if scored == 0 || float64(below)/float64(scored) <= struggleShare {
			continue
		}

		out = append(out, Advisory{
			Rule:     RuleStruggle,
			Priority: PriorityMedium,
			Message: fmt.Sprintf("Most of your %s scores are below 75%%. Review the material "+
				"and consult your instructor about the topics you missed.", c.Name),
		})
	}
	return out
}

func trendAdvisory(categories []ScoreCategory, scores []Score, overallGrade float64) (Advisory, bool) {
	recent := recentPercents(categories, scores, trendWindow)
	if len(recent) == 0 {
		return Advisory{}, false
	}

	mean, err := stats.Mean(recent)
	if err != nil || mean >= overallGrade {
		return Advisory{}, false
	}

	return Advisory{
		Rule:     RuleTrend,
		Priority: PriorityMedium,
		Message: fmt.Sprintf("Your last scores average %.1f%%, below your overall grade of %.1f. "+
			"Your performance shows a declining trend; revisit the latest topics.", mean, overallGrade),
	}, true
}

// recentPercents returns the percentages of the last n scores by submission
// time. Attendance scores are deliberately left out of the window since
// presence is judged by the attendance rule alone; scores without a positive
// max are left out too.
func recentPercents(categories []ScoreCategory, scores []Score, n int) stats.Float64Data {
	attendance := make(map[string]bool)
	for _, c := range categories {
		if IsAttendance(c) {
			attendance[c.ID] = true
		}
	}

	window := make([]Score, 0, len(scores))
	for _, s := range scores {
		if attendance[s.CategoryID] || s.MaxValue <= 0 {
			continue
		}
		window = append(window, s)
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].SubmittedAt.Before(window[j].SubmittedAt)
	})
	if len(window) > n {
		window = window[len(window)-n:]
	}

	out := make(stats.Float64Data, 0, len(window))
	for _, s := range window {
		p, _ := Percent(s.Value, s.MaxValue)
		out = append(out, p)
	}
	return out
}

func bandAdvisory(overallGrade float64) (Advisory, bool) {
	switch {
	case overallGrade < 75:
		return Advisory{
			Rule:     RuleBand,
			Priority: PriorityHigh,
			Message: "Your overall grade is below 75. Focus on improving your scores, " +
				"complete missing requirements, and seek academic support.",
		}, true
	case overallGrade < 80:
		return Advisory{
			Rule:     RuleBand,
			Priority: PriorityMedium,
			Message:  "Your performance is satisfactory. Aim for consistency to move into a higher grade band.",
		}, true
	case overallGrade >= 90:
		return Advisory{
			Rule:     RuleBand,
			Priority: PriorityLow,
			Message:  "Excellent work! Your overall grade is outstanding. Keep it up.",
		}, true
	}
	return Advisory{}, false
}

func fallbackAdvisory(tier RiskTier) Advisory {
	msg := "Keep up the good work and stay consistent with your requirements."
	switch tier {
	case RiskModerate:
		msg = "You are on track. A little more effort on upcoming requirements will lift your standing."
	case RiskHigh:
		msg = "Keep working on your requirements and reach out to your instructor if you need help."
	}
	return Advisory{Rule: RuleFallback, Priority: PriorityLow, Message: msg}
}
