package gradeengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var attendanceCat = ScoreCategory{ID: "att", Name: "Attendance", WeightPercent: 10}

func attendanceScores(present, total int) []Score {
	out := make([]Score, 0, total)
	for i := 0; i < total; i++ {
		s := Score{CategoryID: "att", Name: "absent", Value: 0, MaxValue: 1}
		if i < present {
			s.Name = "Present"
			s.Value = 1
		}
		out = append(out, s)
	}
	return out
}

func rules(advisories []Advisory) []string {
	out := make([]string, 0, len(advisories))
	for _, a := range advisories {
		out = append(out, a.Rule)
	}
	return out
}

func findRule(advisories []Advisory, rule string) (Advisory, bool) {
	for _, a := range advisories {
		if a.Rule == rule {
			return a, true
		}
	}
	return Advisory{}, false
}

func TestAttendanceRule(t *testing.T) {
	cats := []ScoreCategory{attendanceCat}

	t.Run("70 percent triggers", func(t *testing.T) {
		got := GenerateAdvisories(RiskModerate, cats, attendanceScores(7, 10), 82)
		a, ok := findRule(got, RuleAttendance)
		require.True(t, ok)
		assert.Equal(t, PriorityHigh, a.Priority)
		assert.Contains(t, a.Message, "70%")
	})

	t.Run("80 percent does not trigger", func(t *testing.T) {
		got := GenerateAdvisories(RiskModerate, cats, attendanceScores(8, 10), 82)
		_, ok := findRule(got, RuleAttendance)
		assert.False(t, ok)
	})

	t.Run("no attendance scores", func(t *testing.T) {
		got := GenerateAdvisories(RiskModerate, cats, nil, 82)
		_, ok := findRule(got, RuleAttendance)
		assert.False(t, ok)
	})

	t.Run("name match is case-insensitive", func(t *testing.T) {
		c := []ScoreCategory{{ID: "att", Name: "  ATTENDANCE "}}
		got := GenerateAdvisories(RiskModerate, c, attendanceScores(1, 4), 82)
		_, ok := findRule(got, RuleAttendance)
		assert.True(t, ok)
	})
}

func TestPresenceRate(t *testing.T) {
	rate, ok := PresenceRate(attendanceScores(3, 4))
	require.True(t, ok)
	assert.InDelta(t, 0.75, rate, 1e-9)

	_, ok = PresenceRate(nil)
	assert.False(t, ok)
}

func TestStruggleRule(t *testing.T) {
	quiz := ScoreCategory{ID: "quiz", Name: "Quizzes", WeightPercent: 20}

	t.Run("majority below 75 percent", func(t *testing.T) {
		scores := []Score{
			{CategoryID: "quiz", Value: 5, MaxValue: 10},
			{CategoryID: "quiz", Value: 7, MaxValue: 10},
			{CategoryID: "quiz", Value: 9, MaxValue: 10},
		}
		got := GenerateAdvisories(RiskModerate, []ScoreCategory{quiz}, scores, 82)
		a, ok := findRule(got, RuleStruggle)
		require.True(t, ok)
		assert.Equal(t, PriorityMedium, a.Priority)
		assert.Contains(t, a.Message, "Quizzes")
	})

	t.Run("exactly half is not enough", func(t *testing.T) {
		scores := []Score{
			{CategoryID: "quiz", Value: 5, MaxValue: 10},
			{CategoryID: "quiz", Value: 7.5, MaxValue: 10},
		}
		got := GenerateAdvisories(RiskModerate, []ScoreCategory{quiz}, scores, 82)
		_, ok := findRule(got, RuleStruggle)
		assert.False(t, ok)
	})

	t.Run("attendance category is excluded", func(t *testing.T) {
		got := GenerateAdvisories(RiskModerate, []ScoreCategory{attendanceCat}, attendanceScores(9, 10), 82)
		_, ok := findRule(got, RuleStruggle)
		assert.False(t, ok)
	})
}

func TestTrendRule(t *testing.T) {
	quiz := ScoreCategory{ID: "quiz", Name: "Quizzes", WeightPercent: 20}
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	at := func(day int) time.Time { return base.AddDate(0, 0, day) }

	// the oldest score is perfect, the five newest average 70
	scores := []Score{
		{CategoryID: "quiz", Value: 7, MaxValue: 10, SubmittedAt: at(5)},
		{CategoryID: "quiz", Value: 10, MaxValue: 10, SubmittedAt: at(0)},
		{CategoryID: "quiz", Value: 7, MaxValue: 10, SubmittedAt: at(2)},
		{CategoryID: "quiz", Value: 7, MaxValue: 10, SubmittedAt: at(3)},
		{CategoryID: "quiz", Value: 7, MaxValue: 10, SubmittedAt: at(1)},
		{CategoryID: "quiz", Value: 7, MaxValue: 10, SubmittedAt: at(4)},
	}

	got := GenerateAdvisories(RiskModerate, []ScoreCategory{quiz}, scores, 82)
	a, ok := findRule(got, RuleTrend)
	require.True(t, ok)
	assert.Equal(t, PriorityMedium, a.Priority)

	got = GenerateAdvisories(RiskHigh, []ScoreCategory{quiz}, scores, 70)
	_, ok = findRule(got, RuleTrend)
	assert.False(t, ok, "mean equal to overall grade is not a decline")

	assert.Len(t, recentPercents([]ScoreCategory{quiz}, scores, trendWindow), trendWindow)
}

func TestTrendRule_SkipsAttendance(t *testing.T) {
	quiz := ScoreCategory{ID: "quiz", Name: "Quizzes", WeightPercent: 20}
	cats := []ScoreCategory{quiz, attendanceCat}
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	var scores []Score
	for i := 0; i < 5; i++ {
		scores = append(scores, Score{CategoryID: "quiz", Value: 9, MaxValue: 10, SubmittedAt: base.AddDate(0, 0, i)})
	}
	// newer absences would drag a mixed window to 0%
	for i, s := range attendanceScores(0, 5) {
		s.SubmittedAt = base.AddDate(0, 1, i)
		scores = append(scores, s)
	}

	window := recentPercents(cats, scores, trendWindow)
	require.Len(t, window, trendWindow)
	for _, p := range window {
		assert.InDelta(t, 90.0, p, 0.001)
	}

	got := GenerateAdvisories(RiskModerate, cats, scores, 82)
	_, ok := findRule(got, RuleTrend)
	assert.False(t, ok)
}

func TestBandRule(t *testing.T) {
	tests := []struct {
		grade    float64
		priority Priority
		fires    bool
	}{
		{40, PriorityHigh, true},
		{74.99, PriorityHigh, true},
		{75, PriorityMedium, true},
		{79.99, PriorityMedium, true},
		{80, "", false},
		{89.99, "", false},
		{90, PriorityLow, true},
		{100, PriorityLow, true},
	}

	for _, tc := range tests {
		a, ok := bandAdvisory(tc.grade)
		assert.Equal(t, tc.fires, ok, "grade %.2f", tc.grade)
		if ok {
			assert.Equal(t, tc.priority, a.Priority, "grade %.2f", tc.grade)
		}
	}
}

func TestFallbackNeverEmpty(t *testing.T) {
	inputs := []struct {
		name   string
		cats   []ScoreCategory
		scores []Score
		grade  float64
	}{
		{"empty", nil, nil, 0},
		{"quiet band", nil, nil, 85},
		{"moderate band", nil, nil, 81},
		{"perfect", []ScoreCategory{{ID: "q", Name: "Quizzes", WeightPercent: 60}},
			[]Score{{CategoryID: "q", Value: 10, MaxValue: 10}}, 100},
	}

	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			got := GenerateAdvisories(ClassifyRisk(in.grade), in.cats, in.scores, in.grade)
			assert.NotEmpty(t, got)
		})
	}

	got := GenerateAdvisories(RiskModerate, nil, nil, 81)
	require.Len(t, got, 1)
	assert.Equal(t, RuleFallback, got[0].Rule)
	assert.Equal(t, PriorityLow, got[0].Priority)
}

func TestAdvisoryOrder(t *testing.T) {
	quiz := ScoreCategory{ID: "quiz", Name: "Quizzes", WeightPercent: 20}
	cats := []ScoreCategory{attendanceCat, quiz}
	scores := append(attendanceScores(5, 10),
		Score{CategoryID: "quiz", Value: 2, MaxValue: 10},
		Score{CategoryID: "quiz", Value: 3, MaxValue: 10},
	)

	got := GenerateAdvisories(RiskHigh, cats, scores, 60)
	assert.Equal(t, []string{RuleAttendance, RuleStruggle, RuleTrend, RuleBand}, rules(got))
}
