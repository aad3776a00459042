package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plp_smartgrade/backend/internal/admin"
	"plp_smartgrade/backend/internal/gradeengine"
	"plp_smartgrade/backend/internal/shared"
)

func TestLoadFixture_Demo(t *testing.T) {
	f, err := LoadFixture("")
	require.NoError(t, err)

	assert.Len(t, f.Admins, 1)
	assert.Len(t, f.Students, 2)
	assert.Len(t, f.Subjects, 3)
	assert.Len(t, f.Enrollments, 4)
	assert.Len(t, f.Scores, 11)
	assert.Len(t, f.Exams, 5)
	assert.Equal(t, "2025-0001", f.Students[0].StudentNumber)
	assert.False(t, f.Scores[0].SubmittedAt.IsZero())
}

func TestParseFixture_References(t *testing.T) {
	base := `
students: [{key: ana, email: a@x.ph, name: Ana}]
subjects:
  - key: math
    code: MATH101
    name: Algebra
    semester: 1st
    categories: [{key: quiz, name: Quizzes, weight: 30}]
  - key: eng
    code: ENG101
    name: English
    semester: 1st
`
	tests := []struct {
		name  string
		extra string
	}{
		{"unknown student", "enrollments: [{student: ben, subject: math}]"},
		{"unknown subject", "enrollments: [{student: ana, subject: pe}]"},
		{"category of another subject", "scores: [{student: ana, subject: eng, category: quiz, value: 1, max: 1}]"},
		{"unknown exam type", "exams: [{student: ana, subject: math, type: prelim, value: 1, max: 1}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(base + tt.extra + "\n"))
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}

	_, err := ParseFixture([]byte(base))
	assert.NoError(t, err)

	_, err = ParseFixture([]byte("students: {"))
	assert.Error(t, err)
}

func TestEvaluate_Summary(t *testing.T) {
	f, err := LoadFixture("")
	require.NoError(t, err)

	report, err := Evaluate(context.Background(), f.MemoryStore(), "ana", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Ana Cruz", report.StudentName)
	require.Len(t, report.Subjects, 2)

	// subjects come back sorted by code
	assert.Equal(t, "ENG101", report.Subjects[0].Code)
	assert.InDelta(t, 40.0, report.Subjects[0].Snapshot.OverallGrade, 0.001)
	assert.Equal(t, 5.00, report.Subjects[0].Snapshot.GWA)

	assert.Equal(t, "MATH101", report.Subjects[1].Code)
	assert.InDelta(t, 88.0, report.Subjects[1].Snapshot.OverallGrade, 0.001)
	assert.Equal(t, 1.25, report.Subjects[1].Snapshot.GWA)

	require.NotNil(t, report.Summary)
	assert.Equal(t, 2.75, report.Summary.GWA)
	assert.Equal(t, int32(5), report.Summary.TotalUnits)
	assert.Equal(t, int32(1), report.Summary.AtRiskSubjects)
}

func TestEvaluate_SingleSubject(t *testing.T) {
	f, err := LoadFixture("")
	require.NoError(t, err)
	store := f.MemoryStore()

	report, err := Evaluate(context.Background(), store, "ben", "pe", "")
	require.NoError(t, err)
	require.Len(t, report.Subjects, 1)
	assert.Nil(t, report.Summary)

	var rules []string
	for _, a := range report.Subjects[0].Advisories {
		rules = append(rules, a.Rule)
	}
	assert.Contains(t, rules, gradeengine.RuleAttendance)

	_, err = Evaluate(context.Background(), store, "ben", "eng", "")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = Evaluate(context.Background(), store, "nobody", "", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApp_EvaluateOffline(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run(context.Background(), []string{"smartgrade", "evaluate", "--offline", "--student", "ana", "--subject", "math"})
	require.NoError(t, err)

	var report EvaluationReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Subjects, 1)
	assert.Equal(t, gradeengine.RiskLow, report.Subjects[0].Snapshot.RiskTier)
	assert.NotEmpty(t, report.Subjects[0].Advisories)
}

// recordingTarget hands out sequential IDs and remembers what it was asked
type recordingTarget struct {
	next   int
	actors []string
	enroll []admin.EnrollmentInput
	scores []admin.ScoreInput
	exams  []admin.ExamInput
}

func (r *recordingTarget) id(prefix string) string {
	r.next++
	return fmt.Sprintf("%s_%d", prefix, r.next)
}

func (r *recordingTarget) CreateAdmin(_ context.Context, actor string, in admin.UserInput) (*shared.User, error) {
	r.actors = append(r.actors, actor)
	return &shared.User{ID: r.id("adm"), Email: in.Email, Role: shared.RoleAdmin}, nil
}

func (r *recordingTarget) CreateStudent(_ context.Context, actor string, in admin.UserInput) (*shared.User, error) {
	r.actors = append(r.actors, actor)
	return &shared.User{ID: r.id("stu"), Email: in.Email, Role: shared.RoleStudent}, nil
}

func (r *recordingTarget) CreateSubject(_ context.Context, actor string, in admin.SubjectInput) (*shared.Subject, error) {
	return &shared.Subject{ID: r.id("sub"), Code: in.Code}, nil
}

func (r *recordingTarget) SaveCategory(_ context.Context, actor, subjectID string, in admin.CategoryInput) (*shared.ScoreCategory, error) {
	return &shared.ScoreCategory{ID: r.id("cat"), SubjectID: subjectID, Name: in.Name}, nil
}

func (r *recordingTarget) Enroll(_ context.Context, actor string, in admin.EnrollmentInput) (*shared.Enrollment, error) {
	r.enroll = append(r.enroll, in)
	return &shared.Enrollment{ID: r.id("enr"), StudentID: in.StudentID, SubjectID: in.SubjectID}, nil
}

func (r *recordingTarget) RecordScore(_ context.Context, actor string, in admin.ScoreInput) (*shared.ScoreRecord, error) {
	r.scores = append(r.scores, in)
	return &shared.ScoreRecord{ID: r.id("score")}, nil
}

func (r *recordingTarget) RecordExam(_ context.Context, actor string, in admin.ExamInput) (*shared.ExamRecord, error) {
	r.exams = append(r.exams, in)
	return &shared.ExamRecord{ID: r.id("exam")}, nil
}

func TestSeed_ResolvesKeys(t *testing.T) {
	f, err := LoadFixture("")
	require.NoError(t, err)

	target := &recordingTarget{}
	res, err := Seed(context.Background(), target, f, cliActor)
	require.NoError(t, err)

	assert.Equal(t, &SeedResult{Admins: 1, Students: 2, Subjects: 3, Categories: 5, Enrollments: 4, Scores: 11, Exams: 5}, res)

	// the admin is created by the CLI, everything after it by that admin
	assert.Equal(t, []string{cliActor, "adm_1", "adm_1"}, target.actors)

	// ids: adm_1, stu_2, stu_3, sub_4, cat_5, cat_6, sub_7, cat_8, sub_9, ...
	require.Len(t, target.enroll, 4)
	assert.Equal(t, admin.EnrollmentInput{StudentID: "stu_2", SubjectID: "sub_4"}, target.enroll[0])
	assert.Equal(t, admin.EnrollmentInput{StudentID: "stu_2", SubjectID: "sub_7"}, target.enroll[1])

	assert.Equal(t, "cat_5", target.scores[0].CategoryID)
	assert.Equal(t, "stu_3", target.exams[3].StudentID)
}
