package grade

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"plp_smartgrade/backend/internal/gradeengine"
	pb "plp_smartgrade/backend/internal/pb/grade"
	"plp_smartgrade/backend/internal/shared"
)

const bufSize = 1024 * 1024

// seedStore builds two subjects and two students:
//
//	stu_1 MATH101: 54 standing + 34 exams = 88
//	stu_1 ENG101:  30 standing + 10 exams = 40
//	stu_2 MATH101: 40.5 standing + 26 exams = 66.5
func seedStore() *MemoryStore {
	store := NewMemoryStore()
	base := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

	store.AddStudent(shared.User{ID: "stu_1", Name: "Ana Cruz", Role: shared.RoleStudent, StudentNumber: "2025-0001"})
	store.AddStudent(shared.User{ID: "stu_2", Name: "Ben Reyes", Role: shared.RoleStudent, StudentNumber: "2025-0002"})
	store.AddStudent(shared.User{ID: "adm_1", Name: "Registrar", Role: shared.RoleAdmin})

	store.AddSubject(shared.Subject{ID: "sub_math", Code: "MATH101", Name: "College Algebra", Units: 3, Semester: "1st"})
	store.AddSubject(shared.Subject{ID: "sub_eng", Code: "ENG101", Name: "Purposive Communication", Units: 2, Semester: "1st"})
	store.AddSubject(shared.Subject{ID: "sub_pe", Code: "PE101", Name: "Physical Education", Units: 2, Semester: "2nd"})

	store.Enroll("stu_1", "sub_math")
	store.Enroll("stu_1", "sub_eng")
	store.Enroll("stu_2", "sub_math")

	store.AddCategories(
		shared.ScoreCategory{ID: "cat_quiz", SubjectID: "sub_math", Name: "Quizzes", WeightPercent: 30},
		shared.ScoreCategory{ID: "cat_proj", SubjectID: "sub_math", Name: "Projects", WeightPercent: 30},
		shared.ScoreCategory{ID: "cat_essay", SubjectID: "sub_eng", Name: "Essays", WeightPercent: 60},
	)

	store.AddScores(
		shared.ScoreRecord{ID: "sc_1", StudentID: "stu_1", SubjectID: "sub_math", CategoryID: "cat_quiz", Value: 45, MaxValue: 50, SubmittedAt: base},
		shared.ScoreRecord{ID: "sc_2", StudentID: "stu_1", SubjectID: "sub_math", CategoryID: "cat_proj", Value: 90, MaxValue: 100, SubmittedAt: base.Add(time.Hour)},
		shared.ScoreRecord{ID: "sc_3", StudentID: "stu_1", SubjectID: "sub_eng", CategoryID: "cat_essay", Value: 50, MaxValue: 100, SubmittedAt: base},
		shared.ScoreRecord{ID: "sc_4", StudentID: "stu_2", SubjectID: "sub_math", CategoryID: "cat_quiz", Value: 30, MaxValue: 50, SubmittedAt: base},
		shared.ScoreRecord{ID: "sc_5", StudentID: "stu_2", SubjectID: "sub_math", CategoryID: "cat_proj", Value: 75, MaxValue: 100, SubmittedAt: base.Add(time.Hour)},
	)

	store.AddExams(
		shared.ExamRecord{ID: "ex_1", StudentID: "stu_1", SubjectID: "sub_math", Type: shared.ExamMidterm, Value: 40, MaxValue: 50},
		shared.ExamRecord{ID: "ex_2", StudentID: "stu_1", SubjectID: "sub_math", Type: shared.ExamFinal, Value: 45, MaxValue: 50},
		shared.ExamRecord{ID: "ex_3", StudentID: "stu_1", SubjectID: "sub_eng", Type: shared.ExamMidterm, Value: 25, MaxValue: 50},
		shared.ExamRecord{ID: "ex_4", StudentID: "stu_2", SubjectID: "sub_math", Type: shared.ExamMidterm, Value: 30, MaxValue: 50},
		shared.ExamRecord{ID: "ex_5", StudentID: "stu_2", SubjectID: "sub_math", Type: shared.ExamFinal, Value: 35, MaxValue: 50},
	)
	return store
}

// newTestClient serves a GradeService over bufconn and returns a client for it
func newTestClient(t *testing.T, store Store) pb.GradeServiceClient {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	pb.RegisterGradeServiceServer(s, NewGradeService(store))
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewGradeServiceClient(conn)
}

func TestGetSubjectPerformance(t *testing.T) {
	client := newTestClient(t, seedStore())

	resp, err := client.GetSubjectPerformance(context.Background(), &pb.SubjectPerformanceRequest{
		StudentId: "stu_1",
		SubjectId: "sub_math",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Cruz", resp.StudentName)
	assert.Equal(t, "MATH101", resp.Subject.Code)
	assert.InDelta(t, 54.0, resp.Snapshot.ClassStandingPercent, 0.01)
	assert.InDelta(t, 34.0, resp.Snapshot.ExamContributionPercent, 0.01)
	assert.InDelta(t, 88.0, resp.Snapshot.OverallGrade, 0.01)
	assert.Equal(t, 1.25, resp.Snapshot.GWA)
	assert.Equal(t, gradeengine.RiskLow, resp.Snapshot.RiskTier)
	assert.True(t, resp.Passing)

	require.Len(t, resp.Breakdown, 2)
	assert.InDelta(t, 90.0, resp.Breakdown[0].Percent, 0.01)
	assert.Len(t, resp.Exams, 2)
	assert.NotEmpty(t, resp.Advisories)
}

func TestGetSubjectPerformance_Errors(t *testing.T) {
	client := newTestClient(t, seedStore())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *pb.SubjectPerformanceRequest
		code codes.Code
	}{
		{"missing ids", &pb.SubjectPerformanceRequest{StudentId: "stu_1"}, codes.InvalidArgument},
		{"unknown student", &pb.SubjectPerformanceRequest{StudentId: "ghost", SubjectId: "sub_math"}, codes.NotFound},
		{"unknown subject", &pb.SubjectPerformanceRequest{StudentId: "stu_1", SubjectId: "ghost"}, codes.NotFound},
		{"not a student", &pb.SubjectPerformanceRequest{StudentId: "adm_1", SubjectId: "sub_math"}, codes.PermissionDenied},
		{"not enrolled", &pb.SubjectPerformanceRequest{StudentId: "stu_2", SubjectId: "sub_eng"}, codes.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetSubjectPerformance(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestGetStudentSummary(t *testing.T) {
	client := newTestClient(t, seedStore())

	resp, err := client.GetStudentSummary(context.Background(), &pb.StudentSummaryRequest{StudentId: "stu_1"})
	require.NoError(t, err)

	require.Len(t, resp.Subjects, 2)
	assert.Equal(t, "ENG101", resp.Subjects[0].Subject.Code)
	assert.Equal(t, "MATH101", resp.Subjects[1].Subject.Code)

	// (1.25*3 + 5.00*2) / 5
	assert.InDelta(t, 2.75, resp.Gwa, 0.001)
	assert.InDelta(t, 64.0, resp.MeanOverallGrade, 0.01)
	assert.Equal(t, gradeengine.RiskHigh, resp.RiskTier)
	assert.Equal(t, int32(5), resp.TotalUnits)
	assert.Equal(t, int32(1), resp.AtRiskSubjects)
}

func TestGetStudentSummary_SemesterFilterAndEmpty(t *testing.T) {
	client := newTestClient(t, seedStore())
	ctx := context.Background()

	resp, err := client.GetStudentSummary(ctx, &pb.StudentSummaryRequest{StudentId: "stu_1", Semester: "2nd"})
	require.NoError(t, err)
	assert.Empty(t, resp.Subjects)
	assert.Zero(t, resp.Gwa)

	_, err = client.GetStudentSummary(ctx, &pb.StudentSummaryRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetClassPerformance(t *testing.T) {
	client := newTestClient(t, seedStore())

	resp, err := client.GetClassPerformance(context.Background(), &pb.ClassPerformanceRequest{SubjectId: "sub_math"})
	require.NoError(t, err)

	require.Len(t, resp.Students, 2)
	assert.Equal(t, "Ana Cruz", resp.Students[0].StudentName)
	assert.InDelta(t, 66.5, resp.Students[1].Snapshot.OverallGrade, 0.01)
	assert.Equal(t, 2.25, resp.Students[1].Snapshot.GWA)

	stats := resp.Stats
	assert.Equal(t, int32(2), stats.Count)
	assert.InDelta(t, 77.25, stats.Mean, 0.01)
	assert.InDelta(t, 77.25, stats.Median, 0.01)
	assert.InDelta(t, 10.75, stats.StandardDeviation, 0.01)
	assert.InDelta(t, 88.0, stats.Highest, 0.01)
	assert.InDelta(t, 66.5, stats.Lowest, 0.01)
	assert.Equal(t, int32(1), stats.HighRisk)
	assert.Equal(t, int32(2), stats.Passing)
}

func TestGetClassPerformance_UnknownSubject(t *testing.T) {
	client := newTestClient(t, seedStore())

	_, err := client.GetClassPerformance(context.Background(), &pb.ClassPerformanceRequest{SubjectId: "ghost"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSummarize_ZeroUnitsCountAsOne(t *testing.T) {
	evals := []*Evaluation{
		{Subject: shared.Subject{Units: 0}, Snapshot: gradeengine.PerformanceSnapshot{GWA: 1.00, OverallGrade: 95, RiskTier: gradeengine.RiskLow}},
		{Subject: shared.Subject{Units: 1}, Snapshot: gradeengine.PerformanceSnapshot{GWA: 2.00, OverallGrade: 70, RiskTier: gradeengine.RiskHigh}},
	}

	sum := Summarize(evals)
	assert.InDelta(t, 1.5, sum.GWA, 0.001)
	assert.Equal(t, int32(2), sum.TotalUnits)
	assert.Equal(t, gradeengine.RiskModerate, sum.RiskTier)
	assert.Equal(t, int32(1), sum.AtRisk)
}

func TestClassStatistics_Empty(t *testing.T) {
	stats := ClassStatistics(nil)
	assert.Equal(t, int32(0), stats.Count)
	assert.Zero(t, stats.Mean)
}
