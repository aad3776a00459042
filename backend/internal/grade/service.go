package grade

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plp_smartgrade/backend/internal/gradeengine"
	pb "plp_smartgrade/backend/internal/pb/grade"
	"plp_smartgrade/backend/internal/shared"
)

// evaluation fan-out per request
const maxParallelEvaluations = 8

// GradeService implements the gRPC GradeService
type GradeService struct {
	pb.UnimplementedGradeServiceServer
	store   Store
	timeout time.Duration
}

// NewGradeService creates a new GradeService instance
func NewGradeService(store Store) *GradeService {
	return &GradeService{store: store, timeout: 10 * time.Second}
}

// Evaluation is the computed standing of one student in one subject
type Evaluation struct {
	Subject    shared.Subject
	Snapshot   gradeengine.PerformanceSnapshot
	Breakdown  []gradeengine.CategoryBreakdown
	Exams      []gradeengine.ExamScore
	Advisories []gradeengine.Advisory
}

// EvaluateSubject loads a student's records for one subject and runs the
// grade engine over them.
func EvaluateSubject(ctx context.Context, store Store, studentID string, subject shared.Subject) (*Evaluation, error) {
	categories, err := store.ListCategories(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	scores, err := store.ListScores(ctx, studentID, subject.ID)
	if err != nil {
		return nil, err
	}
	exams, err := store.ListExams(ctx, studentID, subject.ID)
	if err != nil {
		return nil, err
	}

	cats := shared.EngineCategories(categories)
	engScores := shared.EngineScores(scores)
	engExams := shared.EngineExams(exams)

	snapshot := gradeengine.ComputePerformance(cats, engScores, engExams)
	return &Evaluation{
		Subject:    subject,
		Snapshot:   snapshot,
		Breakdown:  gradeengine.Breakdown(cats, engScores),
		Exams:      engExams,
		Advisories: gradeengine.GenerateAdvisories(snapshot.RiskTier, cats, engScores, snapshot.OverallGrade),
	}, nil
}

// GetSubjectPerformance returns one student's snapshot, breakdown and
// advisories for a subject
func (s *GradeService) GetSubjectPerformance(ctx context.Context, req *pb.SubjectPerformanceRequest) (*pb.SubjectPerformanceResponse, error) {
	if req == nil || req.StudentId == "" || req.SubjectId == "" {
		return nil, status.Error(codes.InvalidArgument, "student_id and subject_id are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	student, err := s.getStudent(queryCtx, req.StudentId)
	if err != nil {
		return nil, err
	}

	subject, err := s.store.GetSubject(queryCtx, req.SubjectId)
	if err != nil {
		return nil, s.storeError(err, "subject not found", "failed to retrieve subject")
	}

	enrolled, err := s.store.IsEnrolled(queryCtx, req.StudentId, req.SubjectId)
	if err != nil {
		return nil, s.storeError(err, "", "failed to check enrollment")
	}
	if !enrolled {
		return nil, status.Error(codes.PermissionDenied, "student is not enrolled in this subject")
	}

	eval, err := EvaluateSubject(queryCtx, s.store, student.ID, *subject)
	if err != nil {
		return nil, s.storeError(err, "", "failed to evaluate subject")
	}

	return &pb.SubjectPerformanceResponse{
		StudentId:   student.ID,
		StudentName: student.Name,
		Subject:     subjectInfo(subject),
		Snapshot:    roundSnapshot(eval.Snapshot),
		Breakdown:   roundBreakdown(eval.Breakdown),
		Exams:       eval.Exams,
		Advisories:  eval.Advisories,
		Passing:     gradeengine.IsPassing(eval.Snapshot.GWA),
	}, nil
}

// GetStudentSummary evaluates every enrolled subject of a student and
// combines them into a units-weighted GWA
func (s *GradeService) GetStudentSummary(ctx context.Context, req *pb.StudentSummaryRequest) (*pb.StudentSummaryResponse, error) {
	if req == nil || req.StudentId == "" {
		return nil, status.Error(codes.InvalidArgument, "student_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	student, err := s.getStudent(queryCtx, req.StudentId)
	if err != nil {
		return nil, err
	}

	subjects, err := s.store.ListEnrolledSubjects(queryCtx, req.StudentId, req.Semester)
	if err != nil {
		return nil, s.storeError(err, "", "failed to retrieve enrolled subjects")
	}

	evals := make([]*Evaluation, len(subjects))
	g, gctx := errgroup.WithContext(queryCtx)
	g.SetLimit(maxParallelEvaluations)
	for i := range subjects {
		g.Go(func() error {
			eval, err := EvaluateSubject(gctx, s.store, student.ID, subjects[i])
			if err != nil {
				return err
			}
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.storeError(err, "", "failed to evaluate subjects")
	}

	resp := &pb.StudentSummaryResponse{
		StudentId:   student.ID,
		StudentName: student.Name,
		Subjects:    make([]*pb.SubjectResult, 0, len(evals)),
	}
	if len(evals) == 0 {
		return resp, nil
	}

	summary := Summarize(evals)
	resp.Gwa = summary.GWA
	resp.MeanOverallGrade = summary.MeanOverallGrade
	resp.RiskTier = summary.RiskTier
	resp.TotalUnits = summary.TotalUnits
	resp.AtRiskSubjects = summary.AtRisk

	for _, e := range evals {
		resp.Subjects = append(resp.Subjects, &pb.SubjectResult{
			Subject:    subjectInfo(&e.Subject),
			Snapshot:   roundSnapshot(e.Snapshot),
			Advisories: e.Advisories,
		})
	}
	return resp, nil
}

// Summary is the cross-subject rollup of a student's evaluations
type Summary struct {
	GWA              float64
	MeanOverallGrade float64
	RiskTier         gradeengine.RiskTier
	TotalUnits       int32
	AtRisk           int32
}

// Summarize weights each subject GWA by its units. Subjects without units
// count as one unit. The tier follows the mean overall grade.
func Summarize(evals []*Evaluation) Summary {
	var sum Summary
	if len(evals) == 0 {
		return sum
	}

	var weighted, units float64
	overall := make(stats.Float64Data, 0, len(evals))
	for _, e := range evals {
		u := float64(e.Subject.Units)
		if u <= 0 {
			u = 1
		}
		weighted += e.Snapshot.GWA * u
		units += u
		overall = append(overall, e.Snapshot.OverallGrade)
		if e.Snapshot.RiskTier == gradeengine.RiskHigh {
			sum.AtRisk++
		}
	}

	mean, _ := overall.Mean()
	sum.GWA = round2(weighted / units)
	sum.MeanOverallGrade = round2(mean)
	sum.RiskTier = gradeengine.ClassifyRisk(mean)
	sum.TotalUnits = int32(units)
	return sum
}

// GetClassPerformance evaluates every enrolled student of a subject
func (s *GradeService) GetClassPerformance(ctx context.Context, req *pb.ClassPerformanceRequest) (*pb.ClassPerformanceResponse, error) {
	if req == nil || req.SubjectId == "" {
		return nil, status.Error(codes.InvalidArgument, "subject_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subject, err := s.store.GetSubject(queryCtx, req.SubjectId)
	if err != nil {
		return nil, s.storeError(err, "subject not found", "failed to retrieve subject")
	}

	students, err := s.store.ListEnrolledStudents(queryCtx, req.SubjectId)
	if err != nil {
		return nil, s.storeError(err, "", "failed to retrieve enrolled students")
	}

	rows := make([]*pb.StudentResult, len(students))
	g, gctx := errgroup.WithContext(queryCtx)
	g.SetLimit(maxParallelEvaluations)
	for i := range students {
		g.Go(func() error {
			eval, err := EvaluateSubject(gctx, s.store, students[i].ID, *subject)
			if err != nil {
				return err
			}
			rows[i] = &pb.StudentResult{
				StudentId:     students[i].ID,
				StudentName:   students[i].Name,
				StudentNumber: students[i].StudentNumber,
				Snapshot:      roundSnapshot(eval.Snapshot),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.storeError(err, "", "failed to evaluate class")
	}

	return &pb.ClassPerformanceResponse{
		Subject:  subjectInfo(subject),
		Students: rows,
		Stats:    ClassStatistics(rows),
	}, nil
}

// ClassStatistics summarises the overall grades of a class report
func ClassStatistics(rows []*pb.StudentResult) *pb.ClassStats {
	out := &pb.ClassStats{Count: int32(len(rows))}
	if len(rows) == 0 {
		return out
	}

	grades := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, r.Snapshot.OverallGrade)
		if r.Snapshot.RiskTier == gradeengine.RiskHigh {
			out.HighRisk++
		}
		if gradeengine.IsPassing(r.Snapshot.GWA) {
			out.Passing++
		}
	}

	mean, _ := grades.Mean()
	median, _ := grades.Median()
	stddev, _ := grades.StandardDeviation()
	highest, _ := grades.Max()
	lowest, _ := grades.Min()

	out.Mean = round2(mean)
	out.Median = round2(median)
	out.StandardDeviation = round2(stddev)
	out.Highest = highest
	out.Lowest = lowest
	return out
}

// ============================================================================
// Helper functions
// ============================================================================

func (s *GradeService) getStudent(ctx context.Context, id string) (*shared.User, error) {
	student, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "student not found", "failed to retrieve student information")
	}
	if student.Role != shared.RoleStudent {
		return nil, status.Error(codes.PermissionDenied, "user is not a student")
	}
	return student, nil
}

// storeError maps store failures onto gRPC status codes. Unexpected errors
// are reported.
func (s *GradeService) storeError(err error, notFoundMsg, internalMsg string) error {
	if notFoundMsg != "" && errors.Is(err, shared.ErrNotFound) {
		return status.Error(codes.NotFound, notFoundMsg)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	shared.ReportError(err, map[string]interface{}{"operation": internalMsg})
	return status.Error(codes.Internal, internalMsg)
}

func subjectInfo(s *shared.Subject) *pb.SubjectInfo {
	return &pb.SubjectInfo{
		Id:       s.ID,
		Code:     s.Code,
		Name:     s.Name,
		Units:    s.Units,
		Semester: s.Semester,
	}
}

func roundSnapshot(p gradeengine.PerformanceSnapshot) gradeengine.PerformanceSnapshot {
	p.ClassStandingPercent = round2(p.ClassStandingPercent)
	p.ExamContributionPercent = round2(p.ExamContributionPercent)
	p.OverallGrade = round2(p.OverallGrade)
	return p
}

func roundBreakdown(in []gradeengine.CategoryBreakdown) []gradeengine.CategoryBreakdown {
	out := make([]gradeengine.CategoryBreakdown, len(in))
	for i, b := range in {
		b.Percent = round2(b.Percent)
		b.Weighted = round2(b.Weighted)
		out[i] = b
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
