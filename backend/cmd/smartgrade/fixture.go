package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"plp_smartgrade/backend/internal/admin"
	"plp_smartgrade/backend/internal/grade"
	"plp_smartgrade/backend/internal/shared"
)

//go:embed demo.yaml
var demoFixture []byte

// Fixture is a YAML description of accounts, subjects and records.
// Records refer to students, subjects and categories by key.
type Fixture struct {
	Admins      []FixtureUser       `yaml:"admins"`
	Students    []FixtureUser       `yaml:"students"`
	Subjects    []FixtureSubject    `yaml:"subjects"`
	Enrollments []FixtureEnrollment `yaml:"enrollments"`
	Scores      []FixtureScore      `yaml:"scores"`
	Exams       []FixtureExam       `yaml:"exams"`
}

type FixtureUser struct {
	Key           string `yaml:"key"`
	Email         string `yaml:"email"`
	Name          string `yaml:"name"`
	StudentNumber string `yaml:"student_number"`
	Program       string `yaml:"program"`
	YearLevel     int32  `yaml:"year_level"`
	Section       string `yaml:"section"`
}

type FixtureSubject struct {
	Key        string            `yaml:"key"`
	Code       string            `yaml:"code"`
	Name       string            `yaml:"name"`
	Units      int32             `yaml:"units"`
	Semester   string            `yaml:"semester"`
	Categories []FixtureCategory `yaml:"categories"`
}

type FixtureCategory struct {
	Key    string  `yaml:"key"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

type FixtureEnrollment struct {
	Student string `yaml:"student"`
	Subject string `yaml:"subject"`
}

type FixtureScore struct {
	Student     string    `yaml:"student"`
	Subject     string    `yaml:"subject"`
	Category    string    `yaml:"category"`
	Name        string    `yaml:"name"`
	Value       float64   `yaml:"value"`
	Max         float64   `yaml:"max"`
	SubmittedAt time.Time `yaml:"submitted_at"`
}

type FixtureExam struct {
	Student string  `yaml:"student"`
	Subject string  `yaml:"subject"`
	Type    string  `yaml:"type"`
	Value   float64 `yaml:"value"`
	Max     float64 `yaml:"max"`
}

// LoadFixture reads a fixture file, or the built-in demo when path is empty
func LoadFixture(path string) (*Fixture, error) {
	data := demoFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading fixture: %w", err)
		}
		data = b
	}
	return ParseFixture(data)
}

// ParseFixture decodes a fixture and checks that every reference resolves
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) check() error {
	students := map[string]bool{}
	for _, s := range f.Students {
		students[s.Key] = true
	}
	subjects := map[string]bool{}
	categories := map[string]string{} // category -> subject
	for _, s := range f.Subjects {
		subjects[s.Key] = true
		for _, c := range s.Categories {
			categories[c.Key] = s.Key
		}
	}

	ref := func(kind, key string, known map[string]bool) error {
		if !known[key] {
			return fmt.Errorf("%w: unknown %s %q", shared.ErrInvalidInput, kind, key)
		}
		return nil
	}

	for _, e := range f.Enrollments {
		if err := ref("student", e.Student, students); err != nil {
			return err
		}
		if err := ref("subject", e.Subject, subjects); err != nil {
			return err
		}
	}
	for _, s := range f.Scores {
		if err := ref("student", s.Student, students); err != nil {
			return err
		}
		if err := ref("subject", s.Subject, subjects); err != nil {
			return err
		}
		if categories[s.Category] != s.Subject {
			return fmt.Errorf("%w: category %q is not part of subject %q", shared.ErrInvalidInput, s.Category, s.Subject)
		}
	}
	for _, e := range f.Exams {
		if err := ref("student", e.Student, students); err != nil {
			return err
		}
		if err := ref("subject", e.Subject, subjects); err != nil {
			return err
		}
		if !shared.IsValidExamType(e.Type) {
			return fmt.Errorf("%w: exam type %q", shared.ErrInvalidInput, e.Type)
		}
	}
	return nil
}

// MemoryStore loads the fixture into a grade store, using keys as IDs
func (f *Fixture) MemoryStore() *grade.MemoryStore {
	store := grade.NewMemoryStore()
	for _, u := range f.Students {
		store.AddStudent(shared.User{
			ID:            u.Key,
			Email:         u.Email,
			Name:          u.Name,
			Role:          shared.RoleStudent,
			StudentNumber: u.StudentNumber,
			Program:       u.Program,
			YearLevel:     u.YearLevel,
			Section:       u.Section,
			IsActive:      true,
		})
	}
	for _, s := range f.Subjects {
		store.AddSubject(shared.Subject{ID: s.Key, Code: s.Code, Name: s.Name, Units: s.Units, Semester: s.Semester})
		for i, c := range s.Categories {
			store.AddCategories(shared.ScoreCategory{ID: c.Key, SubjectID: s.Key, Name: c.Name, WeightPercent: c.Weight, Position: int32(i)})
		}
	}
	for _, e := range f.Enrollments {
		store.Enroll(e.Student, e.Subject)
	}
	for i, s := range f.Scores {
		store.AddScores(shared.ScoreRecord{
			ID:          fmt.Sprintf("score_%d", i+1),
			StudentID:   s.Student,
			SubjectID:   s.Subject,
			CategoryID:  s.Category,
			Name:        s.Name,
			Value:       s.Value,
			MaxValue:    s.Max,
			SubmittedAt: s.SubmittedAt,
		})
	}
	for i, e := range f.Exams {
		store.AddExams(shared.ExamRecord{
			ID:        fmt.Sprintf("exam_%d", i+1),
			StudentID: e.Student,
			SubjectID: e.Subject,
			Type:      e.Type,
			Value:     e.Value,
			MaxValue:  e.Max,
		})
	}
	return store
}

// seedTarget is the part of admin.Service seeding calls
type seedTarget interface {
	CreateAdmin(ctx context.Context, actorID string, in admin.UserInput) (*shared.User, error)
	CreateStudent(ctx context.Context, actorID string, in admin.UserInput) (*shared.User, error)
	CreateSubject(ctx context.Context, actorID string, in admin.SubjectInput) (*shared.Subject, error)
	SaveCategory(ctx context.Context, actorID, subjectID string, in admin.CategoryInput) (*shared.ScoreCategory, error)
	Enroll(ctx context.Context, actorID string, in admin.EnrollmentInput) (*shared.Enrollment, error)
	RecordScore(ctx context.Context, actorID string, in admin.ScoreInput) (*shared.ScoreRecord, error)
	RecordExam(ctx context.Context, actorID string, in admin.ExamInput) (*shared.ExamRecord, error)
}

// SeedResult counts what Seed created
type SeedResult struct {
	Admins      int `json:"admins"`
	Students    int `json:"students"`
	Subjects    int `json:"subjects"`
	Categories  int `json:"categories"`
	Enrollments int `json:"enrollments"`
	Scores      int `json:"scores"`
	Exams       int `json:"exams"`
}

// Seed creates the fixture through the admin service so every record passes
// the same validation as the portal. The first admin is the actor of the rest.
func Seed(ctx context.Context, svc seedTarget, f *Fixture, actor string) (*SeedResult, error) {
	var res SeedResult
	userIDs := map[string]string{}
	subjectIDs := map[string]string{}
	categoryIDs := map[string]string{}

	for _, a := range f.Admins {
		u, err := svc.CreateAdmin(ctx, actor, userInput(a))
		if err != nil {
			return &res, fmt.Errorf("admin %s: %w", a.Key, err)
		}
		if res.Admins == 0 {
			actor = u.ID
		}
		res.Admins++
	}

	for _, s := range f.Students {
		u, err := svc.CreateStudent(ctx, actor, userInput(s))
		if err != nil {
			return &res, fmt.Errorf("student %s: %w", s.Key, err)
		}
		userIDs[s.Key] = u.ID
		res.Students++
	}

	for _, s := range f.Subjects {
		subject, err := svc.CreateSubject(ctx, actor, admin.SubjectInput{
			Code:     s.Code,
			Name:     s.Name,
			Units:    s.Units,
			Semester: s.Semester,
		})
		if err != nil {
			return &res, fmt.Errorf("subject %s: %w", s.Key, err)
		}
		subjectIDs[s.Key] = subject.ID
		res.Subjects++

		for _, c := range s.Categories {
			cat, err := svc.SaveCategory(ctx, actor, subject.ID, admin.CategoryInput{Name: c.Name, WeightPercent: c.Weight})
			if err != nil {
				return &res, fmt.Errorf("category %s: %w", c.Key, err)
			}
			categoryIDs[c.Key] = cat.ID
			res.Categories++
		}
	}

	for _, e := range f.Enrollments {
		if _, err := svc.Enroll(ctx, actor, admin.EnrollmentInput{
			StudentID: userIDs[e.Student],
			SubjectID: subjectIDs[e.Subject],
		}); err != nil {
			return &res, fmt.Errorf("enrolling %s in %s: %w", e.Student, e.Subject, err)
		}
		res.Enrollments++
	}

	for _, s := range f.Scores {
		if _, err := svc.RecordScore(ctx, actor, admin.ScoreInput{
			StudentID:   userIDs[s.Student],
			SubjectID:   subjectIDs[s.Subject],
			CategoryID:  categoryIDs[s.Category],
			Name:        s.Name,
			Value:       s.Value,
			MaxValue:    s.Max,
			SubmittedAt: s.SubmittedAt,
		}); err != nil {
			return &res, fmt.Errorf("score of %s in %s: %w", s.Student, s.Category, err)
		}
		res.Scores++
	}

	for _, e := range f.Exams {
		if _, err := svc.RecordExam(ctx, actor, admin.ExamInput{
			StudentID: userIDs[e.Student],
			SubjectID: subjectIDs[e.Subject],
			Type:      e.Type,
			Value:     e.Value,
			MaxValue:  e.Max,
		}); err != nil {
			return &res, fmt.Errorf("%s exam of %s: %w", e.Type, e.Student, err)
		}
		res.Exams++
	}

	return &res, nil
}

func userInput(u FixtureUser) admin.UserInput {
	return admin.UserInput{
		Email:         u.Email,
		Name:          u.Name,
		StudentNumber: u.StudentNumber,
		Program:       u.Program,
		YearLevel:     u.YearLevel,
		Section:       u.Section,
	}
}
