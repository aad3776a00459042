package admin

import (
	"context"
	"sort"
	"sync"
	"time"

	"plp_smartgrade/backend/internal/shared"
)

// fakeStore is an in-memory Store for tests
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]shared.User
	subjects    map[string]shared.Subject
	categories  map[string]shared.ScoreCategory
	scores      map[string]shared.ScoreRecord
	exams       map[string]shared.ExamRecord
	enrollments map[string]shared.Enrollment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]shared.User{},
		subjects:    map[string]shared.Subject{},
		categories:  map[string]shared.ScoreCategory{},
		scores:      map[string]shared.ScoreRecord{},
		exams:       map[string]shared.ExamRecord{},
		enrollments: map[string]shared.Enrollment{},
	}
}

func enrollmentKey(studentID, subjectID string) string { return studentID + "|" + subjectID }

func (f *fakeStore) CreateUser(_ context.Context, u *shared.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return shared.ErrConflict
		}
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *shared.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return shared.ErrNotFound
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.users, id)
	for k, e := range f.enrollments {
		if e.StudentID == id {
			delete(f.enrollments, k)
		}
	}
	for k, s := range f.scores {
		if s.StudentID == id {
			delete(f.scores, k)
		}
	}
	for k, e := range f.exams {
		if e.StudentID == id {
			delete(f.exams, k)
		}
	}
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*shared.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) ListUsers(_ context.Context, role string) ([]shared.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.User
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) CreateSubject(_ context.Context, s *shared.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.subjects {
		if existing.Code == s.Code && existing.Semester == s.Semester {
			return shared.ErrConflict
		}
	}
	f.subjects[s.ID] = *s
	return nil
}

func (f *fakeStore) UpdateSubject(_ context.Context, s *shared.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subjects[s.ID]; !ok {
		return shared.ErrNotFound
	}
	f.subjects[s.ID] = *s
	return nil
}

func (f *fakeStore) DeleteSubject(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subjects[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.subjects, id)
	for k, c := range f.categories {
		if c.SubjectID == id {
			delete(f.categories, k)
		}
	}
	for k, e := range f.enrollments {
		if e.SubjectID == id {
			delete(f.enrollments, k)
		}
	}
	for k, s := range f.scores {
		if s.SubjectID == id {
			delete(f.scores, k)
		}
	}
	for k, e := range f.exams {
		if e.SubjectID == id {
			delete(f.exams, k)
		}
	}
	return nil
}

func (f *fakeStore) GetSubject(_ context.Context, id string) (*shared.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subjects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStore) ListSubjects(_ context.Context, semester string) ([]shared.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.Subject
	for _, s := range f.subjects {
		if semester == "" || s.Semester == semester {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeStore) SaveCategory(_ context.Context, c *shared.ScoreCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[c.ID] = *c
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.categories, id)
	for k, s := range f.scores {
		if s.CategoryID == id {
			delete(f.scores, k)
		}
	}
	return nil
}

func (f *fakeStore) GetCategory(_ context.Context, id string) (*shared.ScoreCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListCategories(_ context.Context, subjectID string) ([]shared.ScoreCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.ScoreCategory
	for _, c := range f.categories {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) SaveScore(_ context.Context, s *shared.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[s.ID] = *s
	return nil
}

func (f *fakeStore) DeleteScore(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scores[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.scores, id)
	return nil
}

func (f *fakeStore) ListScores(_ context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.ScoreRecord
	for _, s := range f.scores {
		if s.StudentID == studentID && s.SubjectID == subjectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeStore) SaveExam(_ context.Context, e *shared.ExamRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.exams {
		if existing.StudentID == e.StudentID && existing.SubjectID == e.SubjectID && existing.Type == e.Type {
			e.ID = id
		}
	}
	f.exams[e.ID] = *e
	return nil
}

func (f *fakeStore) ListExams(_ context.Context, studentID, subjectID string) ([]shared.ExamRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.ExamRecord
	for _, e := range f.exams {
		if e.StudentID == studentID && e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (f *fakeStore) CreateEnrollment(_ context.Context, e *shared.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := enrollmentKey(e.StudentID, e.SubjectID)
	if _, ok := f.enrollments[key]; ok {
		return shared.ErrConflict
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	f.enrollments[key] = *e
	return nil
}

func (f *fakeStore) DeleteEnrollment(_ context.Context, studentID, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := enrollmentKey(studentID, subjectID)
	if _, ok := f.enrollments[key]; !ok {
		return shared.ErrNotFound
	}
	delete(f.enrollments, key)
	return nil
}

func (f *fakeStore) IsEnrolled(_ context.Context, studentID, subjectID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.enrollments[enrollmentKey(studentID, subjectID)]
	return ok, nil
}

func (f *fakeStore) ListEnrollments(_ context.Context, subjectID string) ([]shared.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.Enrollment
	for _, e := range f.enrollments {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}
