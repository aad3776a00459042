package grade

import (
	"context"
	"sort"
	"sync"

	"plp_smartgrade/backend/internal/shared"
)

// MemoryStore is a Store held in memory. The CLI evaluates offline records
// with it, and tests use it in place of MongoDB.
type MemoryStore struct {
	mu          sync.RWMutex
	Students    map[string]shared.User
	Subjects    map[string]shared.Subject
	Categories  []shared.ScoreCategory
	Scores      []shared.ScoreRecord
	Exams       []shared.ExamRecord
	Enrollments map[string]map[string]bool // student -> subject -> enrolled
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Students:    map[string]shared.User{},
		Subjects:    map[string]shared.Subject{},
		Enrollments: map[string]map[string]bool{},
	}
}

// AddStudent stores or replaces a student
func (m *MemoryStore) AddStudent(u shared.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Students[u.ID] = u
}

// AddSubject stores or replaces a subject
func (m *MemoryStore) AddSubject(s shared.Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subjects[s.ID] = s
}

// Enroll links a student to a subject
func (m *MemoryStore) Enroll(studentID, subjectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Enrollments[studentID] == nil {
		m.Enrollments[studentID] = map[string]bool{}
	}
	m.Enrollments[studentID][subjectID] = true
}

// AddCategories appends score categories
func (m *MemoryStore) AddCategories(c ...shared.ScoreCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Categories = append(m.Categories, c...)
}

// AddScores appends scores
func (m *MemoryStore) AddScores(s ...shared.ScoreRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scores = append(m.Scores, s...)
}

// AddExams appends exam results
func (m *MemoryStore) AddExams(e ...shared.ExamRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exams = append(m.Exams, e...)
}

func (m *MemoryStore) GetStudent(_ context.Context, id string) (*shared.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.Students[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetSubject(_ context.Context, id string) (*shared.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.Subjects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) IsEnrolled(_ context.Context, studentID, subjectID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Enrollments[studentID][subjectID], nil
}

func (m *MemoryStore) ListEnrolledSubjects(_ context.Context, studentID, semester string) ([]shared.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.Subject
	for id := range m.Enrollments[studentID] {
		s, ok := m.Subjects[id]
		if !ok || (semester != "" && s.Semester != semester) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) ListEnrolledStudents(_ context.Context, subjectID string) ([]shared.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.User
	for studentID, subjects := range m.Enrollments {
		if !subjects[subjectID] {
			continue
		}
		if u, ok := m.Students[studentID]; ok && u.Role == shared.RoleStudent {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) ListCategories(_ context.Context, subjectID string) ([]shared.ScoreCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.ScoreCategory
	for _, c := range m.Categories {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MemoryStore) ListScores(_ context.Context, studentID, subjectID string) ([]shared.ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.ScoreRecord
	for _, s := range m.Scores {
		if s.StudentID == studentID && s.SubjectID == subjectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListExams(_ context.Context, studentID, subjectID string) ([]shared.ExamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.ExamRecord
	for _, e := range m.Exams {
		if e.StudentID == studentID && e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}
