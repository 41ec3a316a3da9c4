package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-competition-service/internal/domain"
)

// Store keeps the whole catalog in process memory (useful for tests/demos).
// It implements every repository the app layer needs.
type Store struct {
	clock func() time.Time

	mu           sync.RWMutex
	nextID       int64
	departments  map[int64]domain.Department
	questions    map[int64]domain.Question
	participants map[int64]domain.Participant
	results      []domain.QuizResult
	entries      []domain.CompetitionEntry
	contacts     []domain.ContactMessage
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:        now,
		departments:  make(map[int64]domain.Department),
		questions:    make(map[int64]domain.Question),
		participants: make(map[int64]domain.Participant),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) ListDepartments(_ context.Context) ([]domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetDepartmentByName(_ context.Context, name string) (domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.departmentByNameLocked(name); ok {
		return d, nil
	}
	return domain.Department{}, domain.ErrDepartmentNotFound
}

func (s *Store) EnsureDepartment(_ context.Context, name string) (domain.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.departmentByNameLocked(name); ok {
		return d, nil
	}
	d := domain.Department{ID: s.id(), Name: name}
	s.departments[d.ID] = d
	return d, nil
}

func (s *Store) departmentByNameLocked(name string) (domain.Department, bool) {
	for _, d := range s.departments {
		if d.Name == name {
			return d, true
		}
	}
	return domain.Department{}, false
}

func (s *Store) CreateQuestion(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if question.DepartmentID == nil && question.Department != "" {
		d, ok := s.departmentByNameLocked(question.Department)
		if !ok {
			return domain.ErrDepartmentNotFound
		}
		question.DepartmentID = &d.ID
	}
	if err := question.Validate(); err != nil {
		return err
	}
	if question.DepartmentID != nil {
		d, ok := s.departments[*question.DepartmentID]
		if !ok {
			return domain.ErrDepartmentNotFound
		}
		question.Department = d.Name
	}
	question.ID = s.id()
	s.questions[question.ID] = *question
	return nil
}

func (s *Store) ListQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if filter.Type != "" && q.Type != filter.Type {
			continue
		}
		if filter.DepartmentID != nil && (q.DepartmentID == nil || *q.DepartmentID != *filter.DepartmentID) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[id]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *Store) GetParticipantByMatric(_ context.Context, matric string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.participantByMatricLocked(matric); ok {
		return p, nil
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (s *Store) participantByMatricLocked(matric string) (domain.Participant, bool) {
	for _, p := range s.participants {
		if p.Matric == matric {
			return p, true
		}
	}
	return domain.Participant{}, false
}

func (s *Store) CreateParticipant(_ context.Context, participant *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participantByMatricLocked(participant.Matric); ok {
		return domain.ErrParticipantExists
	}
	participant.ID = s.id()
	s.participants[participant.ID] = *participant
	return nil
}

func (s *Store) SetParticipantDepartment(_ context.Context, participantID int64, departmentID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.DepartmentID = departmentID
	s.participants[participantID] = p
	return nil
}

// Participant returns a participant by id.
func (s *Store) Participant(id int64) (domain.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	return p, ok
}

func (s *Store) RecordResult(_ context.Context, result *domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[result.ParticipantID]; !ok {
		return domain.ErrParticipantNotFound
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.clock()
	}
	result.ID = s.id()
	s.results = append(s.results, *result)
	if result.IsCompetition {
		s.entries = append(s.entries, domain.CompetitionEntry{
			ID:            s.id(),
			ParticipantID: result.ParticipantID,
			CreatedAt:     result.CreatedAt,
		})
	}
	return nil
}

func (s *Store) Leaderboard(_ context.Context, department string) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeaderboardEntry, 0, len(s.results))
	for _, r := range s.results {
		p := s.participants[r.ParticipantID]
		deptName := ""
		if p.DepartmentID != nil {
			deptName = s.departments[*p.DepartmentID].Name
		}
		if department != "" && deptName != department {
			continue
		}
		out = append(out, domain.LeaderboardEntry{
			ResultID:   r.ID,
			Name:       p.Name,
			Matric:     p.Matric,
			Department: deptName,
			Score:      r.Score,
			Total:      r.Total,
			Percentage: r.Percentage,
			CreatedAt:  r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].ResultID > out[j].ResultID
	})
	return out, nil
}

// Results returns a copy of every stored result in insertion order.
func (s *Store) Results() []domain.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizResult(nil), s.results...)
}

// CompetitionEntries returns a copy of every competition entry.
func (s *Store) CompetitionEntries() []domain.CompetitionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CompetitionEntry(nil), s.entries...)
}

func (s *Store) CreateContactMessage(_ context.Context, msg *domain.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.SubmittedAt.IsZero() {
		msg.SubmittedAt = s.clock()
	}
	msg.ID = s.id()
	s.contacts = append(s.contacts, *msg)
	return nil
}

// ContactMessages returns a copy of every stored contact message.
func (s *Store) ContactMessages() []domain.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ContactMessage(nil), s.contacts...)
}
