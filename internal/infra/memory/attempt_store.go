package memory

import (
	"context"
	"sync"

	"quiz-competition-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore.
// Attempts are copied in and out so callers never share slices with the store.
type AttemptStore struct {
	mu       sync.Mutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]domain.Attempt),
	}
}

func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; ok {
		return domain.ErrConflict
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) Update(_ context.Context, id string, fn func(*domain.Attempt) error) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	next := cloneAttempt(current)
	if err := fn(&next); err != nil {
		return domain.Attempt{}, err
	}
	s.attempts[id] = next
	return cloneAttempt(next), nil
}

func (s *AttemptStore) Take(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	delete(s.attempts, id)
	return attempt, nil
}

// Len reports how many attempts are open.
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func cloneAttempt(a domain.Attempt) domain.Attempt {
	a.QuestionIDs = append([]int64(nil), a.QuestionIDs...)
	return a
}
