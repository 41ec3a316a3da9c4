package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-competition-service/internal/domain"
)

// QuestionSource reads the question bank.
type QuestionSource interface {
	ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
}

// Selector draws randomized question sets from the bank.
type Selector struct {
	questions QuestionSource

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector(questions QuestionSource) *Selector {
	return NewSelectorWithRand(questions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSelectorWithRand lets tests pin the random sequence.
func NewSelectorWithRand(questions QuestionSource, rnd *rand.Rand) *Selector {
	return &Selector{questions: questions, rnd: rnd}
}

// Select serves the question API. With a department only that department's
// DEPT questions are drawn, and an empty pool yields an empty set; general
// questions are never used as filler. Without a department numDept DEPT
// questions (any department) and numGen GEN questions are drawn.
func (s *Selector) Select(ctx context.Context, department *domain.Department, numDept, numGen int) ([]domain.Question, error) {
	if department != nil {
		deptPool, err := s.pool(ctx, domain.QuestionTypeDepartmental, &department.ID)
		if err != nil {
			return nil, err
		}
		if len(deptPool) == 0 {
			return []domain.Question{}, nil
		}
		return s.draw(deptPool, numDept, nil, 0), nil
	}

	deptPool, err := s.pool(ctx, domain.QuestionTypeDepartmental, nil)
	if err != nil {
		return nil, err
	}
	genPool, err := s.pool(ctx, domain.QuestionTypeGeneral, nil)
	if err != nil {
		return nil, err
	}
	return s.draw(deptPool, numDept, genPool, numGen), nil
}

// SelectForAttempt builds the question list of a quiz attempt: DEPT questions
// of the participant's department followed by GEN questions, shuffled together.
func (s *Selector) SelectForAttempt(ctx context.Context, department domain.Department, numDept, numGen int) ([]domain.Question, error) {
	deptPool, err := s.pool(ctx, domain.QuestionTypeDepartmental, &department.ID)
	if err != nil {
		return nil, err
	}
	genPool, err := s.pool(ctx, domain.QuestionTypeGeneral, nil)
	if err != nil {
		return nil, err
	}
	return s.draw(deptPool, numDept, genPool, numGen), nil
}

func (s *Selector) pool(ctx context.Context, typ domain.QuestionType, departmentID *int64) ([]domain.Question, error) {
	questions, err := s.questions.ListQuestions(ctx, domain.QuestionFilter{Type: typ, DepartmentID: departmentID})
	if err != nil {
		return nil, fmt.Errorf("list %s questions: %w", typ, err)
	}
	return questions, nil
}

// draw samples each pool without replacement and shuffles the concatenation.
func (s *Selector) draw(first []domain.Question, n int, second []domain.Question, m int) []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Question, 0, clamp(n, len(first))+clamp(m, len(second)))
	out = s.sampleLocked(out, first, n)
	out = s.sampleLocked(out, second, m)
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (s *Selector) sampleLocked(dst, pool []domain.Question, n int) []domain.Question {
	k := clamp(n, len(pool))
	if k == 0 {
		return dst
	}
	seen := make(map[int64]struct{}, k)
	for _, idx := range s.rnd.Perm(len(pool)) {
		if len(seen) == k {
			break
		}
		q := pool[idx]
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		dst = append(dst, q)
	}
	return dst
}

func clamp(n, available int) int {
	if n < 0 {
		return 0
	}
	if n > available {
		return available
	}
	return n
}
