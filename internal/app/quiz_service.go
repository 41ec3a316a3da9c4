package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/validation"

	"github.com/google/uuid"
)

// DepartmentRepository resolves departments by name.
type DepartmentRepository interface {
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	GetDepartmentByName(ctx context.Context, name string) (domain.Department, error)
}

// AttemptStore keeps in-progress attempts addressable by id (in-memory, Redis, etc).
type AttemptStore interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, id string) (domain.Attempt, error)
	// Update applies fn atomically with respect to other updates of the same attempt.
	// An error from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, fn func(*domain.Attempt) error) (domain.Attempt, error)
	// Take removes the attempt and returns its last state.
	Take(ctx context.Context, id string) (domain.Attempt, error)
}

// Default question counts of an attempt.
const (
	DefaultDepartmentQuestions = 5
	DefaultGeneralQuestions    = 5
)

// QuizDeps wires the collaborators of QuizService.
type QuizDeps struct {
	Departments  DepartmentRepository
	Questions    QuestionSource
	Participants *ParticipantDirectory
	Results      ResultRepository
	Attempts     AttemptStore
	Selector     *Selector
}

// QuizService runs the login -> question -> answer -> result flow.
type QuizService struct {
	departments  DepartmentRepository
	questions    QuestionSource
	participants *ParticipantDirectory
	results      ResultRepository
	attempts     AttemptStore
	selector     *Selector

	numDept int
	numGen  int
	now     func() time.Time
	newID   func() string
}

func NewQuizService(deps QuizDeps, numDept, numGen int) *QuizService {
	return NewQuizServiceWithClock(deps, numDept, numGen, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(deps QuizDeps, numDept, numGen int, now func() time.Time) *QuizService {
	if numDept <= 0 {
		numDept = DefaultDepartmentQuestions
	}
	if numGen <= 0 {
		numGen = DefaultGeneralQuestions
	}
	return &QuizService{
		departments:  deps.Departments,
		questions:    deps.Questions,
		participants: deps.Participants,
		results:      deps.Results,
		attempts:     deps.Attempts,
		selector:     deps.Selector,
		numDept:      numDept,
		numGen:       numGen,
		now:          now,
		newID:        uuid.NewString,
	}
}

// LoginInput is the quiz login form.
type LoginInput struct {
	Name       string `json:"name" form:"name" validate:"required,max=150"`
	Matric     string `json:"matric" form:"matric" validate:"required,max=30"`
	Department string `json:"field" form:"field" validate:"required,max=100"`
}

// CurrentQuestion is the question awaiting an answer, with a 1-based position.
type CurrentQuestion struct {
	Question domain.Question
	Index    int
	Total    int
}

// AnswerOutcome reports the attempt state after an answer was graded.
type AnswerOutcome struct {
	Correct bool
	Index   int
	Score   int
	Total   int
}

// Start validates the login, upserts the participant and opens a new attempt.
func (s *QuizService) Start(ctx context.Context, in LoginInput) (domain.Attempt, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Matric = NormalizeMatric(in.Matric)
	in.Department = strings.TrimSpace(in.Department)
	if err := validation.Struct(in, "Please fill in all fields."); err != nil {
		return domain.Attempt{}, err
	}

	department, err := s.departments.GetDepartmentByName(ctx, in.Department)
	if errors.Is(err, domain.ErrDepartmentNotFound) {
		return domain.Attempt{}, &domain.ValidationError{
			Message: "Invalid department selected.",
			Fields:  map[string]string{"field": "unknown department"},
		}
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("resolve department: %w", err)
	}

	participant, err := s.participants.Upsert(ctx, in.Matric, in.Name, &department.ID)
	if err != nil {
		return domain.Attempt{}, err
	}
	// The department chosen at the latest login wins.
	if err := s.participants.Reassign(ctx, &participant, department.ID); err != nil {
		return domain.Attempt{}, err
	}

	questions, err := s.selector.SelectForAttempt(ctx, department, s.numDept, s.numGen)
	if err != nil {
		return domain.Attempt{}, err
	}
	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	attempt := domain.Attempt{
		ID:            s.newID(),
		ParticipantID: participant.ID,
		QuestionIDs:   ids,
		Index:         0,
		Score:         0,
		Total:         len(ids),
		CreatedAt:     s.now(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("store attempt: %w", err)
	}
	return attempt, nil
}

// Current returns the question at the attempt's index, or ErrAttemptComplete
// once every question has been answered.
func (s *QuizService) Current(ctx context.Context, attemptID string) (CurrentQuestion, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return CurrentQuestion{}, err
	}
	questionID, ok := attempt.CurrentQuestionID()
	if !ok {
		return CurrentQuestion{}, domain.ErrAttemptComplete
	}
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return CurrentQuestion{}, err
	}
	return CurrentQuestion{Question: question, Index: attempt.Index + 1, Total: attempt.Total}, nil
}

// Advance grades selected against the current question and moves the index on
// by exactly one. questionID must name the current question; answers aimed at
// any other question (replays, stale tabs) fail with ErrStaleAnswer and leave
// the attempt untouched.
func (s *QuizService) Advance(ctx context.Context, attemptID string, questionID int64, selected string) (AnswerOutcome, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	currentID, ok := attempt.CurrentQuestionID()
	if !ok {
		return AnswerOutcome{}, domain.ErrAttemptComplete
	}
	if questionID != currentID {
		return AnswerOutcome{}, domain.ErrStaleAnswer
	}

	question, err := s.questions.GetQuestion(ctx, currentID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	correct := question.IsCorrect(selected)

	updated, err := s.attempts.Update(ctx, attemptID, func(a *domain.Attempt) error {
		id, ok := a.CurrentQuestionID()
		if !ok {
			return domain.ErrAttemptComplete
		}
		if a.Index != attempt.Index || id != currentID {
			return domain.ErrStaleAnswer
		}
		if correct {
			a.Score++
		}
		a.Index++
		return nil
	})
	if err != nil {
		return AnswerOutcome{}, err
	}
	return AnswerOutcome{Correct: correct, Index: updated.Index, Score: updated.Score, Total: updated.Total}, nil
}

// Finalize closes the attempt and stores its result. Finalizing before every
// question is answered records the partial score.
func (s *QuizService) Finalize(ctx context.Context, attemptID string) (domain.Outcome, error) {
	attempt, err := s.attempts.Take(ctx, attemptID)
	if err != nil {
		return domain.Outcome{}, err
	}

	outcome := domain.Outcome{
		Score:      attempt.Score,
		Total:      attempt.Total,
		Percentage: domain.Percentage(attempt.Score, attempt.Total),
	}
	result := &domain.QuizResult{
		ParticipantID: attempt.ParticipantID,
		Score:         outcome.Score,
		Total:         outcome.Total,
		Percentage:    outcome.Percentage,
		CreatedAt:     s.now(),
	}
	if err := s.results.RecordResult(ctx, result); err != nil {
		// Put the attempt back so the caller can retry the finalize.
		if restoreErr := s.attempts.Create(ctx, attempt); restoreErr != nil {
			return domain.Outcome{}, fmt.Errorf("record result: %w (restore attempt: %v)", err, restoreErr)
		}
		return domain.Outcome{}, fmt.Errorf("record result: %w", err)
	}
	return outcome, nil
}
