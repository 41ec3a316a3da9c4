package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/validation"
)

// ResultRepository stores quiz results and serves the leaderboard.
type ResultRepository interface {
	// RecordResult appends a result; competition results also get a CompetitionEntry.
	RecordResult(ctx context.Context, result *domain.QuizResult) error
	// Leaderboard returns results ordered by percentage desc, then newest first.
	// An empty department means every department.
	Leaderboard(ctx context.Context, department string) ([]domain.LeaderboardEntry, error)
}

// AllDepartments is the leaderboard filter value that disables filtering.
const AllDepartments = "all"

// ResultSubmission is a score reported by the client-side quiz.
type ResultSubmission struct {
	Matric      string   `json:"matric" validate:"required,max=30"`
	Name        string   `json:"name" validate:"required,max=150"`
	Field       string   `json:"field" validate:"max=100"`
	Score       int      `json:"score" validate:"min=0,ltefield=Total"`
	Total       int      `json:"total" validate:"min=0"`
	Percentage  *float64 `json:"percentage"` // accepted for compatibility, recomputed server-side
	Competition bool     `json:"competition"`
}

// ResultService records client-reported results and reads the leaderboard.
type ResultService struct {
	departments  DepartmentRepository
	participants *ParticipantDirectory
	results      ResultRepository
	now          func() time.Time
}

func NewResultService(departments DepartmentRepository, participants *ParticipantDirectory, results ResultRepository) *ResultService {
	return &ResultService{
		departments:  departments,
		participants: participants,
		results:      results,
		now:          time.Now,
	}
}

// Submit validates a submission and appends one result row for it.
func (s *ResultService) Submit(ctx context.Context, in ResultSubmission) (domain.QuizResult, error) {
	in.Matric = NormalizeMatric(in.Matric)
	in.Name = strings.TrimSpace(in.Name)
	in.Field = strings.TrimSpace(in.Field)
	if err := validation.Struct(in, "Invalid result submission."); err != nil {
		return domain.QuizResult{}, err
	}

	var departmentID *int64
	if in.Field != "" {
		department, err := s.departments.GetDepartmentByName(ctx, in.Field)
		switch {
		case err == nil:
			departmentID = &department.ID
		case errors.Is(err, domain.ErrDepartmentNotFound):
			// unknown field: participant is stored without a department
		default:
			return domain.QuizResult{}, fmt.Errorf("resolve department: %w", err)
		}
	}

	participant, err := s.participants.Upsert(ctx, in.Matric, in.Name, departmentID)
	if err != nil {
		return domain.QuizResult{}, err
	}

	result := domain.QuizResult{
		ParticipantID: participant.ID,
		Score:         in.Score,
		Total:         in.Total,
		Percentage:    domain.Percentage(in.Score, in.Total),
		CreatedAt:     s.now(),
		IsCompetition: in.Competition,
	}
	if err := s.results.RecordResult(ctx, &result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("record result: %w", err)
	}
	return result, nil
}

// Leaderboard lists results for one department, or all of them when field is
// empty or "all".
func (s *ResultService) Leaderboard(ctx context.Context, field string) ([]domain.LeaderboardEntry, error) {
	field = strings.TrimSpace(field)
	if strings.EqualFold(field, AllDepartments) {
		field = ""
	}
	return s.results.Leaderboard(ctx, field)
}
