package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-competition-service/internal/domain"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// Store persists departments, participants, results and contact messages with bun.
type Store struct {
	db *bun.DB
}

// Open connects bun to Postgres using the pgdriver connector.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	var rows []departmentModel
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	out := make([]domain.Department, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (s *Store) GetDepartmentByName(ctx context.Context, name string) (domain.Department, error) {
	var row departmentModel
	err := s.db.NewSelect().Model(&row).Where("name = ?", name).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Department{}, domain.ErrDepartmentNotFound
	}
	if err != nil {
		return domain.Department{}, fmt.Errorf("get department: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) EnsureDepartment(ctx context.Context, name string) (domain.Department, error) {
	row := departmentModel{Name: name}
	if _, err := s.db.NewInsert().Model(&row).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
		return domain.Department{}, fmt.Errorf("insert department: %w", err)
	}
	return s.GetDepartmentByName(ctx, name)
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	if question.DepartmentID == nil && question.Department != "" {
		d, err := s.GetDepartmentByName(ctx, question.Department)
		if err != nil {
			return err
		}
		question.DepartmentID = &d.ID
	}
	if err := question.Validate(); err != nil {
		return err
	}
	row := newQuestionModel(*question)
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	question.ID = row.ID
	return nil
}

func (s *Store) GetParticipantByMatric(ctx context.Context, matric string) (domain.Participant, error) {
	var row participantModel
	err := s.db.NewSelect().Model(&row).Where("matric = ?", matric).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateParticipant(ctx context.Context, participant *domain.Participant) error {
	row := participantModel{
		Matric:       participant.Matric,
		Name:         participant.Name,
		DepartmentID: participant.DepartmentID,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrParticipantExists
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	participant.ID = row.ID
	return nil
}

func (s *Store) SetParticipantDepartment(ctx context.Context, participantID int64, departmentID *int64) error {
	res, err := s.db.NewUpdate().
		Model((*participantModel)(nil)).
		Set("department_id = ?", departmentID).
		Where("id = ?", participantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update participant department: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

// RecordResult inserts the result and, for competition results, the matching
// competition entry in one transaction.
func (s *Store) RecordResult(ctx context.Context, result *domain.QuizResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := quizResultModel{
			ParticipantID: result.ParticipantID,
			Score:         result.Score,
			Total:         result.Total,
			Percentage:    result.Percentage,
			CreatedAt:     result.CreatedAt,
			IsCompetition: result.IsCompetition,
		}
		if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		result.ID = row.ID

		if !result.IsCompetition {
			return nil
		}
		entry := competitionEntryModel{ParticipantID: result.ParticipantID, CreatedAt: result.CreatedAt}
		if _, err := tx.NewInsert().Model(&entry).Exec(ctx); err != nil {
			return fmt.Errorf("insert competition entry: %w", err)
		}
		return nil
	})
}

func (s *Store) Leaderboard(ctx context.Context, department string) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	q := s.db.NewSelect().
		TableExpr("quiz_results AS r").
		ColumnExpr("r.id AS result_id, p.name, p.matric, COALESCE(d.name, '') AS department").
		ColumnExpr("r.score, r.total, r.percentage, r.created_at").
		Join("JOIN participants AS p ON p.id = r.participant_id").
		Join("LEFT JOIN departments AS d ON d.id = p.department_id").
		OrderExpr("r.percentage DESC, r.id DESC")
	if department != "" {
		q = q.Where("d.name = ?", department)
	}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	out := make([]domain.LeaderboardEntry, len(rows))
	for i, row := range rows {
		out[i] = domain.LeaderboardEntry{
			ResultID:   row.ResultID,
			Name:       row.Name,
			Matric:     row.Matric,
			Department: row.Department,
			Score:      row.Score,
			Total:      row.Total,
			Percentage: row.Percentage,
			CreatedAt:  row.CreatedAt,
		}
	}
	return out, nil
}

func (s *Store) CreateContactMessage(ctx context.Context, msg *domain.ContactMessage) error {
	if msg.SubmittedAt.IsZero() {
		msg.SubmittedAt = time.Now()
	}
	row := contactMessageModel{
		Name:        msg.Name,
		Email:       msg.Email,
		Message:     msg.Message,
		SubmittedAt: msg.SubmittedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	msg.ID = row.ID
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
