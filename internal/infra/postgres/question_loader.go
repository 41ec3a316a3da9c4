package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-competition-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const questionColumns = `q.id, q.text, q.option1, q.option2, q.option3, q.option4, q.answer,
	q.department_id, COALESCE(d.name, ''), q.question_type`

const questionFrom = `FROM questions q LEFT JOIN departments d ON d.id = q.department_id`

// QuestionLoader reads question pools straight from Postgres over pgx.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) ListQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	query := `SELECT ` + questionColumns + ` ` + questionFrom + ` WHERE q.question_type = $1`
	args := []interface{}{string(filter.Type)}
	if filter.DepartmentID != nil {
		query += ` AND q.department_id = $2`
		args = append(args, *filter.DepartmentID)
	}
	query += ` ORDER BY q.id`

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

func (l *QuestionLoader) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+questionColumns+` `+questionFrom+` WHERE q.id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q   domain.Question
		typ string
	)
	err := row.Scan(&q.ID, &q.Text, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
		&q.Answer, &q.DepartmentID, &q.Department, &typ)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, err
		}
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.Type = domain.QuestionType(typ)
	return q, nil
}
