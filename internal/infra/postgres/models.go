package postgres

import (
	"time"

	"quiz-competition-service/internal/domain"

	"github.com/uptrace/bun"
)

type departmentModel struct {
	bun.BaseModel `bun:"table:departments,alias:d"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

func (m departmentModel) toDomain() domain.Department {
	return domain.Department{ID: m.ID, Name: m.Name}
}

type participantModel struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Matric       string `bun:"matric,notnull,unique"`
	Name         string `bun:"name,notnull"`
	DepartmentID *int64 `bun:"department_id"`
}

func (m participantModel) toDomain() domain.Participant {
	return domain.Participant{ID: m.ID, Matric: m.Matric, Name: m.Name, DepartmentID: m.DepartmentID}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Text         string `bun:"text,notnull"`
	Option1      string `bun:"option1,notnull"`
	Option2      string `bun:"option2,notnull"`
	Option3      string `bun:"option3,notnull"`
	Option4      string `bun:"option4,notnull"`
	Answer       string `bun:"answer,notnull"`
	DepartmentID *int64 `bun:"department_id"`
	QuestionType string `bun:"question_type,notnull"`
}

func newQuestionModel(q domain.Question) questionModel {
	return questionModel{
		Text:         q.Text,
		Option1:      q.Options[0],
		Option2:      q.Options[1],
		Option3:      q.Options[2],
		Option4:      q.Options[3],
		Answer:       q.Answer,
		DepartmentID: q.DepartmentID,
		QuestionType: string(q.Type),
	}
}

type quizResultModel struct {
	bun.BaseModel `bun:"table:quiz_results,alias:r"`

	ID            int64     `bun:"id,pk,autoincrement"`
	ParticipantID int64     `bun:"participant_id,notnull"`
	Score         int       `bun:"score,notnull"`
	Total         int       `bun:"total,notnull"`
	Percentage    float64   `bun:"percentage,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	IsCompetition bool      `bun:"is_competition,notnull"`
}

type competitionEntryModel struct {
	bun.BaseModel `bun:"table:competition_entries,alias:ce"`

	ID            int64     `bun:"id,pk,autoincrement"`
	ParticipantID int64     `bun:"participant_id,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type contactMessageModel struct {
	bun.BaseModel `bun:"table:contact_messages,alias:cm"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Email       string    `bun:"email,notnull"`
	Message     string    `bun:"message,notnull"`
	SubmittedAt time.Time `bun:"submitted_at,notnull,default:current_timestamp"`
}

// leaderboardRow is the flattened join scanned by Store.Leaderboard.
type leaderboardRow struct {
	ResultID   int64     `bun:"result_id"`
	Name       string    `bun:"name"`
	Matric     string    `bun:"matric"`
	Department string    `bun:"department"`
	Score      int       `bun:"score"`
	Total      int       `bun:"total"`
	Percentage float64   `bun:"percentage"`
	CreatedAt  time.Time `bun:"created_at"`
}
