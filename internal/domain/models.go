package domain

import (
	"strings"
	"time"
)

// QuestionType distinguishes department-specific questions from the general pool.
type QuestionType string

const (
	QuestionTypeDepartmental QuestionType = "DEPT"
	QuestionTypeGeneral      QuestionType = "GEN"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	return t == QuestionTypeDepartmental || t == QuestionTypeGeneral
}

// OptionCount is the fixed number of choices every question carries.
const OptionCount = 4

// Department groups participants and departmental questions.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Participant is a quiz taker identified by matriculation number.
type Participant struct {
	ID           int64
	Matric       string
	Name         string
	DepartmentID *int64
}

// Question models a four-option multiple choice question.
type Question struct {
	ID           int64
	Text         string
	Options      [OptionCount]string
	Answer       string
	DepartmentID *int64
	Department   string // department name, empty for general questions
	Type         QuestionType
}

// IsCorrect grades a selected option. Comparison is exact and case-sensitive.
func (q Question) IsCorrect(selected string) bool {
	return selected == q.Answer
}

// Validate checks the invariants a question must satisfy before it is stored.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return invalidQuestion("text is required")
	}
	if !q.Type.Valid() {
		return invalidQuestion("unknown question type %q", q.Type)
	}
	answerListed := false
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return invalidQuestion("option %d is empty", i+1)
		}
		if opt == q.Answer {
			answerListed = true
		}
	}
	if !answerListed {
		return invalidQuestion("answer %q is not one of the options", q.Answer)
	}
	if q.Type == QuestionTypeDepartmental && q.DepartmentID == nil && q.Department == "" {
		return invalidQuestion("departmental question needs a department")
	}
	return nil
}

// QuestionFilter narrows a question pool lookup.
type QuestionFilter struct {
	Type         QuestionType
	DepartmentID *int64 // nil means any department
}

// QuizResult is one completed attempt. Rows are append-only.
type QuizResult struct {
	ID            int64
	ParticipantID int64
	Score         int
	Total         int
	Percentage    float64
	CreatedAt     time.Time
	IsCompetition bool
}

// Percentage returns score/total as a percentage, or 0 when total is 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// CompetitionEntry marks a distinct competition attempt by a participant.
type CompetitionEntry struct {
	ID            int64
	ParticipantID int64
	CreatedAt     time.Time
}

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID          int64
	Name        string
	Email       string
	Message     string
	SubmittedAt time.Time
}

// LeaderboardEntry is the projection served by the leaderboard.
type LeaderboardEntry struct {
	ResultID   int64     `json:"-"`
	Name       string    `json:"name"`
	Matric     string    `json:"matric"`
	Department string    `json:"field"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	CreatedAt  time.Time `json:"-"`
}

// LeaderboardDateLayout formats the date column of leaderboard rows.
const LeaderboardDateLayout = "2006-01-02 15:04"

// Attempt is an in-progress quiz run owned by one participant.
// Invariant: 0 <= Index <= Total and Total == len(QuestionIDs).
type Attempt struct {
	ID            string    `json:"id"`
	ParticipantID int64     `json:"participantId"`
	QuestionIDs   []int64   `json:"questionIds"`
	Index         int       `json:"index"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Complete reports whether every question has been answered.
func (a Attempt) Complete() bool {
	return a.Index >= a.Total
}

// CurrentQuestionID returns the id of the question awaiting an answer.
func (a Attempt) CurrentQuestionID() (int64, bool) {
	if a.Complete() || a.Index >= len(a.QuestionIDs) {
		return 0, false
	}
	return a.QuestionIDs[a.Index], true
}

// Outcome is the final tally of an attempt.
type Outcome struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
