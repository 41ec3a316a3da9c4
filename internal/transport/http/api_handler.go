package http

import (
	"net/http"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIHandler serves the JSON API used by the client-side quiz.
type APIHandler struct {
	catalog  *app.CatalogService
	results  *app.ResultService
	contacts *app.ContactService
	log      zerolog.Logger
}

func NewAPIHandler(catalog *app.CatalogService, results *app.ResultService, contacts *app.ContactService, log zerolog.Logger) *APIHandler {
	return &APIHandler{catalog: catalog, results: results, contacts: contacts, log: log}
}

// num_dept and num_gen are capped at 50 each.
type questionsQuery struct {
	Department string `form:"department"`
	NumDept    *int   `form:"num_dept" binding:"omitempty,min=0,max=50"`
	NumGen     *int   `form:"num_gen" binding:"omitempty,min=0,max=50"`
}

type questionJSON struct {
	ID           int64                      `json:"id"`
	Text         string                     `json:"text"`
	Options      [domain.OptionCount]string `json:"options"`
	Answer       string                     `json:"answer"`
	Department   string                     `json:"department"`
	QuestionType domain.QuestionType        `json:"question_type"`
}

type leaderboardJSON struct {
	Name       string  `json:"name"`
	Matric     string  `json:"matric"`
	Field      string  `json:"field"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Date       string  `json:"date"`
}

// Questions handles GET /api/questions/. The answer travels with each
// question because the client grades locally.
func (h *APIHandler) Questions(c *gin.Context) {
	var q questionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, codeValidation, "", validation.TranslateErrors(err))
		return
	}
	numDept, numGen := app.DefaultDepartmentQuestions, app.DefaultGeneralQuestions
	if q.NumDept != nil {
		numDept = *q.NumDept
	}
	if q.NumGen != nil {
		numGen = *q.NumGen
	}

	questions, err := h.catalog.Questions(c.Request.Context(), q.Department, numDept, numGen)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	out := make([]questionJSON, len(questions))
	for i, question := range questions {
		out[i] = questionJSON{
			ID:           question.ID,
			Text:         question.Text,
			Options:      question.Options,
			Answer:       question.Answer,
			Department:   question.Department,
			QuestionType: question.Type,
		}
	}
	c.JSON(http.StatusOK, gin.H{"questions": out})
}

// Departments handles GET /api/departments/.
func (h *APIHandler) Departments(c *gin.Context) {
	departments, err := h.catalog.Departments(c.Request.Context())
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// SaveResult handles POST /api/save_result/.
func (h *APIHandler) SaveResult(c *gin.Context) {
	var in app.ResultSubmission
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidPayload, "", nil)
		return
	}
	if _, err := h.results.Submit(c.Request.Context(), in); err != nil {
		failErr(c, h.log, err)
		return
	}
	success(c, "")
}

// Contact handles POST /api/contact/.
func (h *APIHandler) Contact(c *gin.Context) {
	var in app.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidPayload, "", nil)
		return
	}
	if _, err := h.contacts.Submit(c.Request.Context(), in); err != nil {
		failErr(c, h.log, err)
		return
	}
	success(c, "Your message has been submitted.")
}

// Leaderboard handles GET /api/leaderboard/?field=<name|all>.
func (h *APIHandler) Leaderboard(c *gin.Context) {
	entries, err := h.results.Leaderboard(c.Request.Context(), c.Query("field"))
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	out := make([]leaderboardJSON, len(entries))
	for i, e := range entries {
		date := ""
		if !e.CreatedAt.IsZero() {
			date = e.CreatedAt.Format(domain.LeaderboardDateLayout)
		}
		out[i] = leaderboardJSON{
			Name:       e.Name,
			Matric:     e.Matric,
			Field:      e.Department,
			Score:      e.Score,
			Total:      e.Total,
			Percentage: e.Percentage,
			Date:       date,
		}
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}
