package http

import (
	"errors"
	"net/http"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AttemptCookie carries the attempt id of the session-driven quiz flow.
const AttemptCookie = "quiz_attempt"

const (
	loginPath    = "/quiz/login/"
	questionPath = "/quiz/question/"
	resultPath   = "/quiz/result/"
)

// QuizHandler serves the cookie-based quiz flow: login, one question per
// request, and the final result.
type QuizHandler struct {
	quiz          *app.QuizService
	catalog       *app.CatalogService
	log           zerolog.Logger
	cookieTTL     time.Duration
	secureCookies bool
}

func NewQuizHandler(quiz *app.QuizService, catalog *app.CatalogService, log zerolog.Logger, cookieTTL time.Duration, secureCookies bool) *QuizHandler {
	return &QuizHandler{
		quiz:          quiz,
		catalog:       catalog,
		log:           log,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

type answerForm struct {
	QuestionID int64  `form:"question_id" binding:"required"`
	Selected   string `form:"selected_option"`
}

type questionView struct {
	ID      int64                      `json:"id"`
	Text    string                     `json:"text"`
	Options [domain.OptionCount]string `json:"options"`
}

// LoginForm handles GET /quiz/login/ by listing the selectable departments.
func (h *QuizHandler) LoginForm(c *gin.Context) {
	departments, err := h.catalog.Departments(c.Request.Context())
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// Login handles POST /quiz/login/.
func (h *QuizHandler) Login(c *gin.Context) {
	var in app.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidPayload, "", nil)
		return
	}
	attempt, err := h.quiz.Start(c.Request.Context(), in)
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	h.log.Info().
		Str("attempt_id", attempt.ID).
		Int64("participant_id", attempt.ParticipantID).
		Int("total", attempt.Total).
		Msg("quiz attempt started")

	h.setAttemptCookie(c, attempt.ID)
	c.Redirect(http.StatusSeeOther, questionPath)
}

// Question handles GET /quiz/question/.
func (h *QuizHandler) Question(c *gin.Context) {
	attemptID, ok := h.attemptID(c)
	if !ok {
		return
	}
	current, err := h.quiz.Current(c.Request.Context(), attemptID)
	if h.redirectOnState(c, err) {
		return
	}
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question": questionView{
			ID:      current.Question.ID,
			Text:    current.Question.Text,
			Options: current.Question.Options,
		},
		"index": current.Index,
		"total": current.Total,
	})
}

// Answer handles POST /quiz/question/.
func (h *QuizHandler) Answer(c *gin.Context) {
	attemptID, ok := h.attemptID(c)
	if !ok {
		return
	}
	var form answerForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, http.StatusBadRequest, codeValidation, "", validation.TranslateErrors(err))
		return
	}
	_, err := h.quiz.Advance(c.Request.Context(), attemptID, form.QuestionID, form.Selected)
	if h.redirectOnState(c, err) {
		return
	}
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	c.Redirect(http.StatusSeeOther, questionPath)
}

// Result handles GET /quiz/result/: it finalizes the attempt and clears the cookie.
func (h *QuizHandler) Result(c *gin.Context) {
	attemptID, ok := h.attemptID(c)
	if !ok {
		return
	}
	outcome, err := h.quiz.Finalize(c.Request.Context(), attemptID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		h.clearAttemptCookie(c)
		c.Redirect(http.StatusSeeOther, loginPath)
		return
	}
	if err != nil {
		failErr(c, h.log, err)
		return
	}
	h.clearAttemptCookie(c)
	c.JSON(http.StatusOK, outcome)
}

// attemptID reads the attempt cookie, redirecting to login when it is absent.
func (h *QuizHandler) attemptID(c *gin.Context) (string, bool) {
	id, err := c.Cookie(AttemptCookie)
	if err != nil || id == "" {
		c.Redirect(http.StatusSeeOther, loginPath)
		return "", false
	}
	return id, true
}

// redirectOnState maps attempt lifecycle errors onto the flow's redirects.
func (h *QuizHandler) redirectOnState(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, domain.ErrAttemptComplete):
		c.Redirect(http.StatusSeeOther, resultPath)
		return true
	case errors.Is(err, domain.ErrAttemptNotFound):
		h.clearAttemptCookie(c)
		c.Redirect(http.StatusSeeOther, loginPath)
		return true
	}
	return false
}

func (h *QuizHandler) setAttemptCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AttemptCookie, id, int(h.cookieTTL.Seconds()), "/quiz/", "", h.secureCookies, true)
}

func (h *QuizHandler) clearAttemptCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AttemptCookie, "", -1, "/quiz/", "", h.secureCookies, true)
}
