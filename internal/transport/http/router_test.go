package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/domain"
	"quiz-competition-service/internal/infra/memory"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

// newTestServer seeds CompSci with 3 DEPT questions, an empty Math
// department and 10 GEN questions. Every correct answer is "B".
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	cs, err := store.EnsureDepartment(ctx, "CompSci")
	require.NoError(t, err)
	_, err = store.EnsureDepartment(ctx, "Math")
	require.NoError(t, err)

	add := func(text string, typ domain.QuestionType, deptID *int64) {
		q := domain.Question{
			Text:         text,
			Options:      [domain.OptionCount]string{"A", "B", "C", "D"},
			Answer:       "B",
			DepartmentID: deptID,
			Type:         typ,
		}
		require.NoError(t, store.CreateQuestion(ctx, &q))
	}
	for i := 0; i < 3; i++ {
		add(fmt.Sprintf("cs-%d", i), domain.QuestionTypeDepartmental, &cs.ID)
	}
	for i := 0; i < 10; i++ {
		add(fmt.Sprintf("gen-%d", i), domain.QuestionTypeGeneral, nil)
	}

	participants := app.NewParticipantDirectory(store)
	selector := app.NewSelector(store)
	svc := Services{
		Quiz: app.NewQuizService(app.QuizDeps{
			Departments:  store,
			Questions:    store,
			Participants: participants,
			Results:      store,
			Attempts:     memory.NewAttemptStore(),
			Selector:     selector,
		}, 5, 5),
		Catalog:  app.NewCatalogService(store, selector),
		Results:  app.NewResultService(store, participants, store),
		Contacts: app.NewContactService(store),
	}
	router := NewRouter(svc, RouterConfig{AttemptTTL: time.Hour}, zerolog.Nop())
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, path string, form url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func getRequest(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func attemptCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == AttemptCookie {
			return c
		}
	}
	return nil
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, getRequest("/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestQuestionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	var body struct {
		Questions []questionJSON `json:"questions"`
	}

	rec := s.do(t, getRequest("/api/questions/?department=Math", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"questions":[]}`, rec.Body.String())

	rec = s.do(t, getRequest("/api/questions/?department=CompSci", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Len(t, body.Questions, 3)
	for _, q := range body.Questions {
		assert.Equal(t, domain.QuestionTypeDepartmental, q.QuestionType)
		assert.Equal(t, "CompSci", q.Department)
		assert.Equal(t, "B", q.Answer)
	}

	rec = s.do(t, getRequest("/api/questions/?num_dept=1&num_gen=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Len(t, body.Questions, 3)

	rec = s.do(t, getRequest("/api/questions/?num_gen=500", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepartmentsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, getRequest("/api/departments/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Departments []domain.Department `json:"departments"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Departments, 2)
	assert.Equal(t, "CompSci", body.Departments[0].Name)
	assert.Equal(t, "Math", body.Departments[1].Name)
}

func TestSaveResultAndLeaderboard(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/save_result/", map[string]any{
		"matric": "M2", "name": "Bo", "field": "Math", "score": 7, "total": 10, "percentage": 12.5,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/save_result/", map[string]any{
		"matric": "M3", "name": "Cy", "field": "CompSci", "score": 9, "total": 10,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var board struct {
		Leaderboard []leaderboardJSON `json:"leaderboard"`
	}
	rec = s.do(t, getRequest("/api/leaderboard/?field=all", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &board)
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, "M3", board.Leaderboard[0].Matric)
	assert.Equal(t, 70.0, board.Leaderboard[1].Percentage)
	assert.Equal(t, "Math", board.Leaderboard[1].Field)
	_, err := time.Parse(domain.LeaderboardDateLayout, board.Leaderboard[1].Date)
	assert.NoError(t, err)

	rec = s.do(t, getRequest("/api/leaderboard/?field=Math", nil))
	decode(t, rec, &board)
	require.Len(t, board.Leaderboard, 1)
	assert.Equal(t, "Bo", board.Leaderboard[0].Name)
}

func TestSaveResultRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/save_result/", map[string]any{
		"matric": "M2", "name": "Bo", "score": 11, "total": 10,
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, codeValidation, body.Code)
	assert.Contains(t, body.Fields, "score")

	req := httptest.NewRequest(http.MethodPost, "/api/save_result/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, codeInvalidPayload, body.Code)

	assert.Empty(t, s.store.Results())
}

func TestContactEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/contact/", map[string]string{
		"name": "Ada", "email": "", "message": "hi",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.store.ContactMessages())

	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/contact/", map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "hi",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.store.ContactMessages(), 1)
}

func TestWrongMethod(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, getRequest("/api/save_result/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Invalid method", body.Message)
}

func TestQuizSessionFlow(t *testing.T) {
	s := newTestServer(t)

	// Without a cookie every page sends the user to login.
	rec := s.do(t, getRequest("/quiz/question/", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/quiz/login/", rec.Header().Get("Location"))

	rec = s.do(t, formRequest(http.MethodPost, "/quiz/login/", url.Values{
		"name": {"Ada"}, "matric": {"m1"}, "field": {"CompSci"},
	}, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/quiz/question/", rec.Header().Get("Location"))
	cookie := attemptCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	type questionPage struct {
		Question questionView `json:"question"`
		Index    int          `json:"index"`
		Total    int          `json:"total"`
	}

	for i := 1; i <= 8; i++ {
		rec = s.do(t, getRequest("/quiz/question/", cookie))
		require.Equal(t, http.StatusOK, rec.Code)
		var page questionPage
		decode(t, rec, &page)
		assert.Equal(t, i, page.Index)
		assert.Equal(t, 8, page.Total)
		assert.NotContains(t, rec.Body.String(), `"answer"`)

		answer := "B"
		if i > 6 {
			answer = "A"
		}
		form := url.Values{"question_id": {fmt.Sprint(page.Question.ID)}, "selected_option": {answer}}
		rec = s.do(t, formRequest(http.MethodPost, "/quiz/question/", form, cookie))
		require.Equal(t, http.StatusSeeOther, rec.Code)

		// Resubmitting the same answer is rejected.
		rec = s.do(t, formRequest(http.MethodPost, "/quiz/question/", form, cookie))
		if i < 8 {
			require.Equal(t, http.StatusConflict, rec.Code)
		} else {
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/quiz/result/", rec.Header().Get("Location"))
		}
	}

	rec = s.do(t, getRequest("/quiz/question/", cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/quiz/result/", rec.Header().Get("Location"))

	rec = s.do(t, getRequest("/quiz/result/", cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	var outcome domain.Outcome
	decode(t, rec, &outcome)
	assert.Equal(t, domain.Outcome{Score: 6, Total: 8, Percentage: 75}, outcome)
	cleared := attemptCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	require.Len(t, s.store.Results(), 1)

	// The attempt is gone; a second visit goes back to login.
	rec = s.do(t, getRequest("/quiz/result/", cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/quiz/login/", rec.Header().Get("Location"))
	assert.Len(t, s.store.Results(), 1)
}

func TestQuizLoginValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, formRequest(http.MethodPost, "/quiz/login/", url.Values{"name": {"Ada"}}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Please fill in all fields.", body.Message)
	assert.Nil(t, attemptCookie(rec))

	rec = s.do(t, formRequest(http.MethodPost, "/quiz/login/", url.Values{
		"name": {"Ada"}, "matric": {"M1"}, "field": {"Physics"},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Invalid department selected.", body.Message)
}

func TestQuizLoginForm(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, getRequest("/quiz/login/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CompSci")
}
