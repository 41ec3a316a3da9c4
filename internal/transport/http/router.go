package http

import (
	"net/http"
	"time"

	"quiz-competition-service/internal/app"
	"quiz-competition-service/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Quiz     *app.QuizService
	Catalog  *app.CatalogService
	Results  *app.ResultService
	Contacts *app.ContactService
}

// RouterConfig holds the transport settings taken from config.
type RouterConfig struct {
	AllowedOrigins []string
	AttemptTTL     time.Duration
	SecureCookies  bool
}

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(svc Services, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	validation.SetupGin()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.RedirectTrailingSlash = true

	r.Use(gin.Recovery(), requestID(), requestLogger(log))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AddAllowHeaders("X-Request-ID")
	corsCfg.AddExposeHeaders("X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, codeMethodNotAllowed, "", nil)
	})
	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, codeNotFound, "", nil)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := NewAPIHandler(svc.Catalog, svc.Results, svc.Contacts, log)
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/questions/", api.Questions)
		apiGroup.GET("/departments/", api.Departments)
		apiGroup.POST("/save_result/", api.SaveResult)
		apiGroup.POST("/contact/", api.Contact)
		apiGroup.GET("/leaderboard/", api.Leaderboard)
	}

	quiz := NewQuizHandler(svc.Quiz, svc.Catalog, log, cfg.AttemptTTL, cfg.SecureCookies)
	quizGroup := r.Group("/quiz")
	{
		quizGroup.GET("/login/", quiz.LoginForm)
		quizGroup.POST("/login/", quiz.Login)
		quizGroup.GET("/question/", quiz.Question)
		quizGroup.POST("/question/", quiz.Answer)
		quizGroup.GET("/result/", quiz.Result)
	}
	return r
}
