package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/clients/redis"
	httpH "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/handlers"
	httpMW "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/middleware"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/observability"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler      *httpH.AuthHandler
	AuthMiddleware   *httpMW.AuthMiddleware
	NoteHandler      *httpH.NoteHandler
	FlashcardHandler *httpH.FlashcardHandler
	QuizHandler      *httpH.QuizHandler
	FileHandler      *httpH.FileHandler
	AIHandler        *httpH.AIHandler
	HealthHandler    *httpH.HealthHandler

	AIRateLimiter redis.RateLimiter
	Metrics       *observability.Metrics

	CORSOrigins     []string
	AIMaxUploadMB   int64
	FileMaxUploadMB int64
	// LocalUploadDir is served under /uploads when object storage runs in
	// local mode.
	LocalUploadDir string
	ServiceName    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "studypal-api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}
	if cfg.LocalUploadDir != "" {
		r.Static("/uploads", cfg.LocalUploadDir)
	}

	api := r.Group("/api")

	requireAuth := func(c *gin.Context) { c.Next() }
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
	}

	// Auth
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
		auth.POST("/logout", requireAuth, cfg.AuthHandler.Logout)
		auth.GET("/me", requireAuth, cfg.AuthHandler.Me)
	}

	protected := api.Group("/")
	protected.Use(requireAuth)

	// Notes
	if cfg.NoteHandler != nil {
		notes := protected.Group("/notes")
		notes.GET("", cfg.NoteHandler.List)
		notes.POST("", cfg.NoteHandler.Create)
		notes.POST("/import", cfg.NoteHandler.Import)
		notes.GET("/search", cfg.NoteHandler.Search)
		notes.GET("/:id", cfg.NoteHandler.Get)
		notes.PATCH("/:id", cfg.NoteHandler.Update)
		notes.DELETE("/:id", cfg.NoteHandler.Delete)
	}

	// Flashcards
	if cfg.FlashcardHandler != nil {
		cards := protected.Group("/flashcards")
		cards.GET("", cfg.FlashcardHandler.List)
		cards.POST("", cfg.FlashcardHandler.Create)
		cards.GET("/stats", cfg.FlashcardHandler.Stats)
		cards.POST("/generate", cfg.FlashcardHandler.Generate)
		cards.GET("/:id", cfg.FlashcardHandler.Get)
		cards.PATCH("/:id", cfg.FlashcardHandler.Update)
		cards.DELETE("/:id", cfg.FlashcardHandler.Delete)
	}

	// Quizzes
	if cfg.QuizHandler != nil {
		quizzes := protected.Group("/quizzes")
		quizzes.GET("", cfg.QuizHandler.List)
		quizzes.POST("", cfg.QuizHandler.Create)
		quizzes.POST("/generate", cfg.QuizHandler.Generate)
		quizzes.GET("/:id", cfg.QuizHandler.Get)
		quizzes.PATCH("/:id", cfg.QuizHandler.Update)
		quizzes.DELETE("/:id", cfg.QuizHandler.Delete)
		quizzes.POST("/:id/attempt", cfg.QuizHandler.Attempt)
		quizzes.GET("/:id/results", cfg.QuizHandler.Results)
	}

	// Study files
	if cfg.FileHandler != nil {
		files := protected.Group("/file")
		files.POST("/upload", httpMW.LimitBody(cfg.FileMaxUploadMB), cfg.FileHandler.Upload)
		files.GET("", cfg.FileHandler.List)
		files.DELETE("/:id", cfg.FileHandler.Delete)
	}

	// AI
	if cfg.AIHandler != nil {
		ai := protected.Group("/ai")
		ai.Use(httpMW.AIRateLimit(log, cfg.AIRateLimiter))
		ai.Use(httpMW.LimitBody(cfg.AIMaxUploadMB))
		ai.POST("/chat", cfg.AIHandler.Chat)
		ai.GET("/chat/stream", cfg.AIHandler.ChatStream)
		ai.POST("/chat/stream", cfg.AIHandler.ChatStream)
		ai.POST("/summarize", cfg.AIHandler.Summarize)
		ai.POST("/generate-flashcards", cfg.AIHandler.GenerateFlashcards)
		ai.POST("/generate-notes", cfg.AIHandler.GenerateNotes)
		ai.POST("/generate-quiz", cfg.AIHandler.GenerateQuiz)
		ai.POST("/explain", cfg.AIHandler.Explain)
	}

	return r
}
