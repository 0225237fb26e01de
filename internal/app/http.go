package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http"
	httpH "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/handlers"
	httpMW "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/middleware"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/observability"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Note      *httpH.NoteHandler
	Flashcard *httpH.FlashcardHandler
	Quiz      *httpH.QuizHandler
	File      *httpH.FileHandler
	AI        *httpH.AIHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(pingDB(db)),
		Auth:      httpH.NewAuthHandler(services.Auth),
		Note:      httpH.NewNoteHandler(services.Note),
		Flashcard: httpH.NewFlashcardHandler(services.Flashcard),
		Quiz:      httpH.NewQuizHandler(services.Quiz),
		File:      httpH.NewFileHandler(services.File),
		AI:        httpH.NewAIHandler(log, services.AI),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, clients Clients, services Services, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	var localDir string
	if clients.Bucket != nil {
		localDir = clients.Bucket.LocalDir()
	}
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		AuthHandler:      handlers.Auth,
		AuthMiddleware:   middleware.Auth,
		NoteHandler:      handlers.Note,
		FlashcardHandler: handlers.Flashcard,
		QuizHandler:      handlers.Quiz,
		FileHandler:      handlers.File,
		AIHandler:        handlers.AI,
		HealthHandler:    handlers.Health,
		AIRateLimiter:    services.RateLimiter,
		Metrics:          metrics,
		CORSOrigins:      cfg.CORSOrigins,
		AIMaxUploadMB:    cfg.AIMaxUploadMB,
		FileMaxUploadMB:  cfg.FileMaxUploadMB,
		LocalUploadDir:   localDir,
	})
}

func pingDB(db *gorm.DB) httpH.Pinger {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
