package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/clients/redis"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/extract"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/llm"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/prompts"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Note      services.NoteService
	Flashcard services.FlashcardService
	Quiz      services.QuizService
	File      services.FileService
	AI        services.AIService

	// AI infra
	Gateway     *llm.Gateway
	PDF         *extract.Pipeline
	RateLimiter redis.RateLimiter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		return Services{}, fmt.Errorf("load prompts: %w", err)
	}

	var candidates []llm.Candidate
	if p := llm.NewGeminiProvider(clients.Gemini); p != nil {
		candidates = append(candidates, llm.Candidates(p, cfg.GeminiModels...)...)
	}
	if p := llm.NewOpenAIProvider(clients.OpenAI); p != nil {
		candidates = append(candidates, llm.Candidates(p, cfg.OpenAIModels...)...)
	}
	gateway := llm.NewGateway(log, cfg.LLM, candidates)
	for _, c := range gateway.Candidates() {
		log.Info("LLM candidate", "provider", c.Provider.Name(), "model", c.Model)
	}

	summarizeFile, err := catalog.Build(prompts.PromptSummarizeFile, prompts.Input{})
	if err != nil {
		return Services{}, fmt.Errorf("build %s prompt: %w", prompts.PromptSummarizeFile, err)
	}
	pdf := extract.NewPipeline(log,
		extract.NewGeminiFile(gateway, summarizeFile),
		extract.NewUniPDF(log),
		extract.NewPDFToText(),
		extract.NewDocAI(clients.DocumentAI),
	)
	log.Info("PDF extraction strategies", "order", pdf.Strategies())

	cache := redis.NewCache(log, clients.Redis, cfg.AICacheTTL)
	limiter := redis.NewRateLimiter(clients.Redis, cfg.AIRateLimitPerMinute)

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := services.NewAuthService(db, log, repos.User, tokens)
	aiService := services.NewAIService(log, gateway, catalog, pdf, cache, services.AIConfig{
		MaxSourceChars: cfg.AIMaxSourceChars,
	})

	return Services{
		Auth:        authService,
		Note:        services.NewNoteService(db, log, repos.Note),
		Flashcard:   services.NewFlashcardService(db, log, repos.Flashcard, aiService),
		Quiz:        services.NewQuizService(db, log, repos.Quiz, repos.QuizQuestion, repos.QuizAttempt, aiService),
		File:        services.NewFileService(db, log, clients.Bucket, repos.StudyFile),
		AI:          aiService,
		Gateway:     gateway,
		PDF:         pdf,
		RateLimiter: limiter,
	}, nil
}
