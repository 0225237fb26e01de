package app

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/llm"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Env        string
	Production bool
	Addr       string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	GeminiAPIKey string
	GeminiModels []string
	OpenAIModels []string
	LLM          llm.Config

	AIMaxSourceChars     int
	AIMaxUploadMB        int64
	FileMaxUploadMB      int64
	AICacheTTL           time.Duration
	AIRateLimitPerMinute int

	CORSOrigins []string
	PromptsFile string

	MetricsEnabled bool
	MetricsAddr    string
	ShutdownGrace  time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	env := strings.ToLower(envutil.First("APP_ENV", "NODE_ENV"))
	if env == "" {
		env = "development"
	}
	addr := envutil.String("ADDR", "")
	if addr == "" {
		addr = ":" + envutil.String("PORT", "5000")
	}

	cfg := Config{
		Env:        env,
		Production: env == "production",
		Addr:       addr,

		JWTSecret:       envutil.String("JWT_SECRET", ""),
		AccessTokenTTL:  envutil.Duration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTokenTTL: envutil.Duration("REFRESH_EXPIRES_IN", 30*24*time.Hour),

		GeminiAPIKey: envutil.First("GENAI_API_KEY", "GEMINI_API_KEY"),
		GeminiModels: envutil.CSV("GEMINI_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash"}),
		OpenAIModels: envutil.CSV("OPENAI_MODELS", []string{"gpt-4o-mini"}),
		LLM:          llm.ConfigFromEnv(),

		AIMaxSourceChars:     envutil.Int("AI_MAX_SOURCE_CHARS", 120000),
		AIMaxUploadMB:        int64(envutil.Int("AI_MAX_UPLOAD_MB", 10)),
		FileMaxUploadMB:      int64(envutil.Int("FILE_MAX_UPLOAD_MB", 100)),
		AICacheTTL:           time.Duration(envutil.Int("AI_CACHE_TTL_SECONDS", 3600)) * time.Second,
		AIRateLimitPerMinute: envutil.Int("AI_RATE_LIMIT_PER_MINUTE", 30),

		CORSOrigins: envutil.CSV("CORS_ORIGINS", nil),
		PromptsFile: envutil.String("PROMPTS_FILE", ""),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
		MetricsAddr:    envutil.String("METRICS_ADDR", ""),
		ShutdownGrace:  envutil.Duration("SHUTDOWN_GRACE", 15*time.Second),
	}

	if cfg.JWTSecret == "" && !cfg.Production {
		log.Warn("JWT_SECRET not set; using development secret")
		cfg.JWTSecret = devJWTSecret
	}
	cfg.JWTRefreshSecret = envutil.String("JWT_REFRESH_SECRET", cfg.JWTSecret)
	return cfg
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.JWTSecret, validation.Required.Error("JWT_SECRET is required")),
		validation.Field(&c.JWTRefreshSecret, validation.Required),
		validation.Field(&c.AccessTokenTTL, validation.Min(time.Minute)),
		validation.Field(&c.RefreshTokenTTL, validation.Min(time.Minute)),
		validation.Field(&c.AIMaxSourceChars, validation.Min(1000)),
		validation.Field(&c.AIMaxUploadMB, validation.Min(int64(1))),
		validation.Field(&c.FileMaxUploadMB, validation.Min(int64(1))),
		validation.Field(&c.AIRateLimitPerMinute, validation.Min(0)),
	)
}
