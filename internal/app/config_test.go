package app

import (
	"testing"
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "8080")
	t.Setenv("REFRESH_EXPIRES_IN", "14d")

	cfg := LoadConfig(logger.Nop())
	if cfg.Production || cfg.Addr != ":8080" {
		t.Fatalf("unexpected env/addr: %+v", cfg)
	}
	if cfg.JWTSecret != devJWTSecret || cfg.JWTRefreshSecret != devJWTSecret {
		t.Fatalf("expected dev secrets, got %q/%q", cfg.JWTSecret, cfg.JWTRefreshSecret)
	}
	if cfg.RefreshTokenTTL != 14*24*time.Hour || cfg.AccessTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.AIMaxUploadMB != 10 || cfg.FileMaxUploadMB != 100 {
		t.Fatalf("unexpected upload limits: %d %d", cfg.AIMaxUploadMB, cfg.FileMaxUploadMB)
	}
	if len(cfg.GeminiModels) != 2 || cfg.GeminiModels[0] != "gemini-2.5-flash" {
		t.Fatalf("unexpected gemini models: %v", cfg.GeminiModels)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	cfg := LoadConfig(logger.Nop())
	if !cfg.Production {
		t.Fatalf("NODE_ENV=production should enable production mode")
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing JWT_SECRET to fail validation")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_REFRESH_SECRET", "r3fresh")
	cfg = LoadConfig(logger.Nop())
	if cfg.JWTRefreshSecret != "r3fresh" {
		t.Fatalf("refresh secret = %q", cfg.JWTRefreshSecret)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
