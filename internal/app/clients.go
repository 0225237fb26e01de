package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/clients/redis"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/gcp"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/gemini"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/openai"
)

type Clients struct {
	Gemini     gemini.Client
	OpenAI     openai.Client
	Redis      *goredis.Client
	Bucket     gcp.BucketService
	DocumentAI gcp.Document
}

// wireClients builds the external clients. Gemini, OpenAI, Redis and
// Document AI are optional; object storage is not.
func wireClients(ctx context.Context, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	gem, err := gemini.NewClient(ctx, log)
	switch {
	case errors.Is(err, gemini.ErrNotConfigured):
		log.Warn("GENAI_API_KEY/GEMINI_API_KEY not set; AI endpoints will return 503 until configured")
	case err != nil:
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	default:
		c.Gemini = gem
	}

	oa, err := openai.NewClient(log)
	switch {
	case errors.Is(err, openai.ErrNotConfigured):
		log.Info("OPENAI_API_KEY not set; OpenAI fallback disabled")
	case err != nil:
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	default:
		c.OpenAI = oa
	}

	rdb, err := redis.NewClient(ctx, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis client: %w", err)
	}
	c.Redis = rdb

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}
	c.Bucket = bucket

	doc, err := gcp.NewDocument(ctx, log, gcp.DocAIConfigFromEnv())
	if err != nil {
		// OCR is the last extraction strategy; run without it.
		log.Warn("Document AI unavailable; OCR strategy disabled", "error", err)
	} else {
		c.DocumentAI = doc
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.DocumentAI != nil {
		_ = c.DocumentAI.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
