package llm

import (
	"context"
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature *float64
	JSON        bool
}

// Provider is one LLM backend. Implementations make a single attempt; the
// Gateway owns retries and model fallback.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, onDelta func(delta string) error) error
}

type FileRequest struct {
	Model    string
	System   string
	Prompt   string
	MIMEType string
	Name     string
	Data     []byte
}

// FileProvider is implemented by providers that can prompt against an
// uploaded document.
type FileProvider interface {
	GenerateFromFile(ctx context.Context, req FileRequest) (string, error)
}

// Candidate is one (provider, model) pair in fallback order.
type Candidate struct {
	Provider Provider
	Model    string
}

func Candidates(p Provider, models ...string) []Candidate {
	if p == nil {
		return nil
	}
	out := make([]Candidate, 0, len(models))
	for _, m := range models {
		out = append(out, Candidate{Provider: p, Model: m})
	}
	return out
}

type Config struct {
	MaxAttempts         int
	Timeout             time.Duration
	MaxConcurrency      int64
	RetriesPerCandidate int
	BaseBackoff         time.Duration
	MaxBackoff          time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		MaxAttempts:         envutil.Int("LLM_MAX_ATTEMPTS", 6),
		Timeout:             time.Duration(envutil.Int("LLM_TIMEOUT_SECONDS", 90)) * time.Second,
		MaxConcurrency:      int64(envutil.Int("LLM_MAX_CONCURRENCY", 8)),
		RetriesPerCandidate: 2,
		BaseBackoff:         time.Second,
		MaxBackoff:          8 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 8
	}
	if c.RetriesPerCandidate < 0 {
		c.RetriesPerCandidate = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
	return c
}
