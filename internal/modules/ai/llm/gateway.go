package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/observability"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/httpx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

var (
	ErrNotConfigured = apierr.Msg(http.StatusServiceUnavailable, "ai_not_configured", "AI service is not configured")
	ErrRejected      = apierr.Msg(http.StatusBadGateway, "ai_rejected", "AI provider rejected the request")
	ErrUnavailable   = apierr.Msg(http.StatusBadGateway, "ai_unavailable", "AI provider unavailable, please try again later")

	errEmptyOutput = errors.New("model returned empty output")
)

type Gateway struct {
	log        *logger.Logger
	cfg        Config
	candidates []Candidate
	sem        *semaphore.Weighted

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

func NewGateway(log *logger.Logger, cfg Config, candidates []Candidate) *Gateway {
	cfg = cfg.withDefaults()
	return &Gateway{
		log:        log.With("service", "LLMGateway"),
		cfg:        cfg,
		candidates: candidates,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrency),
		sleep:      httpx.Sleep,
		jitter:     httpx.JitterSleep,
	}
}

func (g *Gateway) Configured() bool {
	return g != nil && len(g.candidates) > 0
}

// Candidates returns the fallback order, mostly for startup logging.
func (g *Gateway) Candidates() []Candidate {
	if g == nil {
		return nil
	}
	return append([]Candidate(nil), g.candidates...)
}

func (g *Gateway) Generate(ctx context.Context, req Request) (string, error) {
	var out string
	err := g.do(ctx, "generate", func(ctx context.Context, c Candidate) (bool, error) {
		r := req
		r.Model = c.Model
		text, err := c.Provider.Generate(ctx, r)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyOutput
		}
		out = text
		return false, err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// SupportsFiles reports whether any candidate can prompt against a document.
func (g *Gateway) SupportsFiles() bool {
	return len(g.fileCandidates()) > 0
}

func (g *Gateway) fileCandidates() []Candidate {
	if g == nil {
		return nil
	}
	var out []Candidate
	for _, c := range g.candidates {
		if _, ok := c.Provider.(FileProvider); ok {
			out = append(out, c)
		}
	}
	return out
}

// GenerateFromFile runs req against the file-capable candidates under the same
// timeout, concurrency cap and retry policy as Generate.
func (g *Gateway) GenerateFromFile(ctx context.Context, req FileRequest) (string, error) {
	var out string
	err := g.run(ctx, "generate_file", g.fileCandidates(), func(ctx context.Context, c Candidate) (bool, error) {
		r := req
		r.Model = c.Model
		text, err := c.Provider.(FileProvider).GenerateFromFile(ctx, r)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyOutput
		}
		out = text
		return false, err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Stream forwards deltas to onDelta. A candidate is abandoned for the next
// one only while nothing has been delivered; after the first delta any
// failure is returned to the caller.
func (g *Gateway) Stream(ctx context.Context, req Request, onDelta func(delta string) error) error {
	var callbackErr error
	return g.do(ctx, "stream", func(ctx context.Context, c Candidate) (bool, error) {
		r := req
		r.Model = c.Model
		delivered := false
		err := c.Provider.Stream(ctx, r, func(delta string) error {
			if delta == "" {
				return nil
			}
			delivered = true
			if cbErr := onDelta(delta); cbErr != nil {
				callbackErr = cbErr
				return cbErr
			}
			return nil
		})
		if callbackErr != nil {
			return true, &callbackError{err: callbackErr}
		}
		if err == nil && !delivered {
			err = errEmptyOutput
		}
		return delivered, err
	})
}

type callbackError struct{ err error }

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

type verdict int

const (
	verdictRetry verdict = iota
	verdictNext
	verdictStop
)

func classify(err error) verdict {
	if errors.Is(err, context.Canceled) {
		return verdictStop
	}
	if errors.Is(err, errEmptyOutput) || isModelUnavailable(err) {
		return verdictNext
	}
	if httpx.IsRetryableError(err) {
		return verdictRetry
	}
	if code := httpx.StatusCodeOf(err); code >= 400 && code < 500 {
		return verdictStop
	}
	return verdictNext
}

func isModelUnavailable(err error) bool {
	if httpx.StatusCodeOf(err) == http.StatusNotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not supported")
}

func (g *Gateway) do(ctx context.Context, op string, attempt func(ctx context.Context, c Candidate) (bool, error)) error {
	if !g.Configured() {
		return ErrNotConfigured
	}
	return g.run(ctx, op, g.candidates, attempt)
}

func (g *Gateway) run(ctx context.Context, op string, candidates []Candidate, attempt func(ctx context.Context, c Candidate) (bool, error)) error {
	if len(candidates) == 0 {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		g.log.Warn("LLM concurrency wait timed out", "op", op)
		return ErrUnavailable
	}
	defer g.sem.Release(1)

	attempts := 0
	var lastErr error
candidates:
	for _, c := range candidates {
		for retry := 0; ; retry++ {
			if attempts >= g.cfg.MaxAttempts {
				break candidates
			}
			attempts++

			delivered, err := g.attemptOnce(ctx, op, c, attempt)
			if err == nil {
				return nil
			}
			lastErr = err

			var cbErr *callbackError
			if errors.As(err, &cbErr) {
				return cbErr.err
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			if ctx.Err() != nil {
				break candidates
			}
			if delivered {
				g.log.Warn("LLM stream failed after first delta", "provider", c.Provider.Name(), "model", c.Model, "error", err.Error())
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}

			switch classify(err) {
			case verdictStop:
				if errors.Is(err, context.Canceled) {
					return err
				}
				g.log.Warn("LLM request rejected",
					"op", op,
					"provider", c.Provider.Name(),
					"model", c.Model,
					"error", err.Error(),
				)
				return ErrRejected
			case verdictNext:
				g.log.Warn("LLM candidate unavailable; falling back",
					"op", op,
					"provider", c.Provider.Name(),
					"model", c.Model,
					"error", err.Error(),
				)
				continue candidates
			}

			if retry >= g.cfg.RetriesPerCandidate {
				g.log.Warn("LLM candidate retries exhausted; falling back",
					"op", op,
					"provider", c.Provider.Name(),
					"model", c.Model,
					"error", err.Error(),
				)
				continue candidates
			}
			sleepFor := httpx.Backoff(retry, g.cfg.BaseBackoff, g.cfg.MaxBackoff)
			if ra := httpx.RetryAfterOf(err); ra > sleepFor {
				sleepFor = ra
			}
			sleepFor = g.jitter(sleepFor)
			g.log.Warn("LLM request retrying",
				"op", op,
				"provider", c.Provider.Name(),
				"model", c.Model,
				"attempt", attempts,
				"max_attempts", g.cfg.MaxAttempts,
				"sleep", sleepFor.String(),
				"error", err.Error(),
			)
			if err := g.sleep(ctx, sleepFor); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				break candidates
			}
		}
	}

	if lastErr != nil {
		g.log.Error("LLM call failed", "op", op, "attempts", attempts, "error", lastErr.Error())
	}
	return ErrUnavailable
}

func (g *Gateway) attemptOnce(ctx context.Context, op string, c Candidate, attempt func(ctx context.Context, c Candidate) (bool, error)) (bool, error) {
	start := time.Now()
	spanCtx, span := observability.StartSpan(ctx, "llm."+op,
		attribute.String("llm.provider", c.Provider.Name()),
		attribute.String("llm.model", c.Model),
	)
	delivered, err := attempt(spanCtx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	observability.Current().ObserveLLMRequest(c.Provider.Name(), c.Model, statusLabel(err), time.Since(start))
	g.log.Debug("LLM attempt",
		"op", op,
		"provider", c.Provider.Name(),
		"model", c.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", err == nil,
	)
	return delivered, err
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errEmptyOutput):
		return "empty"
	}
	if code := httpx.StatusCodeOf(err); code > 0 {
		return observability.StatusLabel(code)
	}
	return "error"
}
