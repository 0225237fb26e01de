package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/httpx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

// ErrNotConfigured is returned by NewClient when OPENAI_API_KEY is unset.
var ErrNotConfigured = errors.New("missing OPENAI_API_KEY")

type Message struct {
	Role    string
	Content string
}

type GenerateRequest struct {
	Model       string
	System      string
	Messages    []Message
	Temperature *float64
	JSON        bool
}

// Client is a single-attempt Responses API client. Retries and model fallback
// belong to the caller.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Stream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Models that rejected temperature once are remembered and sent without it.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	baseURL := strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com"), "/")
	timeout := envutil.Duration("OPENAI_TIMEOUT_SECONDS", 120*time.Second)

	return newClient(log, baseURL, apiKey, &http.Client{Timeout: timeout}), nil
}

func newClient(log *logger.Logger, baseURL, apiKey string, hc *http.Client) *client {
	return &client{
		log:        log.With("client", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: hc,
		noTempSeen: map[string]bool{},
	}
}

type inputItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model        string      `json:"model"`
	Instructions string      `json:"instructions,omitempty"`
	Input        []inputItem `json:"input"`
	Text         *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

func (c *client) buildRequest(req GenerateRequest, stream bool) *responsesRequest {
	out := &responsesRequest{
		Model:        req.Model,
		Instructions: strings.TrimSpace(req.System),
		Stream:       stream,
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		out.Input = append(out.Input, inputItem{Role: role, Content: m.Content})
	}
	if req.JSON {
		out.Text = &struct {
			Format map[string]any `json:"format,omitempty"`
		}{Format: map[string]any{"type": "json_object"}}
	}
	if req.Temperature != nil && !c.modelIsNoTemp(req.Model) {
		out.Temperature = req.Temperature
	}
	return out
}

func (c *client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body := c.buildRequest(req, false)
	raw, err := c.postWithTempFallback(ctx, body)
	if err != nil {
		return "", err
	}

	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("openai decode error: %w", err)
	}
	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return "", fmt.Errorf("model refused: %s", refusal)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) Stream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) error {
	body := c.buildRequest(req, true)
	resp, err := c.openStream(ctx, body)
	if err != nil && body.Temperature != nil && isUnsupportedTemperatureParam(err) {
		c.noteNoTempModel(body.Model)
		body.Temperature = nil
		resp, err = c.openStream(ctx, body)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return streamSSE(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil
		}
		evt := strings.TrimSpace(event)
		if t, ok := obj["type"].(string); ok && strings.TrimSpace(t) != "" {
			evt = strings.TrimSpace(t)
		}
		if eAny, ok := obj["error"]; ok && eAny != nil {
			b, _ := json.Marshal(eAny)
			return fmt.Errorf("openai stream error: %s", string(b))
		}
		if d, ok := obj["delta"].(string); ok && d != "" && strings.Contains(evt, "output_text.delta") {
			if onDelta != nil {
				return onDelta(d)
			}
		}
		return nil
	})
}

func (c *client) openStream(ctx context.Context, body *responsesRequest) (*http.Response, error) {
	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return nil, statusError(resp, raw)
}

func (c *client) postWithTempFallback(ctx context.Context, body *responsesRequest) ([]byte, error) {
	raw, err := c.post(ctx, body)
	if err == nil || body.Temperature == nil || !isUnsupportedTemperatureParam(err) {
		return raw, err
	}
	c.noteNoTempModel(body.Model)
	body.Temperature = nil
	return c.post(ctx, body)
}

func (c *client) post(ctx context.Context, body *responsesRequest) ([]byte, error) {
	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp, raw)
	}
	return raw, nil
}

func (c *client) newRequest(ctx context.Context, body *responsesRequest) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func statusError(resp *http.Response, raw []byte) error {
	return &httpx.StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(raw),
		RetryAfter: httpx.RetryAfterDuration(resp, 0, 30*time.Second),
	}
}

func extractOutputText(resp responsesResponse) (string, string) {
	var out strings.Builder
	refusal := ""
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

func (c *client) modelIsNoTemp(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[strings.ToLower(strings.TrimSpace(model))]
}

func (c *client) noteNoTempModel(model string) {
	key := strings.ToLower(strings.TrimSpace(model))
	if key == "" {
		return
	}
	c.noTempMu.Lock()
	c.noTempSeen[key] = true
	c.noTempMu.Unlock()
	c.log.Info("Model rejected temperature; omitting it from now on", "model", model)
}

func isUnsupportedTemperatureParam(err error) bool {
	if err == nil || httpx.StatusCodeOf(err) != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, marker := range []string{"unsupported parameter", "unknown parameter", "not supported", "does not support", "only the default", "unsupported_value"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
