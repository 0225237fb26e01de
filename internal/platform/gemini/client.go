package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/httpx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

// ErrNotConfigured is returned by NewClient when no API key is set.
var ErrNotConfigured = errors.New("GENAI_API_KEY/GEMINI_API_KEY not set")

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

// FileRequest asks the model about an uploaded document.
type FileRequest struct {
	Model    string
	System   string
	Prompt   string
	MIMEType string
	Name     string
	Data     []byte
}

type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Stream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) error
	// GenerateFromFile uploads Data through the Files API, prompts against it
	// and deletes the upload afterwards.
	GenerateFromFile(ctx context.Context, req FileRequest) (string, error)
}

type client struct {
	log          *logger.Logger
	genai        *genai.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewClient(ctx context.Context, log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := envutil.First("GENAI_API_KEY", "GEMINI_API_KEY")
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &client{
		log:          log.With("client", "GeminiClient"),
		genai:        gc,
		pollInterval: 2 * time.Second,
		pollTimeout:  envutil.Duration("GEMINI_FILE_POLL_TIMEOUT", 60*time.Second),
	}, nil
}

func buildContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" || m.Role == "model" {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func buildConfig(system string, temperature *float64, jsonMode bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if s := strings.TrimSpace(system); s != "" {
		cfg.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*temperature))
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func (c *client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, buildContents(req.Messages), buildConfig(req.System, req.Temperature, req.JSON))
	if err != nil {
		return "", wrapError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text (model=%s)", req.Model)
	}
	return text, nil
}

func (c *client) Stream(ctx context.Context, req GenerateRequest, onDelta func(delta string) error) error {
	for resp, err := range c.genai.Models.GenerateContentStream(ctx, req.Model, buildContents(req.Messages), buildConfig(req.System, req.Temperature, false)) {
		if err != nil {
			return wrapError(err)
		}
		if resp == nil {
			continue
		}
		if d := resp.Text(); d != "" && onDelta != nil {
			if err := onDelta(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *client) GenerateFromFile(ctx context.Context, req FileRequest) (string, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	file, err := c.genai.Files.Upload(ctx, bytes.NewReader(req.Data), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: req.Name,
	})
	if err != nil {
		return "", fmt.Errorf("gemini file upload: %w", wrapError(err))
	}
	defer func() {
		// Cleanup must outlive a canceled request context.
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if _, delErr := c.genai.Files.Delete(delCtx, file.Name, nil); delErr != nil {
			c.log.Warn("gemini file delete failed", "file", file.Name, "error", delErr)
		}
	}()

	file, err = c.waitActive(ctx, file)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromURI(file.URI, file.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.genai.Models.GenerateContent(ctx, req.Model, contents, buildConfig(req.System, nil, false))
	if err != nil {
		return "", wrapError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text for file (model=%s)", req.Model)
	}
	return text, nil
}

func (c *client) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for file.State == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("gemini file %s still processing after %s", file.Name, c.pollTimeout)
		}
		if err := httpx.Sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		next, err := c.genai.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini file status: %w", wrapError(err))
		}
		file = next
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("gemini file %s failed processing", file.Name)
	}
	return file, nil
}

// wrapError turns genai API errors into httpx.StatusError so retry
// classification is shared across providers.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusFromAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusFromAPIError(*apiErrPtr, err)
	}
	return err
}

func statusFromAPIError(apiErr genai.APIError, cause error) error {
	code := apiErr.Code
	if code == 0 {
		code = http.StatusBadGateway
	}
	body := strings.TrimSpace(apiErr.Status + " " + apiErr.Message)
	if body == "" {
		body = cause.Error()
	}
	return &httpx.StatusError{StatusCode: code, Body: body}
}
