package llm

import (
	"context"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/gemini"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/openai"
)

type geminiProvider struct {
	client gemini.Client
}

func NewGeminiProvider(c gemini.Client) Provider {
	if c == nil {
		return nil
	}
	return &geminiProvider{client: c}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	return p.client.Generate(ctx, toGemini(req))
}

func (p *geminiProvider) Stream(ctx context.Context, req Request, onDelta func(string) error) error {
	return p.client.Stream(ctx, toGemini(req), onDelta)
}

func (p *geminiProvider) GenerateFromFile(ctx context.Context, req FileRequest) (string, error) {
	return p.client.GenerateFromFile(ctx, gemini.FileRequest{
		Model:    req.Model,
		System:   req.System,
		Prompt:   req.Prompt,
		MIMEType: req.MIMEType,
		Name:     req.Name,
		Data:     req.Data,
	})
}

func toGemini(req Request) gemini.GenerateRequest {
	msgs := make([]gemini.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, gemini.Message{Role: m.Role, Content: m.Content})
	}
	return gemini.GenerateRequest{
		Model:       req.Model,
		System:      req.System,
		Messages:    msgs,
		Temperature: req.Temperature,
		JSON:        req.JSON,
	}
}

type openAIProvider struct {
	client openai.Client
}

func NewOpenAIProvider(c openai.Client) Provider {
	if c == nil {
		return nil
	}
	return &openAIProvider{client: c}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	return p.client.Generate(ctx, toOpenAI(req))
}

func (p *openAIProvider) Stream(ctx context.Context, req Request, onDelta func(string) error) error {
	return p.client.Stream(ctx, toOpenAI(req), onDelta)
}

func toOpenAI(req Request) openai.GenerateRequest {
	msgs := make([]openai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.Message{Role: m.Role, Content: m.Content})
	}
	return openai.GenerateRequest{
		Model:       req.Model,
		System:      req.System,
		Messages:    msgs,
		Temperature: req.Temperature,
		JSON:        req.JSON,
	}
}
