package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/clients/redis"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/extract"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/fallback"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/llm"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/prompts"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/structured"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const (
	defaultSubject      = "General"
	defaultFlashcards   = 5
	maxFlashcards       = 20
	defaultQuizCount    = 5
	maxQuizCount        = 15
	defaultMaxSourceLen = 120000
)

// LLM is the slice of the gateway the services use.
type LLM interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
	Stream(ctx context.Context, req llm.Request, onDelta func(delta string) error) error
}

type PDFExtractor interface {
	Run(ctx context.Context, pdf []byte) (*extract.Result, error)
}

// ChatMessage is the client-held conversation turn. It is never stored.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

type GenerateInput struct {
	SourceText string `json:"sourceText"`
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	Count      int    `json:"count"`
	Style      string `json:"style"`
}

type AIConfig struct {
	MaxSourceChars int
}

type AIService interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
	StreamChat(ctx context.Context, prompt string, onDelta func(delta string) error) error
	SummarizeText(ctx context.Context, text string) (string, error)
	SummarizePDF(ctx context.Context, pdf []byte) (string, error)
	GenerateFlashcards(ctx context.Context, in GenerateInput) ([]structured.Flashcard, error)
	GenerateNote(ctx context.Context, in GenerateInput) (structured.Note, error)
	GenerateQuiz(ctx context.Context, in GenerateInput) (structured.Quiz, error)
	Explain(ctx context.Context, sourceText, question string) (string, error)
}

type aiService struct {
	log     *logger.Logger
	llm     LLM
	catalog *prompts.Catalog
	pdf     PDFExtractor
	cache   redis.Cache
	cfg     AIConfig
}

func NewAIService(log *logger.Logger, gateway LLM, catalog *prompts.Catalog, pdf PDFExtractor, cache redis.Cache, cfg AIConfig) AIService {
	if cfg.MaxSourceChars <= 0 {
		cfg.MaxSourceChars = defaultMaxSourceLen
	}
	if cache == nil {
		cache = redis.NewCache(log, nil, 0)
	}
	return &aiService{
		log:     log.With("service", "AIService"),
		llm:     gateway,
		catalog: catalog,
		pdf:     pdf,
		cache:   cache,
		cfg:     cfg,
	}
}

func (s *aiService) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", badRequest("messages array required")
	}
	msgs := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			return "", badRequest(fmt.Sprintf("Invalid message role %q; expected user or assistant", m.Role))
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	if len(msgs) == 0 {
		return "", badRequest("messages array required")
	}
	p, err := s.catalog.Build(prompts.PromptTutor, prompts.Input{})
	if err != nil {
		return "", err
	}
	return s.llm.Generate(ctx, llm.Request{System: p.System, Messages: msgs, Temperature: p.Temperature})
}

func (s *aiService) StreamChat(ctx context.Context, prompt string, onDelta func(delta string) error) error {
	if strings.TrimSpace(prompt) == "" {
		return badRequest("prompt required")
	}
	p, err := s.catalog.Build(prompts.PromptTutor, prompts.Input{})
	if err != nil {
		return err
	}
	return s.llm.Stream(ctx, llm.Request{
		System:      p.System,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: p.Temperature,
	}, onDelta)
}

func (s *aiService) SummarizeText(ctx context.Context, text string) (string, error) {
	source := s.source(text)
	if source == "" {
		return "", badRequest("File field 'file' is required (multipart/form-data) or provide 'text'")
	}
	return s.run(ctx, prompts.PromptSummarize, prompts.Input{SourceText: source})
}

func (s *aiService) SummarizePDF(ctx context.Context, pdf []byte) (string, error) {
	if s.pdf == nil {
		return "", extract.ErrUnreadable
	}
	res, err := s.pdf.Run(ctx, pdf)
	if err != nil {
		return "", err
	}
	if res.Summarized {
		return res.Text, nil
	}
	return s.SummarizeText(ctx, res.Text)
}

func (s *aiService) GenerateFlashcards(ctx context.Context, in GenerateInput) ([]structured.Flashcard, error) {
	source := s.source(in.SourceText)
	if source == "" {
		return nil, badRequest("sourceText required")
	}
	subject := orDefault(in.Subject, defaultSubject)
	count := clampCount(in.Count, defaultFlashcards, maxFlashcards)

	text, err := s.run(ctx, prompts.PromptFlashcards, prompts.Input{SourceText: source, Subject: subject, Count: count})
	if err != nil {
		return nil, err
	}
	cards, err := structured.DecodeFlashcards(text, subject)
	if err != nil {
		s.log.Warn("Flashcard output unusable; using fallback", "error", err)
		return fallback.Flashcards(source, subject, count), nil
	}
	if len(cards) > count {
		cards = cards[:count]
	}
	return cards, nil
}

func (s *aiService) GenerateNote(ctx context.Context, in GenerateInput) (structured.Note, error) {
	source := s.source(in.SourceText)
	if source == "" {
		return structured.Note{}, badRequest("sourceText required")
	}
	style := normalizeStyle(in.Style)
	subject := strings.TrimSpace(in.Subject)

	name := prompts.NotesPrompt(style)
	text, err := s.run(ctx, name, prompts.Input{SourceText: source, Subject: orDefault(subject, defaultSubject), Style: style})
	if err != nil {
		return structured.Note{}, err
	}
	fb := fallback.Note(source, subject, style)
	note, err := structured.DecodeNote(text)
	if err != nil {
		s.log.Warn("Note output unusable; using fallback", "error", err)
		return fb, nil
	}
	if note.Title == "" {
		note.Title = fb.Title
	}
	if note.Subject == "" {
		note.Subject = fb.Subject
	}
	return note, nil
}

func (s *aiService) GenerateQuiz(ctx context.Context, in GenerateInput) (structured.Quiz, error) {
	source := s.source(in.SourceText)
	if source == "" {
		return structured.Quiz{}, badRequest("sourceText required")
	}
	subject := orDefault(in.Subject, defaultSubject)
	count := clampCount(in.Count, defaultQuizCount, maxQuizCount)

	text, err := s.run(ctx, prompts.PromptQuiz, prompts.Input{SourceText: source, Subject: subject, Count: count})
	if err != nil {
		return structured.Quiz{}, err
	}
	defaultTitle := orDefault(in.Title, subject+" Quiz")
	quiz, err := structured.DecodeQuiz(text)
	if err != nil {
		s.log.Warn("Quiz output unusable; using fallback", "error", err)
		quiz = fallback.Quiz(source, subject, count)
		quiz.Title = defaultTitle
		return quiz, nil
	}
	if len(quiz.Questions) > count {
		quiz.Questions = quiz.Questions[:count]
	}
	if quiz.Title == "" {
		quiz.Title = defaultTitle
	}
	return quiz, nil
}

func (s *aiService) Explain(ctx context.Context, sourceText, question string) (string, error) {
	source := s.source(sourceText)
	if source == "" {
		return "", badRequest("sourceText required")
	}
	return s.run(ctx, prompts.PromptExplain, prompts.Input{SourceText: source, Question: strings.TrimSpace(question)})
}

// run renders the prompt and calls the gateway through the response cache.
// The raw model text is cached, so parsing and fallback stay deterministic.
func (s *aiService) run(ctx context.Context, name prompts.PromptName, in prompts.Input) (string, error) {
	p, err := s.catalog.Build(name, in)
	if err != nil {
		var inputErr *prompts.InputError
		if errors.As(err, &inputErr) {
			return "", badRequest(err.Error())
		}
		return "", fmt.Errorf("build %s prompt: %w", name, err)
	}
	parts := []string{
		strconv.Itoa(p.Version),
		in.Subject,
		strconv.Itoa(in.Count),
		in.Style,
		in.Question,
		in.SourceText,
	}
	out, err := s.cache.GetOrCompute(ctx, string(name), parts, func(ctx context.Context) ([]byte, error) {
		text, err := s.llm.Generate(ctx, llm.Request{
			System:      p.System,
			Messages:    []llm.Message{{Role: "user", Content: p.User}},
			Temperature: p.Temperature,
			JSON:        p.JSON,
		})
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", errors.New("empty model output")
	}
	return text, nil
}

func (s *aiService) source(text string) string {
	return fallback.Truncate(strings.TrimSpace(text), s.cfg.MaxSourceChars)
}

func clampCount(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func normalizeStyle(style string) string {
	switch s := strings.ToLower(strings.TrimSpace(style)); s {
	case "concise", "detailed", "outline":
		return s
	default:
		return "concise"
	}
}
