package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/fallback"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/structured"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const flashcardNotFound = "Flashcard not found"

type FlashcardInput struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty"`
}

type FlashcardPatch struct {
	Question   *string   `json:"question"`
	Answer     *string   `json:"answer"`
	Tags       *[]string `json:"tags"`
	Difficulty *string   `json:"difficulty"`
}

type FlashcardStats struct {
	Total            int64            `json:"total"`
	CreatedLast7Days int64            `json:"createdLast7Days"`
	ByTag            map[string]int64 `json:"byTag"`
}

type FlashcardService interface {
	ListFlashcards(ctx context.Context, tag string) ([]*types.Flashcard, error)
	CreateFlashcard(ctx context.Context, in FlashcardInput) (*types.Flashcard, error)
	GetFlashcard(ctx context.Context, id string) (*types.Flashcard, error)
	UpdateFlashcard(ctx context.Context, id string, patch FlashcardPatch) (*types.Flashcard, error)
	DeleteFlashcard(ctx context.Context, id string) error
	GenerateFlashcards(ctx context.Context, in GenerateInput) ([]*types.Flashcard, error)
	Stats(ctx context.Context) (*FlashcardStats, error)
}

type flashcardService struct {
	db            *gorm.DB
	log           *logger.Logger
	flashcardRepo repos.FlashcardRepo
	ai            AIService
	now           func() time.Time
}

func NewFlashcardService(db *gorm.DB, log *logger.Logger, flashcardRepo repos.FlashcardRepo, ai AIService) FlashcardService {
	return &flashcardService{
		db:            db,
		log:           log.With("service", "FlashcardService"),
		flashcardRepo: flashcardRepo,
		ai:            ai,
		now:           time.Now,
	}
}

func (s *flashcardService) ListFlashcards(ctx context.Context, tag string) ([]*types.Flashcard, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.flashcardRepo.ListByUser(dbctx.From(ctx), userID, strings.TrimSpace(tag))
}

func (s *flashcardService) CreateFlashcard(ctx context.Context, in FlashcardInput) (*types.Flashcard, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	card, err := buildFlashcard(userID, in)
	if err != nil {
		return nil, err
	}
	if _, err := s.flashcardRepo.Create(dbctx.From(ctx), []*types.Flashcard{card}); err != nil {
		return nil, fmt.Errorf("create flashcard: %w", err)
	}
	return card, nil
}

func (s *flashcardService) GetFlashcard(ctx context.Context, id string) (*types.Flashcard, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	cardID, err := parseID(id, flashcardNotFound)
	if err != nil {
		return nil, err
	}
	card, err := s.flashcardRepo.GetForUser(dbctx.From(ctx), userID, cardID)
	if err != nil {
		return nil, fmt.Errorf("load flashcard: %w", err)
	}
	if card == nil {
		return nil, notFound(flashcardNotFound)
	}
	return card, nil
}

func (s *flashcardService) UpdateFlashcard(ctx context.Context, id string, patch FlashcardPatch) (*types.Flashcard, error) {
	card, err := s.GetFlashcard(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Question != nil {
		q := strings.TrimSpace(*patch.Question)
		if q == "" {
			return nil, badRequest("Question and answer are required")
		}
		card.Question = q
		updates["question"] = q
	}
	if patch.Answer != nil {
		a := strings.TrimSpace(*patch.Answer)
		if a == "" {
			return nil, badRequest("Question and answer are required")
		}
		card.Answer = a
		updates["answer"] = a
	}
	if patch.Tags != nil {
		card.Tags = normalizeTags(*patch.Tags)
		updates["tags"] = card.Tags
	}
	if patch.Difficulty != nil {
		d, err := parseDifficulty(*patch.Difficulty)
		if err != nil {
			return nil, err
		}
		card.Difficulty = d
		updates["difficulty"] = d
	}
	if err := s.flashcardRepo.UpdateFields(dbctx.From(ctx), card.UserID, card.ID, updates); err != nil {
		return nil, fmt.Errorf("update flashcard: %w", err)
	}
	return card, nil
}

func (s *flashcardService) DeleteFlashcard(ctx context.Context, id string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	cardID, err := parseID(id, flashcardNotFound)
	if err != nil {
		return err
	}
	deleted, err := s.flashcardRepo.SoftDeleteForUser(dbctx.From(ctx), userID, cardID)
	if err != nil {
		return fmt.Errorf("delete flashcard: %w", err)
	}
	if !deleted {
		return notFound(flashcardNotFound)
	}
	return nil
}

// GenerateFlashcards asks the model for cards and falls back to the sentence
// heuristic on any failure, then stores every card in one transaction.
func (s *flashcardService) GenerateFlashcards(ctx context.Context, in GenerateInput) ([]*types.Flashcard, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.SourceText)
	if source == "" {
		return nil, badRequest("sourceText is required")
	}
	subject := orDefault(in.Subject, defaultSubject)
	count := clampCount(in.Count, defaultFlashcards, maxFlashcards)

	var generated []structured.Flashcard
	if s.ai != nil {
		generated, err = s.ai.GenerateFlashcards(ctx, GenerateInput{SourceText: source, Subject: subject, Count: count})
		if err != nil {
			s.log.Warn("AI flashcard generation failed; using heuristic", "user_id", userID, "error", err)
		}
	}
	cards := flashcardsFrom(userID, subject, generated)
	if len(cards) == 0 {
		cards = flashcardsFrom(userID, subject, heuristicFlashcards(source, subject, count))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.flashcardRepo.Create(dbctx.Context{Ctx: ctx, Tx: tx}, cards)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("save generated flashcards: %w", err)
	}
	s.log.Info("Flashcards generated", "user_id", userID, "count", len(cards))
	return cards, nil
}

func (s *flashcardService) Stats(ctx context.Context) (*FlashcardStats, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.From(ctx)
	total, err := s.flashcardRepo.CountByUser(dbc, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("count flashcards: %w", err)
	}
	since := s.now().Add(-7 * 24 * time.Hour)
	recent, err := s.flashcardRepo.CountByUser(dbc, userID, &since)
	if err != nil {
		return nil, fmt.Errorf("count recent flashcards: %w", err)
	}
	byTag, err := s.flashcardRepo.CountByTag(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("count flashcards by tag: %w", err)
	}
	return &FlashcardStats{Total: total, CreatedLast7Days: recent, ByTag: byTag}, nil
}

func buildFlashcard(userID uuid.UUID, in FlashcardInput) (*types.Flashcard, error) {
	q := strings.TrimSpace(in.Question)
	a := strings.TrimSpace(in.Answer)
	if q == "" || a == "" {
		return nil, badRequest("Question and answer are required")
	}
	d, err := parseDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}
	return &types.Flashcard{
		ID:         uuid.New(),
		UserID:     userID,
		Question:   q,
		Answer:     a,
		Tags:       normalizeTags(in.Tags),
		Difficulty: d,
	}, nil
}

func parseDifficulty(raw string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	if !types.ValidDifficulty(d) {
		return "", badRequest("Difficulty must be one of easy, medium or hard")
	}
	return d, nil
}

// flashcardsFrom maps generated front/back cards to rows, dropping blanks.
// heuristicFlashcards is the stored fallback deck. Difficulty is left unset
// since the heuristic cannot judge it.
func heuristicFlashcards(source, subject string, count int) []structured.Flashcard {
	cards := fallback.Flashcards(source, subject, count)
	for i := range cards {
		cards[i].Difficulty = ""
	}
	return cards
}

func flashcardsFrom(userID uuid.UUID, subject string, cards []structured.Flashcard) []*types.Flashcard {
	out := make([]*types.Flashcard, 0, len(cards))
	for _, c := range cards {
		q := strings.TrimSpace(c.Front)
		a := strings.TrimSpace(c.Back)
		if q == "" || a == "" {
			continue
		}
		d := structured.NormalizeDifficulty(c.Difficulty)
		out = append(out, &types.Flashcard{
			ID:         uuid.New(),
			UserID:     userID,
			Question:   q,
			Answer:     a,
			Tags:       normalizeTags([]string{orDefault(c.Subject, subject)}),
			Difficulty: d,
		})
	}
	return out
}
