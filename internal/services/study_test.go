package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos/testutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/llm"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/structured"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/ctxutil"
)

// stubAI serves canned generation results to the resource services.
type stubAI struct {
	AIService
	cards    []structured.Flashcard
	quiz     structured.Quiz
	err      error
	lastQuiz GenerateInput
}

func (s *stubAI) GenerateFlashcards(_ context.Context, _ GenerateInput) ([]structured.Flashcard, error) {
	return s.cards, s.err
}

func (s *stubAI) GenerateQuiz(_ context.Context, in GenerateInput) (structured.Quiz, error) {
	s.lastQuiz = in
	return s.quiz, s.err
}

func asUser(id uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id})
}

func TestQuestionsFromMCQ(t *testing.T) {
	got := QuestionsFromMCQ([]structured.QuizQuestion{
		{Question: "What powers the cell?", Options: []string{"Nucleus", "Mitochondria"}, AnswerIndex: 1, Explanation: "Energy."},
		{Question: "No explanation", Options: []string{"A", "B"}, AnswerIndex: 0},
		{Question: "Out of range", Options: []string{"A", "B"}, AnswerIndex: 2},
		{Question: " ", Options: []string{"A", "B"}, AnswerIndex: 0},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	want := "What powers the cell?\n\nOptions:\n  1. Nucleus\n  2. Mitochondria\n\nExplanation:\nEnergy."
	if got[0].Question != want || got[0].Answer != "Mitochondria" {
		t.Fatalf("unexpected mapping: %+v", got[0])
	}
	if !strings.HasSuffix(got[1].Question, "Explanation:\nN/A") {
		t.Fatalf("expected N/A explanation, got %q", got[1].Question)
	}
}

func TestFlashcardsFromDropsBlanks(t *testing.T) {
	uid := uuid.New()
	cards := flashcardsFrom(uid, "Biology", []structured.Flashcard{
		{Front: "Q", Back: "A", Difficulty: "hard"},
		{Front: "Q2", Back: "A2", Subject: "Chemistry"},
		{Front: "", Back: "A3"},
	})
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].Tags[0] != "Biology" || cards[0].Difficulty != "hard" || cards[0].UserID != uid {
		t.Fatalf("unexpected first card: %+v", cards[0])
	}
	if cards[1].Tags[0] != "Chemistry" {
		t.Fatalf("card subject should become its tag: %+v", cards[1])
	}
}

func TestHeuristicFlashcardsLeaveDifficultyUnset(t *testing.T) {
	cards := flashcardsFrom(uuid.New(), "Science", heuristicFlashcards("Cells are small. Atoms are smaller.", "Science", 3))
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	for _, c := range cards {
		if c.Difficulty != "" {
			t.Fatalf("fallback card carries a difficulty: %+v", c)
		}
	}
}

func TestBuildFlashcardValidation(t *testing.T) {
	if _, err := buildFlashcard(uuid.New(), FlashcardInput{Question: " ", Answer: "a"}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank question, got %v", err)
	}
	if _, err := buildFlashcard(uuid.New(), FlashcardInput{Question: "q", Answer: "a", Difficulty: "extreme"}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad difficulty, got %v", err)
	}
	card, err := buildFlashcard(uuid.New(), FlashcardInput{Question: " q ", Answer: " a ", Difficulty: "Medium", Tags: []string{"x", "x", " "}})
	if err != nil || card.Question != "q" || card.Difficulty != "medium" || len(card.Tags) != 1 {
		t.Fatalf("unexpected card %+v err=%v", card, err)
	}
}

func TestFlashcardServiceGenerateFallsBack(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	u := testutil.SeedUser(t, context.Background(), tx, "fc-"+uuid.NewString()+"@example.com")
	ctx := asUser(u.ID)
	svc := NewFlashcardService(tx, log, repos.NewFlashcardRepo(tx, log), &stubAI{err: llm.ErrUnavailable})

	cards, err := svc.GenerateFlashcards(ctx, GenerateInput{SourceText: "Cells are small. Atoms are smaller.", Subject: "Science", Count: 3})
	if err != nil {
		t.Fatalf("GenerateFlashcards: %v", err)
	}
	if len(cards) != 3 || !strings.HasPrefix(cards[0].Question, "What is the key idea of") || cards[0].Tags[0] != "Science" || cards[1].Difficulty != "" {
		t.Fatalf("unexpected fallback cards: %+v", cards)
	}

	if _, err := svc.GenerateFlashcards(ctx, GenerateInput{}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty source, got %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.CreatedLast7Days != 3 || stats.ByTag["Science"] != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	listed, err := svc.ListFlashcards(ctx, "Science")
	if err != nil || len(listed) != 3 {
		t.Fatalf("ListFlashcards: err=%v len=%d", err, len(listed))
	}
	if err := svc.DeleteFlashcard(ctx, listed[0].ID.String()); err != nil {
		t.Fatalf("DeleteFlashcard: %v", err)
	}
	if _, err := svc.GetFlashcard(ctx, listed[0].ID.String()); apierr.StatusOf(err, 0) != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
	if _, err := svc.GetFlashcard(ctx, "not-a-uuid"); apierr.StatusOf(err, 0) != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %v", err)
	}
}

func newTestQuizService(t *testing.T, ai AIService) (QuizService, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	u := testutil.SeedUser(t, context.Background(), tx, "quiz-"+uuid.NewString()+"@example.com")
	svc := NewQuizService(tx, log,
		repos.NewQuizRepo(tx, log),
		repos.NewQuizQuestionRepo(tx, log),
		repos.NewQuizAttemptRepo(tx, log),
		ai,
	)
	return svc, asUser(u.ID)
}

func TestQuizServiceLifecycle(t *testing.T) {
	svc, ctx := newTestQuizService(t, nil)

	if _, err := svc.CreateQuiz(ctx, QuizInput{Title: "  "}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %v", err)
	}
	quiz, err := svc.CreateQuiz(ctx, QuizInput{
		Title:     "Cells",
		Questions: []QuizQuestionInput{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}},
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	newTitle := "Cells 2"
	updated, err := svc.UpdateQuiz(ctx, quiz.ID.String(), QuizPatch{
		Title:     &newTitle,
		Questions: &[]QuizQuestionInput{{Question: "only", Answer: "one"}},
	})
	if err != nil {
		t.Fatalf("UpdateQuiz: %v", err)
	}
	if updated.Title != newTitle || len(updated.Questions) != 1 || updated.Questions[0].Question != "only" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	attempt, err := svc.CreateAttempt(ctx, quiz.ID.String(), AttemptInput{Answers: json.RawMessage(`[{"questionId":"x","selectedAnswer":"y"}]`), Score: 1})
	if err != nil || attempt.Score != 1 {
		t.Fatalf("CreateAttempt: %+v err=%v", attempt, err)
	}
	results, err := svc.ListAttempts(ctx, quiz.ID.String())
	if err != nil || len(results) != 1 {
		t.Fatalf("ListAttempts: err=%v len=%d", err, len(results))
	}

	listed, err := svc.ListQuizzes(ctx)
	if err != nil || len(listed) != 1 || listed[0].QuestionCount != 1 || listed[0].AttemptCount != 1 {
		t.Fatalf("ListQuizzes: err=%v %+v", err, listed)
	}

	if err := svc.DeleteQuiz(ctx, quiz.ID.String()); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if _, err := svc.GetQuiz(ctx, quiz.ID.String()); apierr.StatusOf(err, 0) != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
	if _, err := svc.GetQuiz(asUser(uuid.New()), quiz.ID.String()); apierr.StatusOf(err, 0) != http.StatusNotFound {
		t.Fatalf("foreign user must see 404, got %v", err)
	}
}

func TestQuizServiceGenerate(t *testing.T) {
	ai := &stubAI{quiz: structured.Quiz{
		Questions: []structured.QuizQuestion{
			{Question: "What powers the cell?", Options: []string{"Nucleus", "Mitochondria"}, AnswerIndex: 1},
		},
	}}
	svc, ctx := newTestQuizService(t, ai)

	quiz, err := svc.GenerateQuiz(ctx, GenerateInput{SourceText: "Mitochondria power the cell.", Subject: "Biology", Count: 40})
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if quiz.Title != "Biology Quiz" || quiz.Description == nil || *quiz.Description != "Generated by AI from Biology source." {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].Answer != "Mitochondria" {
		t.Fatalf("unexpected questions: %+v", quiz.Questions)
	}
	if ai.lastQuiz.Count != maxQuizCount {
		t.Fatalf("count should be capped at %d, got %d", maxQuizCount, ai.lastQuiz.Count)
	}

	ai.quiz = structured.Quiz{}
	if _, err := svc.GenerateQuiz(ctx, GenerateInput{SourceText: "x"}); !errors.Is(err, ErrNoValidQuestions) {
		t.Fatalf("expected no valid questions error, got %v", err)
	}
	if _, err := svc.GenerateQuiz(ctx, GenerateInput{}); apierr.StatusOf(err, 0) != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty source, got %v", err)
	}
}
