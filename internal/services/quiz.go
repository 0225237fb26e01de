package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/modules/ai/structured"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const quizNotFound = "Quiz not found"

var ErrNoValidQuestions = apierr.Msg(http.StatusUnprocessableEntity, "no_valid_questions",
	"AI failed to generate any valid questions from the source text. Please try a different source.")

type QuizQuestionInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type QuizInput struct {
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Questions   []QuizQuestionInput `json:"questions"`
}

// QuizPatch replaces every question when Questions is non-nil.
type QuizPatch struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Questions   *[]QuizQuestionInput `json:"questions"`
}

type AttemptInput struct {
	Answers json.RawMessage `json:"answers"`
	Score   float64         `json:"score"`
}

type QuizService interface {
	ListQuizzes(ctx context.Context) ([]*types.Quiz, error)
	CreateQuiz(ctx context.Context, in QuizInput) (*types.Quiz, error)
	GetQuiz(ctx context.Context, id string) (*types.Quiz, error)
	UpdateQuiz(ctx context.Context, id string, patch QuizPatch) (*types.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
	CreateAttempt(ctx context.Context, quizID string, in AttemptInput) (*types.QuizAttempt, error)
	ListAttempts(ctx context.Context, quizID string) ([]*types.QuizAttempt, error)
	GenerateQuiz(ctx context.Context, in GenerateInput) (*types.Quiz, error)
}

type quizService struct {
	db           *gorm.DB
	log          *logger.Logger
	quizRepo     repos.QuizRepo
	questionRepo repos.QuizQuestionRepo
	attemptRepo  repos.QuizAttemptRepo
	ai           AIService
}

func NewQuizService(
	db *gorm.DB,
	log *logger.Logger,
	quizRepo repos.QuizRepo,
	questionRepo repos.QuizQuestionRepo,
	attemptRepo repos.QuizAttemptRepo,
	ai AIService,
) QuizService {
	return &quizService{
		db:           db,
		log:          log.With("service", "QuizService"),
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		ai:           ai,
	}
}

func (s *quizService) ListQuizzes(ctx context.Context) ([]*types.Quiz, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.quizRepo.ListByUserWithCounts(dbctx.From(ctx), userID)
}

func (s *quizService) CreateQuiz(ctx context.Context, in QuizInput) (*types.Quiz, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, badRequest("Title is required")
	}
	quiz := &types.Quiz{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: in.Description,
	}
	questions := buildQuestions(quiz.ID, in.Questions)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.quizRepo.Create(dbc, []*types.Quiz{quiz}); err != nil {
			return err
		}
		_, err := s.questionRepo.Create(dbc, questions)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	quiz.Questions = derefQuestions(questions)
	return quiz, nil
}

func (s *quizService) GetQuiz(ctx context.Context, id string) (*types.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.GetByQuizIDs(dbctx.From(ctx), []uuid.UUID{quiz.ID})
	if err != nil {
		return nil, fmt.Errorf("load quiz questions: %w", err)
	}
	quiz.Questions = derefQuestions(questions)
	return quiz, nil
}

func (s *quizService) UpdateQuiz(ctx context.Context, id string, patch QuizPatch) (*types.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, badRequest("Title is required")
		}
		quiz.Title = title
		updates["title"] = title
	}
	if patch.Description != nil {
		quiz.Description = patch.Description
		updates["description"] = *patch.Description
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.quizRepo.UpdateFields(dbc, quiz.UserID, quiz.ID, updates); err != nil {
			return err
		}
		if patch.Questions == nil {
			return nil
		}
		if err := s.questionRepo.SoftDeleteByQuizIDs(dbc, []uuid.UUID{quiz.ID}); err != nil {
			return err
		}
		_, err := s.questionRepo.Create(dbc, buildQuestions(quiz.ID, *patch.Questions))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	return s.GetQuiz(ctx, quiz.ID.String())
}

func (s *quizService) DeleteQuiz(ctx context.Context, id string) error {
	quiz, err := s.ownedQuiz(ctx, id)
	if err != nil {
		return err
	}
	ids := []uuid.UUID{quiz.ID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.attemptRepo.SoftDeleteByQuizIDs(dbc, ids); err != nil {
			return err
		}
		if err := s.questionRepo.SoftDeleteByQuizIDs(dbc, ids); err != nil {
			return err
		}
		return s.quizRepo.SoftDeleteByIDs(dbc, ids)
	})
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

func (s *quizService) CreateAttempt(ctx context.Context, quizID string, in AttemptInput) (*types.QuizAttempt, error) {
	quiz, err := s.ownedQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	answers := datatypes.JSON(in.Answers)
	if len(strings.TrimSpace(string(answers))) == 0 {
		answers = datatypes.JSON("[]")
	}
	if !json.Valid(answers) {
		return nil, badRequest("answers must be valid JSON")
	}
	attempt := &types.QuizAttempt{
		ID:      uuid.New(),
		QuizID:  quiz.ID,
		UserID:  quiz.UserID,
		Score:   in.Score,
		Answers: answers,
	}
	if _, err := s.attemptRepo.Create(dbctx.From(ctx), []*types.QuizAttempt{attempt}); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	return attempt, nil
}

func (s *quizService) ListAttempts(ctx context.Context, quizID string) ([]*types.QuizAttempt, error) {
	quiz, err := s.ownedQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.attemptRepo.ListByQuizAndUser(dbctx.From(ctx), quiz.ID, quiz.UserID)
}

// GenerateQuiz stores a model-written multiple choice quiz in question/answer
// form, keeping the options and explanation in the question text.
func (s *quizService) GenerateQuiz(ctx context.Context, in GenerateInput) (*types.Quiz, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.SourceText)
	if source == "" {
		return nil, badRequest("sourceText is required")
	}
	subject := orDefault(in.Subject, defaultSubject)
	title := orDefault(in.Title, subject+" Quiz")
	if s.ai == nil {
		return nil, ErrNoValidQuestions
	}

	generated, err := s.ai.GenerateQuiz(ctx, GenerateInput{
		SourceText: source,
		Title:      title,
		Subject:    subject,
		Count:      clampCount(in.Count, defaultQuizCount, maxQuizCount),
	})
	if err != nil {
		return nil, err
	}
	questions := QuestionsFromMCQ(generated.Questions)
	if len(questions) == 0 {
		return nil, ErrNoValidQuestions
	}
	description := fmt.Sprintf("Generated by AI from %s source.", subject)
	return s.CreateQuiz(ctx, QuizInput{
		Title:       orDefault(generated.Title, title),
		Description: &description,
		Questions:   questions,
	})
}

func (s *quizService) ownedQuiz(ctx context.Context, id string) (*types.Quiz, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	quizID, err := parseID(id, quizNotFound)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetForUser(dbctx.From(ctx), userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, notFound(quizNotFound)
	}
	return quiz, nil
}

// QuestionsFromMCQ flattens multiple choice questions into question/answer
// pairs, dropping any without a question or a resolvable answer.
func QuestionsFromMCQ(items []structured.QuizQuestion) []QuizQuestionInput {
	out := make([]QuizQuestionInput, 0, len(items))
	for _, q := range items {
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			continue
		}
		answer := strings.TrimSpace(q.Options[q.AnswerIndex])
		question := strings.TrimSpace(q.Question)
		if question == "" || answer == "" {
			continue
		}
		var sb strings.Builder
		sb.WriteString(question)
		sb.WriteString("\n\nOptions:\n")
		for i, opt := range q.Options {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "  %d. %s", i+1, opt)
		}
		explanation := strings.TrimSpace(q.Explanation)
		if explanation == "" {
			explanation = "N/A"
		}
		sb.WriteString("\n\nExplanation:\n")
		sb.WriteString(explanation)
		out = append(out, QuizQuestionInput{Question: sb.String(), Answer: answer})
	}
	return out
}

func buildQuestions(quizID uuid.UUID, in []QuizQuestionInput) []*types.QuizQuestion {
	out := make([]*types.QuizQuestion, 0, len(in))
	for _, q := range in {
		out = append(out, &types.QuizQuestion{
			ID:       uuid.New(),
			QuizID:   quizID,
			Position: len(out),
			Question: q.Question,
			Answer:   q.Answer,
		})
	}
	return out
}

func derefQuestions(in []*types.QuizQuestion) []types.QuizQuestion {
	out := make([]types.QuizQuestion, 0, len(in))
	for _, q := range in {
		out = append(out, *q)
	}
	return out
}
