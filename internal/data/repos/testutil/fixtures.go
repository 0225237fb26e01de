package testutil

import (
	"context"
	"testing"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     "Test User",
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedNote(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string, tags ...string) *types.Note {
	tb.Helper()
	n := &types.Note{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   title,
		Content: "content for " + title,
		Tags:    datatypes.JSONSlice[string](append([]string{}, tags...)),
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed note: %v", err)
	}
	return n
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, questions int) *types.Quiz {
	tb.Helper()
	q := &types.Quiz{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "quiz",
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	for i := 0; i < questions; i++ {
		qq := &types.QuizQuestion{
			ID:       uuid.New(),
			QuizID:   q.ID,
			Position: i,
			Question: "question",
			Answer:   "answer",
		}
		if err := tx.WithContext(ctx).Create(qq).Error; err != nil {
			tb.Fatalf("seed quiz question: %v", err)
		}
	}
	return q
}
