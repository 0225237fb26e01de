package study

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos/testutil"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
)

func TestQuizRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	log := testutil.Logger(t)
	quizzes := NewQuizRepo(db, log)
	questions := NewQuizQuestionRepo(db, log)
	attempts := NewQuizAttemptRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "quizrepo@example.com")
	quiz := testutil.SeedQuiz(t, ctx, tx, u.ID, 3)

	if _, err := attempts.Create(dbc, []*types.QuizAttempt{{
		ID:      uuid.New(),
		QuizID:  quiz.ID,
		UserID:  u.ID,
		Score:   2,
		Answers: datatypes.JSON([]byte(`[{"questionId":"x","selectedAnswer":"y"}]`)),
	}}); err != nil {
		t.Fatalf("attempts.Create: %v", err)
	}

	listed, err := quizzes.ListByUserWithCounts(dbc, u.ID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListByUserWithCounts: err=%v len=%d", err, len(listed))
	}
	if listed[0].QuestionCount != 3 || listed[0].AttemptCount != 1 {
		t.Fatalf("ListByUserWithCounts: counts q=%d a=%d", listed[0].QuestionCount, listed[0].AttemptCount)
	}

	qs, err := questions.GetByQuizIDs(dbc, []uuid.UUID{quiz.ID})
	if err != nil || len(qs) != 3 {
		t.Fatalf("GetByQuizIDs: err=%v len=%d", err, len(qs))
	}
	for i, q := range qs {
		if q.Position != i {
			t.Fatalf("GetByQuizIDs: position order broken at %d: %d", i, q.Position)
		}
	}

	if rows, err := attempts.ListByQuizAndUser(dbc, quiz.ID, u.ID); err != nil || len(rows) != 1 {
		t.Fatalf("ListByQuizAndUser: err=%v len=%d", err, len(rows))
	}

	if err := questions.SoftDeleteByQuizIDs(dbc, []uuid.UUID{quiz.ID}); err != nil {
		t.Fatalf("SoftDeleteByQuizIDs: %v", err)
	}
	if err := attempts.SoftDeleteByQuizIDs(dbc, []uuid.UUID{quiz.ID}); err != nil {
		t.Fatalf("attempts.SoftDeleteByQuizIDs: %v", err)
	}
	if err := quizzes.SoftDeleteByIDs(dbc, []uuid.UUID{quiz.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, err := quizzes.GetForUser(dbc, u.ID, quiz.ID); err != nil || got != nil {
		t.Fatalf("GetForUser after delete: err=%v got=%+v", err, got)
	}
}

func TestStudyFileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewStudyFileRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "studyfilerepo@example.com")
	created, err := repo.Create(dbc, []*types.StudyFile{{
		ID:         uuid.New(),
		UserID:     u.ID,
		Name:       "notes.pdf",
		Path:       "http://localhost:5000/uploads/study_files/1-notes.pdf",
		StorageKey: "study_files/1-notes.pdf",
	}})
	if err != nil || len(created) != 1 {
		t.Fatalf("Create: err=%v len=%d", err, len(created))
	}
	if got, err := repo.GetForUser(dbc, u.ID, created[0].ID); err != nil || got == nil {
		t.Fatalf("GetForUser: err=%v got=%+v", err, got)
	}
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{created[0].ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID); err != nil || len(rows) != 0 {
		t.Fatalf("ListByUser after delete: err=%v len=%d", err, len(rows))
	}
}
