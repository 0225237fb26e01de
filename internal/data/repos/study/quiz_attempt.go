package study

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type QuizAttemptRepo interface {
	Create(dbc dbctx.Context, attempts []*types.QuizAttempt) ([]*types.QuizAttempt, error)
	ListByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) ([]*types.QuizAttempt, error)
	SoftDeleteByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) error
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	repoLog := baseLog.With("repo", "QuizAttemptRepo")
	return &quizAttemptRepo{db: db, log: repoLog}
}

func (r *quizAttemptRepo) Create(dbc dbctx.Context, attempts []*types.QuizAttempt) ([]*types.QuizAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(attempts) == 0 {
		return []*types.QuizAttempt{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *quizAttemptRepo) ListByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) ([]*types.QuizAttempt, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.QuizAttempt{}
	if quizID == uuid.Nil || userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizAttemptRepo) SoftDeleteByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quizIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("quiz_id IN ?", quizIDs).
		Delete(&types.QuizAttempt{}).Error
}
