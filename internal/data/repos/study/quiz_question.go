package study

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type QuizQuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error)
	GetByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) ([]*types.QuizQuestion, error)
	SoftDeleteByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) error
}

type quizQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) Create(dbc dbctx.Context, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.QuizQuestion{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByQuizIDs returns questions ordered by quiz then position.
func (r *quizQuestionRepo) GetByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.QuizQuestion{}
	if len(quizIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("quiz_id IN ?", quizIDs).
		Order("quiz_id, position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizQuestionRepo) SoftDeleteByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quizIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("quiz_id IN ?", quizIDs).
		Delete(&types.QuizQuestion{}).Error
}
