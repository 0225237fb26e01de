package study

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type QuizRepo interface {
	Create(dbc dbctx.Context, quizzes []*types.Quiz) ([]*types.Quiz, error)
	ListByUserWithCounts(dbc dbctx.Context, userID uuid.UUID) ([]*types.Quiz, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Quiz, error)
	UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

// Create inserts quiz rows only; questions go through QuizQuestionRepo.
func (r *quizRepo) Create(dbc dbctx.Context, quizzes []*types.Quiz) ([]*types.Quiz, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quizzes) == 0 {
		return []*types.Quiz{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Omit(clause.Associations).Create(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepo) ListByUserWithCounts(dbc dbctx.Context, userID uuid.UUID) ([]*types.Quiz, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Quiz{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Quiz{}).
		Select(`quiz.*,
			(SELECT COUNT(*) FROM quiz_question qq WHERE qq.quiz_id = quiz.id AND qq.deleted_at IS NULL) AS question_count,
			(SELECT COUNT(*) FROM quiz_attempt qa WHERE qa.quiz_id = quiz.id AND qa.deleted_at IS NULL) AS attempt_count`).
		Where("quiz.user_id = ?", userID).
		Order("quiz.created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Quiz, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var quiz types.Quiz
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Quiz{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates).Error
}

func (r *quizRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Quiz{}).Error
}
