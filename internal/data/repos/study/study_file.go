package study

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type StudyFileRepo interface {
	Create(dbc dbctx.Context, files []*types.StudyFile) ([]*types.StudyFile, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.StudyFile, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.StudyFile, error)
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type studyFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyFileRepo(db *gorm.DB, baseLog *logger.Logger) StudyFileRepo {
	return &studyFileRepo{db: db, log: baseLog.With("repo", "StudyFileRepo")}
}

func (r *studyFileRepo) Create(dbc dbctx.Context, files []*types.StudyFile) ([]*types.StudyFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(files) == 0 {
		return []*types.StudyFile{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *studyFileRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.StudyFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.StudyFile{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studyFileRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.StudyFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var f types.StudyFile
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FullDeleteByIDs removes rows permanently; the stored object is already gone.
func (r *studyFileRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.StudyFile{}).Error
}
