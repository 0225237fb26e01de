package study

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type FlashcardRepo interface {
	Create(dbc dbctx.Context, cards []*types.Flashcard) ([]*types.Flashcard, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, tag string) ([]*types.Flashcard, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Flashcard, error)
	UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID, since *time.Time) (int64, error)
	CountByTag(dbc dbctx.Context, userID uuid.UUID) (map[string]int64, error)
}

type flashcardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlashcardRepo(db *gorm.DB, baseLog *logger.Logger) FlashcardRepo {
	return &flashcardRepo{db: db, log: baseLog.With("repo", "FlashcardRepo")}
}

func (r *flashcardRepo) Create(dbc dbctx.Context, cards []*types.Flashcard) ([]*types.Flashcard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(cards) == 0 {
		return []*types.Flashcard{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *flashcardRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, tag string) ([]*types.Flashcard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Flashcard{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if tag != "" {
		tagJSON, err := json.Marshal([]string{tag})
		if err != nil {
			return nil, err
		}
		q = q.Where("tags @> ?::jsonb", string(tagJSON))
	}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *flashcardRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Flashcard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var card types.Flashcard
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *flashcardRepo) UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Flashcard{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates).Error
}

func (r *flashcardRepo) SoftDeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Flashcard{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *flashcardRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID, since *time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	q := transaction.WithContext(dbc.Ctx).Model(&types.Flashcard{}).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *flashcardRepo) CountByTag(dbc dbctx.Context, userID uuid.UUID) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		Tag   string
		Count int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Raw(`SELECT tag, COUNT(*) AS count
			FROM flashcard, jsonb_array_elements_text(CASE WHEN jsonb_typeof(flashcard.tags) = 'array' THEN flashcard.tags ELSE '[]'::jsonb END) AS tag
			WHERE flashcard.user_id = ? AND flashcard.deleted_at IS NULL
			GROUP BY tag`, userID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Tag] = row.Count
	}
	return out, nil
}
