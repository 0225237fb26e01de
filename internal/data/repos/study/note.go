package study

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type NoteRepo interface {
	Create(dbc dbctx.Context, notes []*types.Note) ([]*types.Note, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Note, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Note, error)
	UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
	Search(dbc dbctx.Context, userID uuid.UUID, query string) ([]*types.Note, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(dbc dbctx.Context, notes []*types.Note) ([]*types.Note, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(notes) == 0 {
		return []*types.Note{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Note, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Note{}
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

// GetForUser returns nil, nil when the note does not exist or belongs to someone else.
func (r *noteRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Note, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var note types.Note
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepo) UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates).Error
}

func (r *noteRepo) SoftDeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Note{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Search matches title or content case-insensitively, or an exact tag.
func (r *noteRepo) Search(dbc dbctx.Context, userID uuid.UUID, query string) ([]*types.Note, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Note{}
	query = strings.TrimSpace(query)
	if userID == uuid.Nil || query == "" {
		return out, nil
	}
	tagJSON, err := json.Marshal([]string{query})
	if err != nil {
		return nil, err
	}
	pattern := "%" + EscapeLike(query) + "%"
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Where("title ILIKE ? OR content ILIKE ? OR tags @> ?::jsonb", pattern, pattern, string(tagJSON)).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// EscapeLike escapes LIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
