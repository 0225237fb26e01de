package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const noteNotFound = "Note not found"

type NoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// NotePatch carries a partial update; nil fields keep their stored value.
type NotePatch struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

type NoteService interface {
	ListNotes(ctx context.Context) ([]*types.Note, error)
	CreateNote(ctx context.Context, in NoteInput) (*types.Note, error)
	GetNote(ctx context.Context, id string) (*types.Note, error)
	UpdateNote(ctx context.Context, id string, patch NotePatch) (*types.Note, error)
	DeleteNote(ctx context.Context, id string) error
	ImportNotes(ctx context.Context, notes []NoteInput) (int, error)
	SearchNotes(ctx context.Context, query string) ([]*types.Note, error)
}

type noteService struct {
	db       *gorm.DB
	log      *logger.Logger
	noteRepo repos.NoteRepo
}

func NewNoteService(db *gorm.DB, log *logger.Logger, noteRepo repos.NoteRepo) NoteService {
	return &noteService{db: db, log: log.With("service", "NoteService"), noteRepo: noteRepo}
}

func (s *noteService) ListNotes(ctx context.Context) ([]*types.Note, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.noteRepo.ListByUser(dbctx.From(ctx), userID)
}

func (s *noteService) CreateNote(ctx context.Context, in NoteInput) (*types.Note, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	note, err := buildNote(userID, in)
	if err != nil {
		return nil, err
	}
	if _, err := s.noteRepo.Create(dbctx.From(ctx), []*types.Note{note}); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *noteService) GetNote(ctx context.Context, id string) (*types.Note, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	noteID, err := parseID(id, noteNotFound)
	if err != nil {
		return nil, err
	}
	note, err := s.noteRepo.GetForUser(dbctx.From(ctx), userID, noteID)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	if note == nil {
		return nil, notFound(noteNotFound)
	}
	return note, nil
}

func (s *noteService) UpdateNote(ctx context.Context, id string, patch NotePatch) (*types.Note, error) {
	note, err := s.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		note.Title = strings.TrimSpace(*patch.Title)
		updates["title"] = note.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
		updates["content"] = note.Content
	}
	if patch.Tags != nil {
		note.Tags = normalizeTags(*patch.Tags)
		updates["tags"] = note.Tags
	}
	if err := s.noteRepo.UpdateFields(dbctx.From(ctx), note.UserID, note.ID, updates); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, id string) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	noteID, err := parseID(id, noteNotFound)
	if err != nil {
		return err
	}
	deleted, err := s.noteRepo.SoftDeleteForUser(dbctx.From(ctx), userID, noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !deleted {
		return notFound(noteNotFound)
	}
	return nil
}

// ImportNotes validates every entry before inserting all of them in one
// transaction.
func (s *noteService) ImportNotes(ctx context.Context, in []NoteInput) (int, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	notes := make([]*types.Note, 0, len(in))
	for _, n := range in {
		note, err := buildNote(userID, n)
		if err != nil {
			return 0, err
		}
		notes = append(notes, note)
	}
	if len(notes) == 0 {
		return 0, nil
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.noteRepo.Create(dbctx.Context{Ctx: ctx, Tx: tx}, notes)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("import notes: %w", err)
	}
	s.log.Info("Notes imported", "user_id", userID, "count", len(notes))
	return len(notes), nil
}

func (s *noteService) SearchNotes(ctx context.Context, query string) ([]*types.Note, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, badRequest("Search query is required")
	}
	return s.noteRepo.Search(dbctx.From(ctx), userID, query)
}

func buildNote(userID uuid.UUID, in NoteInput) (*types.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, badRequest("Title and content are required")
	}
	return &types.Note{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   title,
		Content: in.Content,
		Tags:    normalizeTags(in.Tags),
	}, nil
}

// normalizeTags trims, drops blanks and de-duplicates while keeping order.
func normalizeTags(tags []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
