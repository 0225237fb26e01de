package study

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos/testutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
)

func TestNoteRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewNoteRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := testutil.SeedUser(t, ctx, tx, "noterepo-owner@example.com")
	other := testutil.SeedUser(t, ctx, tx, "noterepo-other@example.com")

	bio := testutil.SeedNote(t, ctx, tx, owner.ID, "Cell Biology", "biology")
	testutil.SeedNote(t, ctx, tx, owner.ID, "Photosynthesis 100%", "plants")
	testutil.SeedNote(t, ctx, tx, other.ID, "Cell Biology (other)", "biology")

	if rows, err := repo.ListByUser(dbc, owner.ID); err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}

	got, err := repo.GetForUser(dbc, owner.ID, bio.ID)
	if err != nil || got == nil || got.ID != bio.ID {
		t.Fatalf("GetForUser: err=%v got=%+v", err, got)
	}
	if got, err := repo.GetForUser(dbc, other.ID, bio.ID); err != nil || got != nil {
		t.Fatalf("GetForUser (foreign owner): err=%v got=%+v", err, got)
	}
	if got, err := repo.GetForUser(dbc, owner.ID, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetForUser (missing): err=%v got=%+v", err, got)
	}

	if rows, err := repo.Search(dbc, owner.ID, "cell"); err != nil || len(rows) != 1 {
		t.Fatalf("Search title: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.Search(dbc, owner.ID, "plants"); err != nil || len(rows) != 1 {
		t.Fatalf("Search tag: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.Search(dbc, owner.ID, "%"); err != nil || len(rows) != 1 {
		t.Fatalf("Search literal percent: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateFields(dbc, owner.ID, bio.ID, map[string]interface{}{"title": "Cells"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, _ := repo.GetForUser(dbc, owner.ID, bio.ID); got == nil || got.Title != "Cells" {
		t.Fatalf("UpdateFields: title not updated: %+v", got)
	}

	if ok, err := repo.SoftDeleteForUser(dbc, other.ID, bio.ID); err != nil || ok {
		t.Fatalf("SoftDeleteForUser (foreign owner): err=%v ok=%v", err, ok)
	}
	if ok, err := repo.SoftDeleteForUser(dbc, owner.ID, bio.ID); err != nil || !ok {
		t.Fatalf("SoftDeleteForUser: err=%v ok=%v", err, ok)
	}
	if rows, err := repo.ListByUser(dbc, owner.ID); err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser after delete: err=%v len=%d", err, len(rows))
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("EscapeLike: %q", got)
	}
}
