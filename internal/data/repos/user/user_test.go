package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos/testutil"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:       uuid.New(),
			Email:    "userrepo@example.com",
			Name:     "A",
			Password: "pw",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 user, got %d", len(created))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByEmails(dbc, []string{" UserRepo@Example.com "}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByEmails: err=%v len=%d", err, len(rows))
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: err=%v exists=%v", err, exists)
	}
	exists, err = repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists (missing): err=%v exists=%v", err, exists)
	}

	first := "refresh-1"
	if err := repo.SetRefreshToken(dbc, created[0].ID, &first); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}
	ok, err := repo.RotateRefreshToken(dbc, created[0].ID, "refresh-1", "refresh-2")
	if err != nil || !ok {
		t.Fatalf("RotateRefreshToken: err=%v ok=%v", err, ok)
	}
	ok, err = repo.RotateRefreshToken(dbc, created[0].ID, "refresh-1", "refresh-3")
	if err != nil || ok {
		t.Fatalf("RotateRefreshToken (stale): err=%v ok=%v", err, ok)
	}
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()
	testutil.SeedUser(t, ctx, tx, "dupe@example.com")

	// Run the duplicate insert in a savepoint so the outer tx stays usable.
	err := tx.Transaction(func(inner *gorm.DB) error {
		_, err := repo.Create(dbctx.Context{Ctx: ctx, Tx: inner}, []*types.User{{
			ID: uuid.New(), Email: "dupe@example.com", Name: "B", Password: "pw",
		}})
		return err
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(wrapped) {
		t.Fatalf("expected unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}
