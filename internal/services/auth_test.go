package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/ctxutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*types.User
}

func newMemUserRepo(users ...*types.User) *memUserRepo {
	r := &memUserRepo{users: map[uuid.UUID]*types.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		r.users[u.ID] = u
	}
	return users, nil
}

func (r *memUserRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.User
	for _, u := range r.users {
		for _, e := range emails {
			if u.Email == strings.ToLower(e) {
				cp := *u
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (r *memUserRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	users, _ := r.GetByEmails(dbc, []string{email})
	return len(users) > 0, nil
}

func (r *memUserRepo) SetRefreshToken(dbc dbctx.Context, id uuid.UUID, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshToken = token
	}
	return nil
}

func (r *memUserRepo) RotateRefreshToken(dbc dbctx.Context, id uuid.UUID, expected, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != expected {
		return false, nil
	}
	u.RefreshToken = &next
	return true, nil
}

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", 7*24*time.Hour, 30*24*time.Hour)
}

func seededAuth(t *testing.T) (AuthService, *memUserRepo, *types.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &types.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", Password: string(hash)}
	repo := newMemUserRepo(u)
	return NewAuthService(nil, logger.Nop(), repo, testIssuer()), repo, u
}

func assertStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected api error %d %q, got %v", status, msg, err)
	}
	if ae.Status != status || (msg != "" && ae.Error() != msg) {
		t.Fatalf("expected %d %q, got %d %q", status, msg, ae.Status, ae.Error())
	}
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	iss := testIssuer()
	u := &types.User{ID: uuid.New(), Name: "Ada"}
	access, err := iss.IssueAccess(u)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := iss.ParseAccess(access)
	if err != nil || claims.ID != u.ID.String() || claims.Name != "Ada" || claims.Subject != u.ID.String() {
		t.Fatalf("ParseAccess: %+v err=%v", claims, err)
	}
	if _, err := iss.ParseRefresh(access); err == nil {
		t.Fatalf("access token must not verify as refresh token")
	}

	r1, _ := iss.IssueRefresh(u.ID)
	r2, _ := iss.IssueRefresh(u.ID)
	if r1 == r2 {
		t.Fatalf("refresh tokens must be unique")
	}
}

func TestTokenIssuerSharedSecretKeepsKindsApart(t *testing.T) {
	iss := NewTokenIssuer("dev-secret-change-me", "", 7*24*time.Hour, 30*24*time.Hour)
	u := &types.User{ID: uuid.New(), Name: "Ada"}
	access, _ := iss.IssueAccess(u)
	refresh, _ := iss.IssueRefresh(u.ID)

	if _, err := iss.ParseAccess(refresh); err == nil {
		t.Fatalf("refresh token must not verify as access token")
	}
	if _, err := iss.ParseRefresh(access); err == nil {
		t.Fatalf("access token must not verify as refresh token")
	}

	svc := NewAuthService(nil, logger.Nop(), newMemUserRepo(u), iss)
	_, err := svc.SetContextFromToken(context.Background(), refresh)
	assertStatus(t, err, http.StatusUnauthorized, "Invalid token")
	if _, err := svc.SetContextFromToken(context.Background(), access); err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
}

func TestTokenIssuerExpiry(t *testing.T) {
	iss := testIssuer()
	past := time.Now().Add(-8 * 24 * time.Hour)
	iss.now = func() time.Time { return past }
	tok, err := iss.IssueAccess(&types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	iss.now = time.Now
	if _, err := iss.ParseAccess(tok); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestRegisterInputValidate(t *testing.T) {
	cases := []struct {
		in   RegisterInput
		want string
	}{
		{RegisterInput{Email: "a@b.co", Password: "secret1"}, "Name is required"},
		{RegisterInput{Name: "A", Email: "nope", Password: "secret1"}, "Email is invalid"},
		{RegisterInput{Name: "A", Email: "a@b.co", Password: "123"}, "Password must be at least 6 characters"},
		{RegisterInput{Name: "A", Email: "a@b.co", Password: "123456"}, ""},
	}
	for _, tc := range cases {
		err := tc.in.Validate()
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tc.want {
			t.Fatalf("%+v: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegisterRejectsDuplicateEmailBeforeWriting(t *testing.T) {
	svc, _, _ := seededAuth(t)
	_, err := svc.RegisterUser(context.Background(), RegisterInput{Name: "Ada", Email: " ADA@example.com ", Password: "secret1"})
	assertStatus(t, err, http.StatusBadRequest, "Email already exists")
}

func TestLogin(t *testing.T) {
	svc, repo, u := seededAuth(t)
	ctx := context.Background()

	_, err := svc.LoginUser(ctx, "", "x")
	assertStatus(t, err, http.StatusBadRequest, "Email and password are required")
	_, err = svc.LoginUser(ctx, "nobody@example.com", "secret1")
	assertStatus(t, err, http.StatusNotFound, "User not found")
	_, err = svc.LoginUser(ctx, "ada@example.com", "wrong")
	assertStatus(t, err, http.StatusUnauthorized, "Invalid password")

	res, err := svc.LoginUser(ctx, "Ada@Example.com", "secret1")
	if err != nil || res.Token == "" || res.RefreshToken == "" {
		t.Fatalf("LoginUser: %+v err=%v", res, err)
	}
	if stored := repo.users[u.ID].RefreshToken; stored == nil || *stored != hashToken(res.RefreshToken) {
		t.Fatalf("refresh token hash not stored")
	}
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	svc, _, _ := seededAuth(t)
	ctx := context.Background()
	login, err := svc.LoginUser(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	refreshed, err := svc.RefreshUser(ctx, login.RefreshToken)
	if err != nil || refreshed.RefreshToken == login.RefreshToken || refreshed.User != nil {
		t.Fatalf("RefreshUser: %+v err=%v", refreshed, err)
	}
	_, err = svc.RefreshUser(ctx, login.RefreshToken)
	assertStatus(t, err, http.StatusUnauthorized, "Refresh token not recognized")

	_, err = svc.RefreshUser(ctx, "")
	assertStatus(t, err, http.StatusBadRequest, "Refresh token required")
	_, err = svc.RefreshUser(ctx, "garbage")
	assertStatus(t, err, http.StatusUnauthorized, "Invalid refresh token")
}

func TestSetContextFromTokenAndLogout(t *testing.T) {
	svc, repo, u := seededAuth(t)
	ctx := context.Background()
	login, err := svc.LoginUser(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	if _, err := svc.SetContextFromToken(ctx, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	_, err = svc.SetContextFromToken(ctx, login.RefreshToken)
	assertStatus(t, err, http.StatusUnauthorized, "Invalid token")

	authed, err := svc.SetContextFromToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if rd := ctxutil.GetRequestData(authed); rd == nil || rd.UserID != u.ID || rd.Name != "Ada" {
		t.Fatalf("unexpected request data: %+v", rd)
	}

	me, err := svc.CurrentUser(authed)
	if err != nil || me.ID != u.ID {
		t.Fatalf("CurrentUser: %+v err=%v", me, err)
	}
	if err := svc.LogoutUser(authed); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	if repo.users[u.ID].RefreshToken != nil {
		t.Fatalf("refresh token not cleared")
	}
	_, err = svc.RefreshUser(ctx, login.RefreshToken)
	assertStatus(t, err, http.StatusUnauthorized, "Refresh token not recognized")
}
