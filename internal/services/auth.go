package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/repos"
	types "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/domain"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/dbctx"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/ctxutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks fields in order and reports the first violation.
func (in RegisterInput) Validate() error {
	checks := []error{
		validation.Validate(in.Name, validation.Required.Error("Name is required")),
		validation.Validate(in.Email,
			validation.Required.Error("Email is required"),
			is.EmailFormat.Error("Email is invalid"),
		),
		validation.Validate(in.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(6, 0).Error("Password must be at least 6 characters"),
		),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

type AuthResult struct {
	User         *types.User `json:"user,omitempty"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*AuthResult, error)
	LoginUser(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshUser(ctx context.Context, refreshToken string) (*AuthResult, error)
	LogoutUser(ctx context.Context) error
	CurrentUser(ctx context.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	tokens   *TokenIssuer
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, tokens *TokenIssuer) AuthService {
	return &authService{
		db:       db,
		log:      log.With("service", "AuthService"),
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.Validate(); err != nil {
		return nil, badRequest(err.Error())
	}

	exists, err := as.userRepo.EmailExists(dbctx.From(ctx), in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, badRequest("Email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var result *AuthResult
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user := &types.User{
			ID:       uuid.New(),
			Name:     in.Name,
			Email:    in.Email,
			Password: string(hashed),
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			if errors.Is(err, repos.ErrDuplicateEmail) {
				return badRequest("Email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		res, err := as.issuePair(dbc, user)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", result.User.ID)
	return result, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, badRequest("Email and password are required")
	}
	users, err := as.userRepo.GetByEmails(dbctx.From(ctx), []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, notFound("User not found")
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, unauthorized("Invalid password")
	}
	return as.issuePair(dbctx.From(ctx), user)
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, badRequest("Refresh token required")
	}
	claims, err := as.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, unauthorized("Invalid refresh token")
	}
	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, unauthorized("Invalid refresh token payload")
	}

	dbc := dbctx.From(ctx)
	users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	storedHash := hashToken(refreshToken)
	if len(users) == 0 || users[0].RefreshToken == nil || *users[0].RefreshToken != storedHash {
		return nil, unauthorized("Refresh token not recognized")
	}
	user := users[0]

	access, err := as.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	next, err := as.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	// Compare-and-swap so a token can only be redeemed once.
	swapped, err := as.userRepo.RotateRefreshToken(dbc, user.ID, storedHash, hashToken(next))
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		as.log.Warn("Refresh token reuse rejected", "user_id", user.ID)
		return nil, unauthorized("Refresh token not recognized")
	}
	return &AuthResult{Token: access, RefreshToken: next}, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := as.userRepo.SetRefreshToken(dbctx.From(ctx), userID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (as *authService) CurrentUser(ctx context.Context) (*types.User, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	users, err := as.userRepo.GetByIDs(dbctx.From(ctx), []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, notFound("User not found")
	}
	return users[0], nil
}

// SetContextFromToken verifies an access token and attaches the caller to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrNotAuthorized
	}
	claims, err := as.tokens.ParseAccess(tokenString)
	if err != nil {
		return ctx, unauthorized("Invalid token")
	}
	rawID := claims.ID
	if rawID == "" {
		rawID = claims.Subject
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return ctx, unauthorized("Invalid token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Name:        claims.Name,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.tokens.AccessTTL()
}

func (as *authService) issuePair(dbc dbctx.Context, user *types.User) (*AuthResult, error) {
	access, err := as.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := as.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	refreshHash := hashToken(refresh)
	if err := as.userRepo.SetRefreshToken(dbc, user.ID, &refreshHash); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = &refreshHash
	return &AuthResult{User: user, Token: access, RefreshToken: refresh}, nil
}
