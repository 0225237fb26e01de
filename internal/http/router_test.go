package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/handlers"
	httpMW "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/middleware"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/services"
)

type rejectAll struct {
	services.AuthService
}

func (rejectAll) SetContextFromToken(ctx context.Context, _ string) (context.Context, error) {
	return ctx, services.ErrNotAuthorized
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouterHealthcheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewRouter(RouterConfig{
		HealthHandler: httpH.NewHealthHandler(func(context.Context) error { return nil }),
	})
	if rec := serve(healthy, http.MethodGet, "/healthcheck"); rec.Code != http.StatusOK {
		t.Fatalf("healthy: got %d", rec.Code)
	}

	down := NewRouter(RouterConfig{
		HealthHandler: httpH.NewHealthHandler(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})
	if rec := serve(down, http.MethodGet, "/healthcheck"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("down: got %d", rec.Code)
	}
}

func TestRouterProtectsStudyRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	response.Configure(logger.Nop(), false)
	r := NewRouter(RouterConfig{
		AuthMiddleware:   httpMW.NewAuthMiddleware(logger.Nop(), rejectAll{}),
		NoteHandler:      httpH.NewNoteHandler(nil),
		FlashcardHandler: httpH.NewFlashcardHandler(nil),
		QuizHandler:      httpH.NewQuizHandler(nil),
		FileHandler:      httpH.NewFileHandler(nil),
		AIHandler:        httpH.NewAIHandler(logger.Nop(), nil),
		AuthHandler:      httpH.NewAuthHandler(nil),
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/notes"},
		{http.MethodGet, "/api/flashcards/stats"},
		{http.MethodPost, "/api/quizzes/generate"},
		{http.MethodPost, "/api/file/upload"},
		{http.MethodPost, "/api/ai/chat"},
		{http.MethodGet, "/api/ai/chat/stream"},
		{http.MethodGet, "/api/auth/me"},
	} {
		if rec := serve(r, tc.method, tc.path); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouterServesLocalUploads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "study_files"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "study_files", "1-notes.txt"), []byte("cells"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewRouter(RouterConfig{LocalUploadDir: dir})
	rec := serve(r, http.MethodGet, "/uploads/study_files/1-notes.txt")
	if rec.Code != http.StatusOK || rec.Body.String() != "cells" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
