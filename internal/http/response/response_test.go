package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

func serve(t *testing.T, path string, handler gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(path, handler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestRespondOKAddsSuccess(t *testing.T) {
	code, body := serve(t, "/ok", func(c *gin.Context) {
		RespondCreated(c, gin.H{"note": gin.H{"title": "x"}})
	})
	if code != http.StatusCreated || body["success"] != true || body["note"] == nil {
		t.Fatalf("unexpected response %d %v", code, body)
	}
}

func TestFailCategorizedError(t *testing.T) {
	Configure(logger.Nop(), false)
	code, body := serve(t, "/api/notes/x", func(c *gin.Context) {
		Fail(c, fmt.Errorf("load: %w", apierr.Msg(http.StatusNotFound, "not_found", "Note not found")))
	})
	if code != http.StatusNotFound || body["message"] != "Note not found" || body["code"] != "not_found" {
		t.Fatalf("unexpected response %d %v", code, body)
	}
	if body["success"] != false || body["error"] == nil {
		t.Fatalf("expected debug error outside production: %v", body)
	}
}

func TestFailUncategorizedOnAIRoute(t *testing.T) {
	Configure(logger.Nop(), false)
	code, body := serve(t, "/api/ai/chat", func(c *gin.Context) {
		Fail(c, errors.New("boom"))
	})
	if code != http.StatusInternalServerError || body["message"] != "AI: boom" {
		t.Fatalf("unexpected response %d %v", code, body)
	}
}

func TestFailMasksInProduction(t *testing.T) {
	Configure(logger.Nop(), true)
	t.Cleanup(func() { Configure(logger.Nop(), false) })

	code, body := serve(t, "/api/notes", func(c *gin.Context) {
		Fail(c, errors.New("pq: connection refused"))
	})
	if code != http.StatusInternalServerError || body["message"] != "Something went wrong" {
		t.Fatalf("unexpected response %d %v", code, body)
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("production body must not carry error details: %v", body)
	}
}

func TestFailTooLarge(t *testing.T) {
	Configure(logger.Nop(), false)
	code, body := serve(t, "/api/ai/summarize", func(c *gin.Context) {
		c.Set(UploadLimitKey, int64(10))
		Fail(c, fmt.Errorf("read form: %w", &http.MaxBytesError{Limit: 10 << 20}))
	})
	if code != http.StatusRequestEntityTooLarge || body["message"] != "AI: File too large. Max 10 MB." {
		t.Fatalf("unexpected response %d %v", code, body)
	}

	code, body = serve(t, "/api/file/upload", func(c *gin.Context) {
		Fail(c, &http.MaxBytesError{Limit: 100 << 20})
	})
	if code != http.StatusRequestEntityTooLarge || body["message"] != "File too large. Max 100 MB." {
		t.Fatalf("unexpected response %d %v", code, body)
	}
}

func TestFailUploadError(t *testing.T) {
	Configure(logger.Nop(), false)
	code, body := serve(t, "/api/file/upload", func(c *gin.Context) {
		Fail(c, NewUploadError("not_multipart", http.ErrNotMultipart))
	})
	if code != http.StatusBadRequest || body["message"] != "Upload failed (not_multipart)." {
		t.Fatalf("unexpected response %d %v", code, body)
	}
}
