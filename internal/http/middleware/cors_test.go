package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(t *testing.T, h gin.HandlerFunc, origin string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Use(h)
	r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name      string
		extra     []string
		origin    string
		wantAllow string
	}{
		{"vite dev server", nil, "http://localhost:5173", "http://localhost:5173"},
		{"loopback ip", nil, "http://127.0.0.1:5174", "http://127.0.0.1:5174"},
		{"configured origin", []string{"https://studypal.app"}, "https://studypal.app", "https://studypal.app"},
		{"unknown origin", []string{"https://studypal.app"}, "https://evil.example", ""},
		{"wildcard", []string{"*"}, "https://anywhere.example", "*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := preflight(t, CORS(tc.extra...), tc.origin)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Fatalf("allow-origin: got %q want %q", got, tc.wantAllow)
			}
		})
	}
}

func TestCORSCredentialsOnlyForListedOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if got := preflight(t, CORS(), "http://localhost:3000").Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("listed origin should allow credentials, got %q", got)
	}
	if got := preflight(t, CORS("*"), "http://localhost:3000").Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("wildcard must not allow credentials, got %q", got)
	}
}
