package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/pkg/httpx"
)

func TestWrapErrorMapsAPIError(t *testing.T) {
	err := wrapError(fmt.Errorf("call: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}))
	if httpx.StatusCodeOf(err) != http.StatusTooManyRequests || !httpx.IsRetryableError(err) {
		t.Fatalf("expected retryable 429, got %v", err)
	}
	err = wrapError(genai.APIError{Code: 404, Message: "models/gemini-x is not found"})
	if httpx.StatusCodeOf(err) != http.StatusNotFound || httpx.IsRetryableError(err) {
		t.Fatalf("expected non-retryable 404, got %v", err)
	}
	plain := errors.New("dial tcp: refused")
	if wrapError(plain) != plain {
		t.Fatalf("plain errors must pass through")
	}
}

func TestBuildContentsMapsRoles(t *testing.T) {
	contents := buildContents([]Message{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}})
	if len(contents) != 2 || contents[0].Role != string(genai.RoleUser) || contents[1].Role != string(genai.RoleModel) {
		t.Fatalf("unexpected roles: %+v", contents)
	}
}

func TestBuildConfig(t *testing.T) {
	temp := 0.4
	cfg := buildConfig("sys", &temp, true)
	if cfg.SystemInstruction == nil || cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.4) {
		t.Fatalf("temperature not carried: %v", cfg.Temperature)
	}
	if empty := buildConfig(" ", nil, false); empty.SystemInstruction != nil || empty.Temperature != nil {
		t.Fatalf("blank system should be omitted: %+v", empty)
	}
}
