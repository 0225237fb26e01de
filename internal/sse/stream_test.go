package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStreamSend(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := Open(rec)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Send("", map[string]string{"delta": "Hel"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Send("done", struct{}{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := "data: {\"delta\":\"Hel\"}\n\nevent: done\ndata: {}\n\n"
	if rec.Body.String() != want {
		t.Fatalf("body = %q want %q", rec.Body.String(), want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestHeartbeatStopsWithContext(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := Open(rec)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	s.Heartbeat(ctx, 10*time.Millisecond)
	if !strings.Contains(rec.Body.String(), ": ping\n\n") {
		t.Fatalf("expected a ping, got %q", rec.Body.String())
	}
}
