package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Stream writes server-sent events to one response. Send and the heartbeat
// may run concurrently.
type Stream struct {
	mu sync.Mutex
	w  http.ResponseWriter
	f  http.Flusher
}

// Open writes the event-stream headers and returns the stream.
func Open(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Stream{w: w, f: flusher}, nil
}

// Send writes one event. An empty event name writes a bare data frame.
func (s *Stream) Send(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", raw); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Heartbeat writes a comment line every interval until ctx is done.
func (s *Stream) Heartbeat(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.mu.Lock()
			_, err := fmt.Fprint(s.w, ": ping\n\n")
			if err == nil {
				s.f.Flush()
			}
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
