package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = val
	return nil
}

func TestCacheKey(t *testing.T) {
	k := CacheKey("quiz", "General", "5", "text")
	if !strings.HasPrefix(k, "ai:v1:quiz:") || len(k) != len("ai:v1:quiz:")+64 {
		t.Fatalf("unexpected key %q", k)
	}
	if CacheKey("quiz", "a", "bc") == CacheKey("quiz", "ab", "c") {
		t.Fatalf("parts must not collide when concatenated")
	}
}

func TestCacheGetOrCompute(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	c := NewCacheWithStore(nil, store, time.Minute)
	var calls int32
	fn := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v"), nil
	}
	for i := 0; i < 3; i++ {
		got, err := c.GetOrCompute(context.Background(), "explain", []string{"x"}, fn)
		if err != nil || string(got) != "v" {
			t.Fatalf("GetOrCompute: got=%q err=%v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 compute, got %d", calls)
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	c := NewCacheWithStore(nil, store, time.Minute)
	boom := errors.New("boom")
	if _, err := c.GetOrCompute(context.Background(), "notes", nil, func(context.Context) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("error result was cached")
	}
}

func TestCacheSharedComputeSurvivesFirstCallerCancel(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	c := NewCacheWithStore(nil, store, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) ([]byte, error) {
		select {
		case <-started:
		default:
			close(started)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return []byte("v"), nil
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(firstCtx, "summary", []string{"doc"}, fn)
		firstErr <- err
	}()
	<-started

	type result struct {
		val []byte
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := c.GetOrCompute(context.Background(), "summary", []string{"doc"}, fn)
		second <- result{v, err}
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller: expected context.Canceled, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case res := <-second:
		if res.err != nil || string(res.val) != "v" {
			t.Fatalf("second caller: got=%q err=%v", res.val, res.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller did not return")
	}
}

func TestCachePassThroughWithoutStore(t *testing.T) {
	c := NewCache(nil, nil, 0)
	var calls int
	for i := 0; i < 2; i++ {
		_, _ = c.GetOrCompute(context.Background(), "k", nil, func(context.Context) ([]byte, error) {
			calls++
			return []byte("x"), nil
		})
	}
	if calls != 2 {
		t.Fatalf("expected every call to compute, got %d", calls)
	}
}
