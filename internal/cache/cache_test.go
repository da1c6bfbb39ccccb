package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyString(t *testing.T) {
	if got := NewKey("category", "by-id", 42).String(); got != "category::by-id::42" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := NewKey("post", "by-slug", "hello-world").String(); got != "post::by-slug::hello-world" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestGetOrFetchCachesValue(t *testing.T) {
	c := New(time.Minute)
	key := NewKey("category", "by-id", 1)

	var calls int32
	loader := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "hit", nil
	}

	for i := 0; i < 3; i++ {
		value, err := GetOrFetch(context.Background(), c, key, loader)
		if err != nil {
			t.Fatalf("get or fetch: %v", err)
		}
		if value != "hit" {
			t.Fatalf("unexpected value: %q", value)
		}
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected single loader call, got %d", n)
	}
}

func TestGetOrFetchCoalescesConcurrentMisses(t *testing.T) {
	c := New(time.Minute)
	key := NewKey("post", "by-id", 7)

	var calls int32
	loader := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := GetOrFetch(context.Background(), c, key, loader)
			if err != nil {
				t.Errorf("get or fetch: %v", err)
				return
			}
			if value != 7 {
				t.Errorf("unexpected value: %d", value)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected coalesced loader call, got %d", n)
	}
}

func TestGetOrFetchCachesAbsentValue(t *testing.T) {
	type record struct{ Name string }

	c := New(time.Minute)
	key := NewKey("category", "by-slug", "missing")

	var calls int32
	loader := func(ctx context.Context) (*record, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		value, err := GetOrFetch(context.Background(), c, key, loader)
		if err != nil {
			t.Fatalf("get or fetch: %v", err)
		}
		if value != nil {
			t.Fatalf("expected nil record, got %+v", value)
		}
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected absent result to be cached, got %d loader calls", n)
	}
}

func TestGetOrFetchDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)
	key := NewKey("tag", "by-slug", "flaky")

	boom := errors.New("store unavailable")
	var calls int32
	loader := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", boom
		}
		return "recovered", nil
	}

	if _, err := GetOrFetch(context.Background(), c, key, loader); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	value, err := GetOrFetch(context.Background(), c, key, loader)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if value != "recovered" {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	c := New(time.Minute)
	key := NewKey("author", "by-id", 3)

	var calls int32
	loader := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	if _, err := GetOrFetch(context.Background(), c, key, loader); err != nil {
		t.Fatalf("get or fetch: %v", err)
	}

	c.Invalidate(key)

	if _, err := GetOrFetch(context.Background(), c, key, loader); err != nil {
		t.Fatalf("get or fetch after invalidate: %v", err)
	}

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected reload after invalidate, got %d loader calls", n)
	}
}

func TestInvalidateLeavesOtherDimensionsAlone(t *testing.T) {
	c := New(time.Minute)
	byID := NewKey("category", "by-id", 5)
	bySlug := NewKey("category", "by-slug", "news")

	var idCalls, slugCalls int32
	if _, err := GetOrFetch(context.Background(), c, byID, func(ctx context.Context) (string, error) {
		atomic.AddInt32(&idCalls, 1)
		return "id", nil
	}); err != nil {
		t.Fatalf("get or fetch: %v", err)
	}
	if _, err := GetOrFetch(context.Background(), c, bySlug, func(ctx context.Context) (string, error) {
		atomic.AddInt32(&slugCalls, 1)
		return "slug", nil
	}); err != nil {
		t.Fatalf("get or fetch: %v", err)
	}

	c.Invalidate(byID)

	if _, err := GetOrFetch(context.Background(), c, bySlug, func(ctx context.Context) (string, error) {
		atomic.AddInt32(&slugCalls, 1)
		return "slug", nil
	}); err != nil {
		t.Fatalf("get or fetch: %v", err)
	}

	if n := atomic.LoadInt32(&slugCalls); n != 1 {
		t.Fatalf("slug entry should survive id invalidation, got %d loader calls", n)
	}
}
