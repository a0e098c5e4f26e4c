package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)}
	m := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	clock.Advance(59 * time.Second)
	if v, ok, _ := m.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit before expiry, got %q %v", v, ok)
	}

	clock.Advance(time.Second)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("entry served at its ttl")
	}
	if ok, _ := m.Exists(ctx, "k"); ok {
		t.Fatalf("expired entry reported as existing")
	}
}

func TestMemoryStore_SetResetsTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)}
	m := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	_ = m.Set(ctx, "k", []byte("v1"), time.Minute)
	clock.Advance(50 * time.Second)
	_ = m.Set(ctx, "k", []byte("v2"), time.Minute)
	clock.Advance(50 * time.Second)

	if v, ok, _ := m.Get(ctx, "k"); !ok || string(v) != "v2" {
		t.Fatalf("expected refreshed entry, got %q %v", v, ok)
	}
}

func TestMemoryStore_DeletePrefixAndZeroTTL(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_ = m.Set(ctx, "prices:page=0:size=20", []byte("v"), time.Minute)
	_ = m.Set(ctx, "prices:page=1:size=20", []byte("v"), time.Minute)
	_ = m.Set(ctx, "trending", []byte("v"), time.Minute)
	if n, err := m.DeletePrefix(ctx, "prices"); err != nil || n != 2 {
		t.Fatalf("DeletePrefix removed %d, err=%v", n, err)
	}
	if ok, _ := m.Exists(ctx, "prices:page=0:size=20"); ok {
		t.Fatalf("expected deleted key to be gone")
	}
	if ok, _ := m.Exists(ctx, "trending"); !ok {
		t.Fatalf("unrelated key must survive")
	}

	_ = m.Set(ctx, "z", []byte("v"), 0)
	if ok, _ := m.Exists(ctx, "z"); ok {
		t.Fatalf("zero ttl should not store")
	}
	if err := m.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestMemoryStore_ValueIsCopied(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	v, _, _ := m.Get(ctx, "k")
	v[1] = 'y'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value was aliased: %q", again)
	}
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)}
	m := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < sweepThreshold; i++ {
		_ = m.Set(ctx, fmt.Sprintf("old-%d", i), []byte("v"), time.Second)
	}
	clock.Advance(2 * time.Second)
	_ = m.Set(ctx, "fresh", []byte("v"), time.Minute)

	m.mu.RLock()
	n := len(m.entries)
	m.mu.RUnlock()
	if n != 1 {
		t.Fatalf("expected expired entries to be swept, have %d", n)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, key, []byte("v"), time.Minute)
				_, _, _ = m.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
}
