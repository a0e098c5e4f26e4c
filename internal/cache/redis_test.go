package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "stockpulse:"), mr
}

func TestRedisStore_RoundTripAndExpiry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("stockpulse:k") {
		t.Fatalf("expected prefixed key in redis, keys=%v", mr.Keys())
	}
	if v, ok, err := s.Get(ctx, "k"); err != nil || !ok || string(v) != "v" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}

	mr.FastForward(time.Minute)
	if _, ok, err := s.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss after ttl, ok=%v err=%v", ok, err)
	}
}

func TestRedisStore_ExistsDeletePrefixPing(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "prices:page=0:size=20", []byte("v"), time.Minute)
	_ = s.Set(ctx, "prices:page=3:size=10", []byte("v"), time.Minute)
	_ = s.Set(ctx, "profile:AAPL", []byte("v"), time.Minute)
	if ok, err := s.Exists(ctx, "profile:AAPL"); err != nil || !ok {
		t.Fatalf("exists: %v %v", ok, err)
	}
	if n, err := s.DeletePrefix(ctx, "prices"); err != nil || n != 2 {
		t.Fatalf("DeletePrefix removed %d, err=%v", n, err)
	}
	if ok, _ := s.Exists(ctx, "prices:page=0:size=20"); ok {
		t.Fatalf("expected key gone")
	}
	if ok, _ := s.Exists(ctx, "profile:AAPL"); !ok {
		t.Fatalf("unrelated key must survive")
	}
	if n, err := s.DeletePrefix(ctx, "trending"); err != nil || n != 0 {
		t.Fatalf("empty prefix delete: %d %v", n, err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRedisStore_BackendDown(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()

	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestSnapshot_RedisWriteAfterCallerCancel(t *testing.T) {
	store, mr := newRedisStore(t)
	s := NewSnapshot(store, testTTLs())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if !PutList(ctx, s, TrendingKey{}, []models.TrendingRecord{{Symbol: "AAPL"}}) {
		t.Fatalf("expected list to be stored")
	}
	if !mr.Exists("stockpulse:trending") {
		t.Fatalf("write with an ended ctx must still land, keys=%v", mr.Keys())
	}
}
