package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-entry expiry backing the snapshot cache.
//
// Get reports found=false for missing or expired keys. Set always resets the expiry.
// DeletePrefix removes every key starting with prefix and reports how many were removed.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
