package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/guttosm/stockpulse/internal/logger"
)

// TTLs holds the expiry of each key family.
type TTLs struct {
	Prices   time.Duration
	Indices  time.Duration
	Trending time.Duration
	Profile  time.Duration
}

// Snapshot is the cache-aside facade over a Store.
//
// Behavior:
//   - A backend error on read is logged and reported as a miss.
//   - A backend error on write is logged and swallowed.
//   - Empty lists are never written.
type Snapshot struct {
	store Store
	ttls  TTLs
	now   func() time.Time
}

// entry is the stored envelope: the payload plus the time it was cached.
type entry[T any] struct {
	StoredAt time.Time `json:"stored_at"`
	Data     T         `json:"data"`
}

// NewSnapshot creates a Snapshot cache over store.
func NewSnapshot(store Store, ttls TTLs) *Snapshot {
	return &Snapshot{store: store, ttls: ttls, now: time.Now}
}

// TTL returns the expiry used for k.
func (s *Snapshot) TTL(k Key) time.Duration {
	switch k.Family() {
	case FamilyPrices:
		return s.ttls.Prices
	case FamilyIndices:
		return s.ttls.Indices
	case FamilyTrending:
		return s.ttls.Trending
	case FamilyProfile:
		return s.ttls.Profile
	default:
		return 0
	}
}

// Ping checks the backing store.
func (s *Snapshot) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Has reports whether k is currently cached. Backend errors read as false.
func (s *Snapshot) Has(ctx context.Context, k Key) bool {
	ok, err := s.store.Exists(ctx, k.String())
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k.String()).Msg("cache exists failed")
		return false
	}
	return ok
}

// Invalidate drops every cached entry of the given families and reports how many
// entries were removed. Backend errors are logged and skipped.
func (s *Snapshot) Invalidate(ctx context.Context, families ...Family) int {
	removed := 0
	for _, f := range families {
		n, err := s.store.DeletePrefix(ctx, string(f))
		if err != nil {
			logger.FromContext(ctx).Warn().Err(err).Str("family", string(f)).Msg("cache invalidate failed")
			continue
		}
		removed += n
	}
	return removed
}

// Get reads and decodes the value stored under k.
func Get[T any](ctx context.Context, s *Snapshot, k Key) (T, bool) {
	var zero T
	raw, found, err := s.store.Get(ctx, k.String())
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k.String()).Msg("cache read failed, treating as miss")
		return zero, false
	}
	if !found {
		return zero, false
	}
	var e entry[T]
	if err := json.Unmarshal(raw, &e); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k.String()).Msg("cache entry undecodable, treating as miss")
		return zero, false
	}
	logger.FromContext(ctx).Debug().
		Str("key", k.String()).
		Dur("age", s.now().Sub(e.StoredAt)).
		Msg("cache hit")
	return e.Data, true
}

// Put stores v under k with the family TTL. The write ignores ctx cancellation so
// a load finishing at its deadline still fills the cache; the store's own
// timeouts bound it.
func Put[T any](ctx context.Context, s *Snapshot, k Key, v T) {
	ctx = context.WithoutCancel(ctx)
	raw, err := json.Marshal(entry[T]{StoredAt: s.now().UTC(), Data: v})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k.String()).Msg("cache encode failed")
		return
	}
	if err := s.store.Set(ctx, k.String(), raw, s.TTL(k)); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k.String()).Msg("cache write failed")
	}
}

// PutList stores a non-empty list under k. Empty lists are skipped so a transient
// upstream outage does not pin an empty result for the whole TTL.
func PutList[T any](ctx context.Context, s *Snapshot, k Key, v []T) bool {
	if len(v) == 0 {
		return false
	}
	Put(ctx, s, k, v)
	return true
}
