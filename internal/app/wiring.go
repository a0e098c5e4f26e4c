package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/cache"
	"github.com/guttosm/stockpulse/internal/eligibility"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/marketclock"
	"github.com/guttosm/stockpulse/internal/quotes"
	"github.com/guttosm/stockpulse/internal/service"
	"github.com/guttosm/stockpulse/internal/storage"
	"github.com/guttosm/stockpulse/internal/warmer"
)

// redisKeyPrefix namespaces snapshot keys in a shared Redis.
const redisKeyPrefix = "stockpulse:"

// Components holds the wired dependencies shared by the api, seed and warm commands.
type Components struct {
	DB       *sql.DB
	Repo     storage.InstrumentRepository
	Store    cache.Store
	Snapshot *cache.Snapshot
	Clock    *marketclock.Clock
	Service  service.MarketService
	Warmer   *warmer.Warmer
}

// storeOpener picks the snapshot store; overridden in tests.
var storeOpener = openStore

// providerOpener picks the quote provider and its eligibility filter; overridden in tests.
var providerOpener = openProvider

// Build connects to Postgres and the cache store and wires the market service.
//
// Returns:
//   - *Components: every wired dependency.
//   - func(): releases the database and cache connections.
//   - error: any initialization error that occurred.
func Build(cfg config.Config) (*Components, func(), error) {
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	store, closeStore, err := storeOpener(cfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}

	cleanup := func() {
		closeStore()
		_ = db.Close()
	}

	loc, err := cfg.Market.Location()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("market timezone: %w", err)
	}
	clock, err := marketclock.New(marketclock.Config{
		Location: loc,
		Open:     cfg.Market.Open,
		Close:    cfg.Market.Close,
		Holidays: cfg.Market.Holidays,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("market clock: %w", err)
	}

	provider, filter := providerOpener(cfg)
	source := quotes.NewClient(provider, quotes.Options{
		RatePerSec:     cfg.Quotes.RatePerSec,
		Burst:          cfg.Quotes.Burst,
		Concurrency:    cfg.Quotes.Concurrency,
		BatchTimeout:   cfg.Quotes.BatchTimeout,
		RequestTimeout: cfg.Quotes.RequestTimeout,
	})

	repo := storage.NewInstrumentRepository(db)
	snapshot := newSnapshot(store, cfg)

	svc := service.NewMarketService(repo, source, filter, snapshot, clock, service.Options{
		IndicesEnabled:    cfg.Market.IndicesEnabled,
		ProfileEnrichment: cfg.Quotes.ProfileEnrichment,
	})

	logger.L().Info().
		Str("provider", provider.Name()).
		Bool("redis", cfg.Redis.Addr != "").
		Bool("indices_enabled", cfg.Market.IndicesEnabled).
		Str("timezone", loc.String()).
		Msg("components wired")

	return &Components{
		DB:       db,
		Repo:     repo,
		Store:    store,
		Snapshot: snapshot,
		Clock:    clock,
		Service:  svc,
		Warmer:   warmer.New(svc, snapshot, clock, warmer.Options{SkipNonTradingDays: true}),
	}, cleanup, nil
}

// InvalidateMarketCaches drops cached price pages and trending lists after the
// instrument master data changed. Only a shared store (Redis) holds entries that
// outlive this process; the in-process store starts empty.
func InvalidateMarketCaches(ctx context.Context, cfg config.Config) (int, error) {
	store, closeStore, err := storeOpener(cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer closeStore()
	return newSnapshot(store, cfg).Invalidate(ctx, cache.FamilyPrices, cache.FamilyTrending), nil
}

func newSnapshot(store cache.Store, cfg config.Config) *cache.Snapshot {
	return cache.NewSnapshot(store, cache.TTLs{
		Prices:   cfg.Cache.PricesTTL,
		Indices:  cfg.Cache.IndicesTTL,
		Trending: cfg.Cache.TrendingTTL,
		Profile:  cfg.Cache.ProfileTTL,
	})
}

// openStore returns Redis when REDIS_ADDR is set, otherwise an in-process store.
func openStore(cfg config.Config) (cache.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryStore(), func() {}, nil
	}
	store := cache.NewRedisStore(cache.DialRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), redisKeyPrefix)
	if err := store.Ping(context.Background()); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}
	return store, func() { _ = store.Close() }, nil
}

// openProvider maps QUOTE_PROVIDER to a provider and the exchanges it can quote.
func openProvider(cfg config.Config) (quotes.Provider, eligibility.Filter) {
	switch cfg.Quotes.Provider {
	case config.ProviderYahoo:
		return quotes.NewYahoo(), eligibility.Yahoo()
	default:
		return quotes.NewFinnhub(cfg.Quotes.FinnhubBaseURL, cfg.Quotes.FinnhubAPIKey, cfg.Quotes.RequestTimeout), eligibility.FinnhubFreeTier()
	}
}
