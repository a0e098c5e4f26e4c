package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/guttosm/stockpulse/internal/cache"
	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/eligibility"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/quotes"
)

var (
	ErrInvalidPage  = errors.New("page must be >= 0")
	ErrInvalidSize  = errors.New("size must be > 0")
	ErrInvalidLimit = errors.New("limit must be > 0")
)

// SummaryTrendingLimit is the number of trending stocks included in the market summary.
const SummaryTrendingLimit = 10

const (
	// maxLoadMargin caps the time kept back from a caller's deadline for
	// assembling and writing the response after a load.
	maxLoadMargin = time.Second
	// loadMarginDivisor sets the margin as a fraction of the remaining time.
	loadMarginDivisor = 20
	// profileShareDivisor caps the profile step at this fraction of a load budget.
	profileShareDivisor = 4
)

// MarketService exposes the read-only market views.
//
// All operations are side-effect free apart from cache population. They return an
// error only for invalid arguments or when ctx ends before a result is ready;
// upstream and cache failures degrade to empty or partial results.
type MarketService interface {
	GetStocksWithPrices(ctx context.Context, page, size int) ([]models.PriceRecord, error)
	GetMarketIndices(ctx context.Context) ([]models.IndexRecord, error)
	GetTrendingStocks(ctx context.Context, limit int) ([]models.TrendingRecord, error)
	GetMarketSummary(ctx context.Context) (*models.MarketSummary, error)
	ListInstruments(ctx context.Context, page, size int) ([]models.Instrument, error)
}

// InstrumentLookup is the read side of the instrument master data.
type InstrumentLookup interface {
	ListActive(ctx context.Context) ([]models.Instrument, error)
	ListPage(ctx context.Context, limit, offset int) ([]models.Instrument, error)
	CountActive(ctx context.Context) (int64, error)
}

// StatusClock reports the current market status.
type StatusClock interface {
	Status() models.MarketStatus
}

// Options tunes optional behavior of the market service.
//
// Fields:
//   - IndicesEnabled: fetch index quotes on an indices cache miss (paid tier).
//   - Indices: indices fetched when enabled (default DefaultIndices).
//   - ProfileEnrichment: enrich price records with company profiles.
//   - ProfileTimeout: total time spent enriching one batch (default 10s).
//   - ProfileConcurrency: in-flight profile lookups (default 4).
type Options struct {
	IndicesEnabled     bool
	Indices            []IndexDefinition
	ProfileEnrichment  bool
	ProfileTimeout     time.Duration
	ProfileConcurrency int
}

type marketService struct {
	instruments InstrumentLookup
	quotes      quotes.Source
	filter      eligibility.Filter
	cache       *cache.Snapshot
	clock       StatusClock
	opts        Options
	now         func() time.Time
	flight      singleflight.Group
}

// NewMarketService wires the aggregation engine.
func NewMarketService(
	instruments InstrumentLookup,
	source quotes.Source,
	filter eligibility.Filter,
	snapshot *cache.Snapshot,
	clock StatusClock,
	opts Options,
) MarketService {
	if opts.Indices == nil {
		opts.Indices = DefaultIndices
	}
	if opts.ProfileTimeout <= 0 {
		opts.ProfileTimeout = 10 * time.Second
	}
	if opts.ProfileConcurrency <= 0 {
		opts.ProfileConcurrency = 4
	}
	return &marketService{
		instruments: instruments,
		quotes:      source,
		filter:      filter,
		cache:       snapshot,
		clock:       clock,
		opts:        opts,
		now:         time.Now,
	}
}

// GetStocksWithPrices returns one page of price records over the eligible universe.
//
// Behavior:
//   - Serves (page, size) from cache when present.
//   - A page starting at or past the eligible universe size is empty and not cached.
//   - Records follow instrument order; instruments without a positive quote are dropped.
func (s *marketService) GetStocksWithPrices(ctx context.Context, page, size int) ([]models.PriceRecord, error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	key := cache.PageKey{Page: page, Size: size}
	if cached, ok := cache.Get[[]models.PriceRecord](ctx, s.cache, key); ok {
		return cached, nil
	}

	return collapse(ctx, &s.flight, key, func(ctx context.Context) ([]models.PriceRecord, error) {
		log := logger.FromContext(ctx)
		log.Info().Int("page", page).Int("size", size).Msg("cache miss - fetching stocks with prices")

		universe := s.eligibleUniverse(ctx)
		start := int64(page) * int64(size)
		if start >= int64(len(universe)) {
			return []models.PriceRecord{}, nil
		}
		end := min(start+int64(size), int64(len(universe)))

		records := s.priceRecords(ctx, universe[start:end])
		cache.PutList(ctx, s.cache, key, records)
		return records, nil
	})
}

// GetTrendingStocks ranks the whole eligible universe and returns at most limit records.
// The cache holds the list truncated to the limit of the request that filled it.
func (s *marketService) GetTrendingStocks(ctx context.Context, limit int) ([]models.TrendingRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	key := cache.TrendingKey{}
	if cached, ok := cache.Get[[]models.TrendingRecord](ctx, s.cache, key); ok {
		return truncate(cached, limit), nil
	}

	ranked, err := collapse(ctx, &s.flight, key, func(ctx context.Context) ([]models.TrendingRecord, error) {
		logger.FromContext(ctx).Info().Int("limit", limit).Msg("cache miss - computing trending stocks")

		records := s.priceRecords(ctx, s.eligibleUniverse(ctx))
		ranked := truncate(rankTrending(records), limit)
		cache.PutList(ctx, s.cache, key, ranked)
		return ranked, nil
	})
	if err != nil {
		return nil, err
	}
	return truncate(ranked, limit), nil
}

// GetMarketIndices serves indices from cache. On a miss the result is empty unless
// index quotes are enabled, in which case each configured index is fetched in turn.
func (s *marketService) GetMarketIndices(ctx context.Context) ([]models.IndexRecord, error) {
	key := cache.IndicesKey{}
	if cached, ok := cache.Get[[]models.IndexRecord](ctx, s.cache, key); ok {
		return cached, nil
	}
	if !s.opts.IndicesEnabled {
		logger.FromContext(ctx).Debug().Msg("index quotes disabled on this provider tier")
		return []models.IndexRecord{}, nil
	}

	return collapse(ctx, &s.flight, key, func(ctx context.Context) ([]models.IndexRecord, error) {
		log := logger.FromContext(ctx)
		out := make([]models.IndexRecord, 0, len(s.opts.Indices))
		for _, def := range s.opts.Indices {
			if ctx.Err() != nil {
				log.Warn().Int("fetched", len(out)).Msg("index budget exhausted, returning partial indices")
				return out, nil
			}
			q, ok := s.quotes.FetchOne(ctx, def.Symbol)
			if !ok {
				log.Warn().Str("symbol", def.Symbol).Str("index", def.Name).Msg("no quote for index")
				continue
			}
			if rec, ok := assembleIndexRecord(def, q); ok {
				out = append(out, rec)
			}
		}
		cache.PutList(ctx, s.cache, key, out)
		return out, nil
	})
}

// GetMarketSummary composes indices, the top trending stocks, the active instrument
// count and the market status. Indices and trending load concurrently so each gets
// the caller's whole budget. The summary itself is not cached.
func (s *marketService) GetMarketSummary(ctx context.Context) (*models.MarketSummary, error) {
	var (
		indices  []models.IndexRecord
		trending []models.TrendingRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		indices, err = s.GetMarketIndices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trending, err = s.GetTrendingStocks(gctx, SummaryTrendingLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total, err := s.instruments.CountActive(ctx)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to count active instruments")
		total = 0
	}

	return &models.MarketSummary{
		Indices:           indices,
		TrendingStocks:    trending,
		TotalActiveStocks: total,
		MarketStatus:      s.clock.Status(),
	}, nil
}

// ListInstruments returns one page of the instrument master data, active or not,
// without quotes. Nothing is cached and no upstream call is made.
func (s *marketService) ListInstruments(ctx context.Context, page, size int) ([]models.Instrument, error) {
	if page < 0 {
		return nil, ErrInvalidPage
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return s.instruments.ListPage(ctx, size, page*size)
}

// eligibleUniverse lists active instruments served by the current provider tier.
// A lookup failure is logged and yields an empty universe.
func (s *marketService) eligibleUniverse(ctx context.Context) []models.Instrument {
	all, err := s.instruments.ListActive(ctx)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("failed to list active instruments")
		return nil
	}
	universe := s.filter.Universe(all)
	if len(universe) == 0 {
		logger.FromContext(ctx).Warn().Int("active", len(all)).Msg("no eligible instruments")
	}
	return universe
}

// priceRecords translates, batch fetches, enriches and assembles records for
// instruments, preserving their order. All state is local to the call.
func (s *marketService) priceRecords(ctx context.Context, instruments []models.Instrument) []models.PriceRecord {
	log := logger.FromContext(ctx)

	providerSymbols := make([]string, len(instruments))
	symbols := make([]string, 0, len(instruments))
	for i, inst := range instruments {
		sym, ok := s.filter.ProviderSymbol(inst)
		if !ok {
			log.Debug().Str("symbol", inst.Symbol).Str("exchange", inst.Exchange).Msg("no provider symbol")
			continue
		}
		providerSymbols[i] = sym
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		log.Warn().Msg("no valid provider symbols")
		return []models.PriceRecord{}
	}

	batchCtx, cancel := s.batchContext(ctx)
	quoted := s.quotes.FetchBatch(batchCtx, symbols)
	cancel()
	if len(quoted) == 0 {
		log.Warn().Int("symbols", len(symbols)).Msg("no quotes received (provider may be rate limiting)")
		return []models.PriceRecord{}
	}

	profiles := s.profiles(ctx, quoted)

	now := s.now().UTC()
	out := make([]models.PriceRecord, 0, len(quoted))
	for i, inst := range instruments {
		sym := providerSymbols[i]
		if sym == "" {
			continue
		}
		q, ok := quoted[sym]
		if !ok {
			continue
		}
		var profile *models.Profile
		if p, ok := profiles[sym]; ok {
			profile = &p
		}
		if rec, ok := assemblePriceRecord(inst, q, profile, now); ok {
			out = append(out, rec)
		}
	}
	log.Info().Int("requested", len(symbols)).Int("assembled", len(out)).Msg("assembled price records")
	return out
}

// batchContext keeps part of ctx's remaining time back for profile enrichment so
// a slow batch cannot consume the whole load budget.
func (s *marketService) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || !s.opts.ProfileEnrichment {
		return ctx, func() {}
	}
	reserve := min(s.opts.ProfileTimeout, max(time.Until(deadline), 0)/profileShareDivisor)
	return context.WithDeadline(ctx, deadline.Add(-reserve))
}

// profiles looks up company metadata for every quoted symbol, cache first. It is
// best-effort: lookups still pending when ProfileTimeout expires are skipped.
func (s *marketService) profiles(ctx context.Context, quoted map[string]models.Quote) map[string]models.Profile {
	out := make(map[string]models.Profile, len(quoted))
	if !s.opts.ProfileEnrichment {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ProfileTimeout)
	defer cancel()

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.opts.ProfileConcurrency)
	for sym := range quoted {
		g.Go(func() error {
			key := cache.ProfileKey{Symbol: sym}
			p, ok := cache.Get[models.Profile](ctx, s.cache, key)
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				if p, ok = s.quotes.FetchProfile(ctx, sym); !ok {
					return nil
				}
				cache.Put(ctx, s.cache, key, p)
			}
			mu.Lock()
			out[sym] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// collapse runs load once per key across concurrent callers. The load runs detached
// from the caller's cancellation so an abandoned request still warms the cache, but
// it must finish ahead of the caller's deadline. A caller whose ctx ends stops
// waiting and forgets the flight, so later callers start a fresh load instead of
// joining the abandoned one.
func collapse[T any](ctx context.Context, group *singleflight.Group, key cache.Key, load func(context.Context) ([]T, error)) ([]T, error) {
	ch := group.DoChan(key.String(), func() (any, error) {
		loadCtx, cancel := loadContext(ctx)
		defer cancel()
		return load(loadCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		group.Forget(key.String())
		return nil, ctx.Err()
	}
}

// loadContext detaches ctx from cancellation and, when ctx has a deadline, ends
// the load a margin before it so the result still reaches the caller.
func loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	deadline, ok := ctx.Deadline()
	if !ok {
		return detached, func() {}
	}
	margin := min(max(time.Until(deadline), 0)/loadMarginDivisor, maxLoadMargin)
	return context.WithDeadline(detached, deadline.Add(-margin))
}
