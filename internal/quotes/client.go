package quotes

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/logger"
)

// Options tunes a Client.
//
// Fields:
//   - RatePerSec, Burst: upstream call ceiling shared by every call of the client.
//   - Concurrency: maximum in-flight calls during FetchBatch.
//   - BatchTimeout: total wait bound of FetchBatch (default 60s).
//   - RequestTimeout: bound of FetchOne and FetchProfile (default 10s).
type Options struct {
	RatePerSec     float64
	Burst          int
	Concurrency    int
	BatchTimeout   time.Duration
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.RatePerSec <= 0 {
		o.RatePerSec = 1
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 60 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	return o
}

// Client implements Source on top of a Provider.
type Client struct {
	provider Provider
	limiter  *rate.Limiter
	group    singleflight.Group
	opts     Options
}

// NewClient wraps p with rate limiting and the batch deadline.
func NewClient(p Provider, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		opts:     opts,
	}
}

// FetchOne returns the quote for symbol, or false on any provider failure.
func (c *Client) FetchOne(ctx context.Context, symbol string) (models.Quote, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()
	return c.quote(ctx, symbol)
}

// FetchBatch fetches every symbol concurrently and returns the subset that completed
// before BatchTimeout or ctx expired. It never blocks past the deadline: calls still
// in flight at that point are cancelled and their symbols are left out.
func (c *Client) FetchBatch(ctx context.Context, symbols []string) map[string]models.Quote {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return map[string]models.Quote{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.BatchTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		result = make(map[string]models.Quote, len(symbols))
		done   = make(chan struct{})
	)

	go func() {
		defer close(done)
		g := new(errgroup.Group)
		g.SetLimit(c.opts.Concurrency)
		for _, sym := range symbols {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				q, ok := c.quote(ctx, sym)
				if ok {
					mu.Lock()
					result[sym] = q
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	out := make(map[string]models.Quote, len(result))
	for k, v := range result {
		out[k] = v
	}
	mu.Unlock()

	if len(out) < len(symbols) {
		logger.FromContext(ctx).Warn().
			Str("provider", c.provider.Name()).
			Int("requested", len(symbols)).
			Int("received", len(out)).
			Bool("deadline_exceeded", errors.Is(ctx.Err(), context.DeadlineExceeded)).
			Msg("partial batch quote result")
	}
	return out
}

// FetchProfile returns company metadata, or false when unavailable.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (models.Profile, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	v, err := c.shared(ctx, "profile:"+symbol, func(callCtx context.Context) (any, error) {
		return c.provider.Profile(callCtx, symbol)
	})
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("symbol", symbol).Str("provider", c.provider.Name()).Msg("profile unavailable")
		return models.Profile{}, false
	}
	return v.(models.Profile), true
}

// quote waits for the limiter and calls the provider. Concurrent calls for the
// same symbol share one upstream request.
func (c *Client) quote(ctx context.Context, symbol string) (models.Quote, bool) {
	v, err := c.shared(ctx, "quote:"+symbol, func(callCtx context.Context) (any, error) {
		return c.provider.Quote(callCtx, symbol)
	})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("symbol", symbol).Str("provider", c.provider.Name()).Msg("quote unavailable")
		return models.Quote{}, false
	}
	return v.(models.Quote), true
}

// shared runs call once per key across concurrent callers. The upstream call is
// bounded by RequestTimeout alone, so no caller's deadline cuts it short for the
// others; each caller stops waiting when its own ctx ends.
func (c *Client) shared(ctx context.Context, key string, call func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(detached, c.opts.RequestTimeout)
		defer cancel()
		if err := c.limiter.Wait(callCtx); err != nil {
			return nil, err
		}
		return call(callCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
