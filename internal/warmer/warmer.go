// Package warmer pre-populates the snapshot cache on a cron schedule so the
// first user request after expiry is served warm.
package warmer

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/guttosm/stockpulse/internal/cache"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/service"
)

const (
	trendingLimit = 10
	firstPage     = 0
	firstPageSize = 20
)

// Presence reports whether a snapshot key is currently cached.
type Presence interface {
	Has(ctx context.Context, k cache.Key) bool
}

// Calendar reports whether the market trades on a given day.
type Calendar interface {
	IsTradingDay(t time.Time) bool
}

// Options tunes the warmer.
//
// Fields:
//   - Timeout: deadline of one warm run (default 90s).
//   - SkipNonTradingDays: do nothing on weekends and holidays.
type Options struct {
	Timeout            time.Duration
	SkipNonTradingDays bool
}

// Result summarizes one warm run.
type Result struct {
	Warmed  []string
	Skipped []string
}

type target struct {
	key  cache.Key
	warm func(ctx context.Context) (int, error)
}

// Warmer refreshes the trending list and the first prices page when they are not cached.
type Warmer struct {
	svc      service.MarketService
	presence Presence
	calendar Calendar
	opts     Options
	now      func() time.Time
	cron     *cron.Cron
}

// New builds a Warmer. calendar may be nil when SkipNonTradingDays is false.
func New(svc service.MarketService, presence Presence, calendar Calendar, opts Options) *Warmer {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	return &Warmer{svc: svc, presence: presence, calendar: calendar, opts: opts, now: time.Now}
}

func (w *Warmer) targets() []target {
	return []target{
		{
			key: cache.TrendingKey{},
			warm: func(ctx context.Context) (int, error) {
				out, err := w.svc.GetTrendingStocks(ctx, trendingLimit)
				return len(out), err
			},
		},
		{
			key: cache.PageKey{Page: firstPage, Size: firstPageSize},
			warm: func(ctx context.Context) (int, error) {
				out, err := w.svc.GetStocksWithPrices(ctx, firstPage, firstPageSize)
				return len(out), err
			},
		},
	}
}

// RunOnce warms every target that is not already cached.
// It stops at the first error, which only happens when ctx ends.
func (w *Warmer) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	log := logger.FromContext(ctx)

	if w.opts.SkipNonTradingDays && w.calendar != nil && !w.calendar.IsTradingDay(w.now()) {
		log.Info().Msg("market closed today - skipping cache warm")
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	defer cancel()

	for _, t := range w.targets() {
		name := t.key.String()
		if w.presence.Has(ctx, t.key) {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		start := time.Now()
		n, err := t.warm(ctx)
		if err != nil {
			return res, fmt.Errorf("warm %s: %w", name, err)
		}
		log.Info().Str("key", name).Int("records", n).Dur("elapsed", time.Since(start)).Msg("cache warmed")
		res.Warmed = append(res.Warmed, name)
	}
	return res, nil
}

// Start schedules RunOnce on spec (standard 5-field cron or descriptors like "@every 5m").
// Overlapping runs are skipped.
func (w *Warmer) Start(spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})), cron.WithLogger(cronLogger{}))
	if _, err := c.AddFunc(spec, func() {
		if _, err := w.RunOnce(context.Background()); err != nil {
			logger.L().Error().Err(err).Msg("scheduled cache warm failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	w.cron = c
	c.Start()
	logger.L().Info().Str("schedule", spec).Msg("cache warmer started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to end.
func (w *Warmer) Stop(ctx context.Context) {
	if w.cron == nil {
		return
	}
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.L().Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.L().Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
