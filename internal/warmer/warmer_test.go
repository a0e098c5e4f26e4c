package warmer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guttosm/stockpulse/internal/cache"
	"github.com/guttosm/stockpulse/internal/domain/models"
)

type fakeService struct {
	mu          sync.Mutex
	trendCalls  int
	pricesCalls int
	err         error
}

func (f *fakeService) GetStocksWithPrices(_ context.Context, page, size int) ([]models.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pricesCalls++
	if page != firstPage || size != firstPageSize {
		return nil, errors.New("unexpected page")
	}
	return []models.PriceRecord{{Symbol: "AAPL"}}, f.err
}

func (f *fakeService) GetMarketIndices(context.Context) ([]models.IndexRecord, error) {
	return nil, nil
}

func (f *fakeService) ListInstruments(context.Context, int, int) ([]models.Instrument, error) {
	return nil, nil
}

func (f *fakeService) GetTrendingStocks(_ context.Context, limit int) ([]models.TrendingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trendCalls++
	if limit != trendingLimit {
		return nil, errors.New("unexpected limit")
	}
	return []models.TrendingRecord{{Symbol: "NVDA"}}, f.err
}

func (f *fakeService) GetMarketSummary(context.Context) (*models.MarketSummary, error) {
	return nil, nil
}

func (f *fakeService) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trendCalls, f.pricesCalls
}

type fakePresence map[string]bool

func (p fakePresence) Has(_ context.Context, k cache.Key) bool { return p[k.String()] }

type fakeCalendar bool

func (c fakeCalendar) IsTradingDay(time.Time) bool { return bool(c) }

func TestRunOnce(t *testing.T) {
	pageKey := cache.PageKey{Page: 0, Size: 20}.String()
	trendKey := cache.TrendingKey{}.String()

	cases := []struct {
		name        string
		presence    fakePresence
		calendar    Calendar
		opts        Options
		err         error
		wantErr     bool
		wantWarmed  int
		wantSkipped int
		wantTrend   int
		wantPrices  int
	}{
		{name: "cold cache", presence: fakePresence{}, wantWarmed: 2, wantTrend: 1, wantPrices: 1},
		{name: "trending cached", presence: fakePresence{trendKey: true}, wantWarmed: 1, wantSkipped: 1, wantPrices: 1},
		{name: "all cached", presence: fakePresence{trendKey: true, pageKey: true}, wantSkipped: 2},
		{name: "closed day skipped", presence: fakePresence{}, calendar: fakeCalendar(false), opts: Options{SkipNonTradingDays: true}},
		{name: "closed day ignored when not configured", presence: fakePresence{}, calendar: fakeCalendar(false), wantWarmed: 2, wantTrend: 1, wantPrices: 1},
		{name: "trading day", presence: fakePresence{}, calendar: fakeCalendar(true), opts: Options{SkipNonTradingDays: true}, wantWarmed: 2, wantTrend: 1, wantPrices: 1},
		{name: "service error stops run", presence: fakePresence{}, err: context.DeadlineExceeded, wantErr: true, wantTrend: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{err: tc.err}
			w := New(svc, tc.presence, tc.calendar, tc.opts)
			res, err := w.RunOnce(context.Background())
			if tc.wantErr != (err != nil) {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if len(res.Warmed) != tc.wantWarmed || len(res.Skipped) != tc.wantSkipped {
				t.Fatalf("unexpected result: %+v", res)
			}
			trend, prices := svc.calls()
			if trend != tc.wantTrend || prices != tc.wantPrices {
				t.Fatalf("calls trend=%d prices=%d, want %d/%d", trend, prices, tc.wantTrend, tc.wantPrices)
			}
		})
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	w := New(&fakeService{}, fakePresence{}, nil, Options{})
	if err := w.Start("not a schedule"); err == nil {
		t.Fatalf("expected schedule error")
	}
	w.Stop(context.Background())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	svc := &fakeService{}
	w := New(svc, fakePresence{}, nil, Options{})
	if err := w.Start("@every 1s"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if trend, _ := svc.calls(); trend > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("scheduled warm did not run")
}
