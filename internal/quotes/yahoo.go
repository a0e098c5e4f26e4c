package quotes

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// Yahoo serves quotes through Yahoo Finance. Unlike Finnhub it reports volume
// and covers non-US exchanges through symbol suffixes.
type Yahoo struct {
	getQuote  func(symbol string) (*finance.Quote, error)
	getEquity func(symbol string) (*finance.Equity, error)
	now       func() time.Time
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo() *Yahoo {
	return &Yahoo{getQuote: quote.Get, getEquity: equity.Get, now: time.Now}
}

func (y *Yahoo) Name() string { return "yahoo" }

// Quote fetches a regular-market quote. finance-go has no context support, so the
// call runs in a goroutine and ctx only bounds how long we wait for it.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := await(ctx, func() (*finance.Quote, error) { return y.getQuote(symbol) })
	if err != nil {
		return models.Quote{}, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return models.Quote{
		Symbol:        symbol,
		CurrentPrice:  q.RegularMarketPrice,
		PreviousClose: q.RegularMarketPreviousClose,
		DayHigh:       q.RegularMarketDayHigh,
		DayLow:        q.RegularMarketDayLow,
		Volume:        int64(q.RegularMarketVolume),
		FetchedAt:     y.now().UTC(),
	}, nil
}

// Profile fetches equity metadata. Market cap is converted to millions to match Finnhub.
func (y *Yahoo) Profile(ctx context.Context, symbol string) (models.Profile, error) {
	e, err := await(ctx, func() (*finance.Equity, error) { return y.getEquity(symbol) })
	if err != nil {
		return models.Profile{}, fmt.Errorf("yahoo equity %s: %w", symbol, err)
	}
	if e == nil {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	name := e.LongName
	if name == "" {
		name = e.ShortName
	}
	return models.Profile{
		Symbol:    symbol,
		Name:      name,
		Currency:  e.CurrencyID,
		MarketCap: float64(e.MarketCap) / 1_000_000,
	}, nil
}

func await[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
