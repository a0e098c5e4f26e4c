// Package marketclock maps wall-clock time to a market session label.
package marketclock

import (
	"fmt"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// Config describes the trading session.
type Config struct {
	Location *time.Location // nil means time.Local
	Open     string         // HH:MM, inclusive
	Close    string         // HH:MM, inclusive to the minute
	Holidays []string       // YYYY-MM-DD dates reported as CLOSED
}

// Clock reports the market status. It only reads time; the source of "now" is injectable.
type Clock struct {
	loc      *time.Location
	open     int // minutes since midnight
	close    int
	holidays map[string]struct{}
	now      func() time.Time
}

// New validates cfg and builds a Clock using the wall clock.
func New(cfg Config) (*Clock, error) {
	open, err := parseHHMM(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("open time: %w", err)
	}
	closeAt, err := parseHHMM(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("close time: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("close %s must be after open %s", cfg.Close, cfg.Open)
	}

	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		d, err := time.Parse(time.DateOnly, h)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		holidays[d.Format(time.DateOnly)] = struct{}{}
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, open: open, close: closeAt, holidays: holidays, now: time.Now}, nil
}

// WithNow returns a copy of c that reads the time from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

// Status returns the market status at the current time.
func (c *Clock) Status() models.MarketStatus {
	return c.StatusAt(c.now())
}

// StatusAt returns the market status at t, evaluated in the market's location.
//
// Behavior:
//   - Saturday, Sunday and configured holidays are CLOSED.
//   - Before the open minute is PRE_MARKET.
//   - After the close minute is POST_MARKET.
//   - Otherwise OPEN.
func (c *Clock) StatusAt(t time.Time) models.MarketStatus {
	local := t.In(c.loc)
	if !c.IsTradingDay(local) {
		return models.MarketClosed
	}
	minute := local.Hour()*60 + local.Minute()
	switch {
	case minute < c.open:
		return models.MarketPreMarket
	case minute > c.close:
		return models.MarketPostMarket
	default:
		return models.MarketOpen
	}
}

// IsTradingDay reports whether the calendar day of t (in the market's location)
// is a weekday that is not a configured holiday.
func (c *Clock) IsTradingDay(t time.Time) bool {
	local := t.In(c.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := c.holidays[local.Format(time.DateOnly)]
	return !holiday
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
