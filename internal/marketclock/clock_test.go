package marketclock

import (
	"testing"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

func newClock(t *testing.T, holidays ...string) *Clock {
	t.Helper()
	c, err := New(Config{Location: time.UTC, Open: "09:15", Close: "15:30", Holidays: holidays})
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	return c
}

func TestStatusAt(t *testing.T) {
	c := newClock(t)
	monday := func(h, m, s int) time.Time { return time.Date(2026, 10, 12, h, m, s, 0, time.UTC) }

	cases := []struct {
		name string
		at   time.Time
		want models.MarketStatus
	}{
		{"monday 10:00", monday(10, 0, 0), models.MarketOpen},
		{"monday 08:00", monday(8, 0, 0), models.MarketPreMarket},
		{"monday 16:00", monday(16, 0, 0), models.MarketPostMarket},
		{"open boundary", monday(9, 15, 0), models.MarketOpen},
		{"one minute before open", monday(9, 14, 59), models.MarketPreMarket},
		{"close minute", monday(15, 30, 59), models.MarketOpen},
		{"after close minute", monday(15, 31, 0), models.MarketPostMarket},
		{"saturday midday", time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC), models.MarketClosed},
		{"sunday early", time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC), models.MarketClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.StatusAt(tc.at); got != tc.want {
				t.Fatalf("StatusAt(%s)=%s, want %s", tc.at, got, tc.want)
			}
		})
	}
}

func TestStatusAt_UsesMarketLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	c, err := New(Config{Location: ist, Open: "09:15", Close: "15:30"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// 04:30 UTC is 10:00 IST.
	if got := c.StatusAt(time.Date(2026, 10, 12, 4, 30, 0, 0, time.UTC)); got != models.MarketOpen {
		t.Fatalf("expected OPEN in market location, got %s", got)
	}
}

func TestStatusAt_Holiday(t *testing.T) {
	c := newClock(t, "2026-10-12")
	if got := c.StatusAt(time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)); got != models.MarketClosed {
		t.Fatalf("holiday should be CLOSED, got %s", got)
	}
	if !c.IsTradingDay(time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("tuesday should be a trading day")
	}
}

func TestStatus_InjectedNow(t *testing.T) {
	c := newClock(t).WithNow(func() time.Time { return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC) })
	if got := c.Status(); got != models.MarketClosed {
		t.Fatalf("expected CLOSED on saturday, got %s", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	cases := []Config{
		{Open: "9am", Close: "15:30"},
		{Open: "09:15", Close: "25:00"},
		{Open: "15:30", Close: "09:15"},
		{Open: "09:15", Close: "15:30", Holidays: []string{"12/25/2026"}},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}
