// Package eligibility decides which instruments the configured quote provider tier can serve
// and translates instrument symbols into the provider's symbol format.
package eligibility

import (
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// IndexPrefix marks a symbol already in index format (e.g., "^GSPC").
const IndexPrefix = "^"

// Filter is an exchange allow-list plus the per-exchange symbol suffix used by a provider.
// The zero value allows nothing.
type Filter struct {
	allowed  map[string]struct{}
	suffixes map[string]string // exchange -> suffix appended to the bare symbol; only translatable exchanges appear
}

// New builds a Filter. allowed lists the exchanges that pass Eligible; suffixes maps every
// exchange whose symbols can be translated to the suffix appended ("" for bare symbols).
func New(allowed []string, suffixes map[string]string) Filter {
	f := Filter{
		allowed:  make(map[string]struct{}, len(allowed)),
		suffixes: make(map[string]string, len(suffixes)),
	}
	for _, ex := range allowed {
		f.allowed[normalize(ex)] = struct{}{}
	}
	for ex, sfx := range suffixes {
		f.suffixes[normalize(ex)] = sfx
	}
	return f
}

// FinnhubFreeTier serves US listings only: NYSE and NASDAQ symbols are used as-is and
// CBOE is allowed for index symbols such as ^VIX.
func FinnhubFreeTier() Filter {
	return New(
		[]string{"NYSE", "NASDAQ", "CBOE"},
		map[string]string{"NYSE": "", "NASDAQ": ""},
	)
}

// Yahoo serves US listings plus the Indian and London exchanges using Yahoo's suffixes.
func Yahoo() Filter {
	return New(
		[]string{"NYSE", "NASDAQ", "CBOE", "NSE", "BSE", "LSE"},
		map[string]string{"NYSE": "", "NASDAQ": "", "NSE": ".NS", "BSE": ".BO", "LSE": ".L"},
	)
}

// Eligible reports whether exchange is on the allow-list (case-insensitive).
func (f Filter) Eligible(exchange string) bool {
	_, ok := f.allowed[normalize(exchange)]
	return ok
}

// ProviderSymbol returns the provider symbol for inst, or false when the instrument
// cannot be served. Index-format symbols pass through unchanged.
func (f Filter) ProviderSymbol(inst models.Instrument) (string, bool) {
	symbol := strings.TrimSpace(inst.Symbol)
	if symbol == "" || strings.TrimSpace(inst.Exchange) == "" {
		return "", false
	}
	if strings.HasPrefix(symbol, IndexPrefix) {
		return symbol, true
	}
	if sfx, ok := f.suffixes[normalize(inst.Exchange)]; ok {
		return symbol + sfx, true
	}
	return "", false
}

// Universe keeps the instruments whose exchange is eligible, preserving order.
func (f Filter) Universe(instruments []models.Instrument) []models.Instrument {
	out := make([]models.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if f.Eligible(inst.Exchange) {
			out = append(out, inst)
		}
	}
	return out
}

func normalize(exchange string) string {
	return strings.ToUpper(strings.TrimSpace(exchange))
}
