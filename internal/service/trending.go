package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// rankTrending converts price records into trending records ordered by volume
// descending, then change percent descending, then symbol ascending.
func rankTrending(records []models.PriceRecord) []models.TrendingRecord {
	out := make([]models.TrendingRecord, 0, len(records))
	for _, r := range records {
		pct := r.ChangePercent
		out = append(out, models.TrendingRecord{
			Symbol:        r.Symbol,
			Name:          r.Name,
			Exchange:      r.Exchange,
			CurrentPrice:  r.CurrentPrice,
			ChangePercent: pct,
			Volume:        r.Volume,
			TrendReason:   models.ClassifyTrend(&pct, r.Volume),
		})
	}
	slices.SortStableFunc(out, compareTrending)
	return out
}

func compareTrending(a, b models.TrendingRecord) int {
	if c := cmp.Compare(b.Volume, a.Volume); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ChangePercent, a.ChangePercent); c != 0 {
		return c
	}
	return strings.Compare(a.Symbol, b.Symbol)
}

// truncate returns at most n leading elements of s.
func truncate[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
