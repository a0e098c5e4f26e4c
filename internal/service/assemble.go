package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

const defaultCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// priceChange returns change = current - previousClose and the change percent.
// The ratio is rounded half-up to 4 places before scaling, so percents carry two
// decimals. A non-positive previous close yields a zero percent.
func priceChange(current, previousClose float64) (change, percent float64) {
	cur := decimal.NewFromFloat(current)
	prev := decimal.NewFromFloat(previousClose)
	diff := cur.Sub(prev)
	pct := decimal.Zero
	if prev.IsPositive() {
		pct = diff.DivRound(prev, 4).Mul(hundred)
	}
	return diff.InexactFloat64(), pct.InexactFloat64()
}

// assemblePriceRecord maps an instrument, its quote and an optional profile into a
// PriceRecord. It returns false when the quote has no positive price.
func assemblePriceRecord(inst models.Instrument, q models.Quote, profile *models.Profile, now time.Time) (models.PriceRecord, bool) {
	if q.CurrentPrice <= 0 {
		return models.PriceRecord{}, false
	}
	change, pct := priceChange(q.CurrentPrice, q.PreviousClose)

	rec := models.PriceRecord{
		ID:            inst.ID,
		Symbol:        inst.Symbol,
		Name:          inst.Name,
		Exchange:      inst.Exchange,
		Sector:        inst.Sector,
		CurrentPrice:  q.CurrentPrice,
		PreviousClose: q.PreviousClose,
		Change:        change,
		ChangePercent: pct,
		DayHigh:       orDefault(q.DayHigh, q.CurrentPrice),
		DayLow:        orDefault(q.DayLow, q.CurrentPrice),
		Volume:        q.Volume,
		Currency:      defaultCurrency,
		LastUpdated:   now,
		Active:        inst.Active,
	}

	if profile != nil {
		if profile.Name != "" {
			rec.Name = profile.Name
		}
		if profile.Currency != "" {
			rec.Currency = profile.Currency
		}
		if profile.MarketCap > 0 {
			mc := profile.MarketCap
			rec.MarketCap = &mc
		}
	}
	return rec, true
}

// assembleIndexRecord builds an IndexRecord, or false when the quote has no positive price.
func assembleIndexRecord(def IndexDefinition, q models.Quote) (models.IndexRecord, bool) {
	if q.CurrentPrice <= 0 {
		return models.IndexRecord{}, false
	}
	change, pct := priceChange(q.CurrentPrice, q.PreviousClose)
	return models.IndexRecord{
		Symbol:        def.Symbol,
		Name:          def.Name,
		CurrentPrice:  q.CurrentPrice,
		Change:        change,
		ChangePercent: pct,
		PreviousClose: q.PreviousClose,
		Volume:        q.Volume,
		Exchange:      def.Exchange,
	}, true
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
