package models

import "time"

// PriceRecord is the externally visible unit cached and returned by the prices view.
//
// Invariants:
//   - Change = CurrentPrice - PreviousClose
//   - ChangePercent = Change / PreviousClose * 100, or 0 when PreviousClose <= 0
//
// swagger:model PriceRecord
type PriceRecord struct {
	ID            int64     `json:"id" example:"1"`
	Symbol        string    `json:"symbol" example:"AAPL"`
	Name          string    `json:"name" example:"Apple Inc."`
	Exchange      string    `json:"exchange" example:"NASDAQ"`
	Sector        string    `json:"sector,omitempty" example:"Technology"`
	CurrentPrice  float64   `json:"current_price" example:"189.84"`
	PreviousClose float64   `json:"previous_close" example:"187.15"`
	Change        float64   `json:"change" example:"2.69"`
	ChangePercent float64   `json:"change_percent" example:"1.4373"`
	DayHigh       float64   `json:"day_high" example:"190.32"`
	DayLow        float64   `json:"day_low" example:"186.90"`
	Volume        int64     `json:"volume" example:"0"`
	MarketCap     *float64  `json:"market_cap,omitempty" example:"2950000"`
	Currency      string    `json:"currency" example:"USD"`
	LastUpdated   time.Time `json:"last_updated"`
	Active        bool      `json:"active" example:"true"`
}

// IndexRecord describes a market index snapshot.
//
// swagger:model IndexRecord
type IndexRecord struct {
	Symbol        string  `json:"symbol" example:"^GSPC"`
	Name          string  `json:"name" example:"S&P 500"`
	CurrentPrice  float64 `json:"current_price" example:"5321.41"`
	Change        float64 `json:"change" example:"12.5"`
	ChangePercent float64 `json:"change_percent" example:"0.2354"`
	PreviousClose float64 `json:"previous_close" example:"5308.91"`
	Volume        int64   `json:"volume" example:"0"`
	Exchange      string  `json:"exchange" example:"NYSE"`
}

// TrendingRecord is a ranked entry derived from a batch of PriceRecords.
//
// swagger:model TrendingRecord
type TrendingRecord struct {
	Symbol        string      `json:"symbol" example:"NVDA"`
	Name          string      `json:"name" example:"NVIDIA Corporation"`
	Exchange      string      `json:"exchange" example:"NASDAQ"`
	CurrentPrice  float64     `json:"current_price" example:"120.5"`
	ChangePercent float64     `json:"change_percent" example:"6.2"`
	Volume        int64       `json:"volume" example:"2000000"`
	TrendReason   TrendReason `json:"trend_reason" example:"PRICE_SURGE_HIGH_VOLUME"`
}

// MarketStatus is the session label reported by the market status clock.
type MarketStatus string

const (
	MarketOpen       MarketStatus = "OPEN"
	MarketClosed     MarketStatus = "CLOSED"
	MarketPreMarket  MarketStatus = "PRE_MARKET"
	MarketPostMarket MarketStatus = "POST_MARKET"
)

// MarketSummary composes indices, trending stocks, the active instrument count
// and the current market status.
//
// swagger:model MarketSummary
type MarketSummary struct {
	Indices           []IndexRecord    `json:"indices"`
	TrendingStocks    []TrendingRecord `json:"trending_stocks"`
	TotalActiveStocks int64            `json:"total_active_stocks" example:"50"`
	MarketStatus      MarketStatus     `json:"market_status" example:"OPEN"`
}
