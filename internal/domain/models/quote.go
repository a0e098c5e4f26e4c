package models

import "time"

// Quote is a point-in-time price snapshot returned by the upstream provider.
// It is never persisted; it lives inside one request/cache cycle.
type Quote struct {
	Symbol        string
	CurrentPrice  float64
	PreviousClose float64
	DayHigh       float64
	DayLow        float64
	Volume        int64 // zero when the provider does not report it
	FetchedAt     time.Time
}

// Profile is best-effort company metadata used to enrich price records.
type Profile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Currency  string  `json:"currency"`
	MarketCap float64 `json:"market_cap"`
}
