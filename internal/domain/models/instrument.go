package models

import "time"

// Instrument is a tradable security's master record as stored in masterdata.instruments.
//
// Fields:
//   - Symbol: unique, exchange-scoped ticker (e.g., "AAPL").
//   - Exchange: listing exchange code (e.g., "NASDAQ", "NSE").
//   - Active: only active instruments take part in aggregation.
//   - LastVerifiedAt: last time the record was checked against a provider (nil if never).
//
// The aggregation engine only reads instruments; seeding writes them.
type Instrument struct {
	ID             int64      `json:"id" example:"1"`
	Symbol         string     `json:"symbol" example:"AAPL"`
	Name           string     `json:"name" example:"Apple Inc."`
	Exchange       string     `json:"exchange" example:"NASDAQ"`
	Sector         string     `json:"sector,omitempty" example:"Technology"`
	Active         bool       `json:"active" example:"true"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}
