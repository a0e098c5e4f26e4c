// Package cache is the short-TTL snapshot cache used by the aggregation engine.
package cache

import (
	"fmt"
	"strings"
)

// Family groups keys that share a TTL.
type Family string

const (
	FamilyPrices   Family = "prices"
	FamilyIndices  Family = "indices"
	FamilyTrending Family = "trending"
	FamilyProfile  Family = "profile"
)

// Key identifies one cached snapshot. The set of keys is closed: only the types
// in this package implement it, and each renders to a distinct string namespace.
type Key interface {
	Family() Family
	String() string
	sealed()
}

// PageKey caches one page of price records.
type PageKey struct {
	Page int
	Size int
}

// IndicesKey caches the market indices list.
type IndicesKey struct{}

// TrendingKey caches the trending list. The requested limit is not part of the key.
type TrendingKey struct{}

// ProfileKey caches company metadata for one provider symbol.
type ProfileKey struct {
	Symbol string
}

func (PageKey) Family() Family     { return FamilyPrices }
func (IndicesKey) Family() Family  { return FamilyIndices }
func (TrendingKey) Family() Family { return FamilyTrending }
func (ProfileKey) Family() Family  { return FamilyProfile }

func (k PageKey) String() string    { return fmt.Sprintf("prices:page=%d:size=%d", k.Page, k.Size) }
func (IndicesKey) String() string   { return "indices" }
func (TrendingKey) String() string  { return "trending" }
func (k ProfileKey) String() string { return "profile:" + strings.ToUpper(k.Symbol) }

func (PageKey) sealed()     {}
func (IndicesKey) sealed()  {}
func (TrendingKey) sealed() {}
func (ProfileKey) sealed()  {}
