package models

// TrendReason is a categorical tag explaining why an instrument is trending.
type TrendReason string

const (
	TrendPriceSurgeHighVolume TrendReason = "PRICE_SURGE_HIGH_VOLUME"
	TrendPriceSurge           TrendReason = "PRICE_SURGE"
	TrendPriceDropHighVolume  TrendReason = "PRICE_DROP_HIGH_VOLUME"
	TrendPriceDrop            TrendReason = "PRICE_DROP"
	TrendHighVolume           TrendReason = "HIGH_VOLUME"
	TrendActive               TrendReason = "ACTIVE"
	TrendUnknown              TrendReason = "UNKNOWN"
)

const (
	// TrendMoveThreshold is the absolute change percent above which a move counts as a surge or drop.
	TrendMoveThreshold = 5.0
	// TrendVolumeThreshold is the volume above which an instrument counts as high volume.
	TrendVolumeThreshold int64 = 1_000_000
)

// ClassifyTrend tags a record by its change percent and volume.
// A nil changePercent yields TrendUnknown.
func ClassifyTrend(changePercent *float64, volume int64) TrendReason {
	if changePercent == nil {
		return TrendUnknown
	}
	highVolume := volume > TrendVolumeThreshold

	switch {
	case *changePercent > TrendMoveThreshold:
		if highVolume {
			return TrendPriceSurgeHighVolume
		}
		return TrendPriceSurge
	case *changePercent < -TrendMoveThreshold:
		if highVolume {
			return TrendPriceDropHighVolume
		}
		return TrendPriceDrop
	case highVolume:
		return TrendHighVolume
	default:
		return TrendActive
	}
}
