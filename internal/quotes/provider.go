// Package quotes is the boundary to the upstream quote provider.
//
// A Provider performs raw calls and reports errors. Client wraps a Provider with
// the upstream call ceiling, request collapsing and the batch deadline, and
// degrades every failure into "no data for this symbol".
package quotes

import (
	"context"
	"errors"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

var (
	// ErrNoData is returned when the provider answers but has nothing for the symbol.
	ErrNoData = errors.New("no data for symbol")
	// ErrRateLimited is returned when the provider rejects the call with HTTP 429.
	ErrRateLimited = errors.New("provider rate limit exceeded")
)

// Provider performs single-symbol calls against one upstream API.
// Symbols are already in the provider's format.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	Profile(ctx context.Context, symbol string) (models.Profile, error)
}

// Source is what the aggregation engine consumes. None of its methods fail:
// a missing quote or profile is reported through the boolean or an absent map key.
type Source interface {
	FetchOne(ctx context.Context, symbol string) (models.Quote, bool)
	FetchBatch(ctx context.Context, symbols []string) map[string]models.Quote
	FetchProfile(ctx context.Context, symbol string) (models.Profile, bool)
}
