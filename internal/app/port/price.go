package port

import (
	"context"
	"time"

	"indoswap/internal/domain/entity"
)

// PriceFeed supplies current USD quotes for tracked symbols. It always has a
// value to hand out: when the external source is unreachable it degrades to
// a simulated fluctuation of the last known prices.
type PriceFeed interface {
	// Price returns the current quote for a symbol, false if untracked.
	Price(symbol string) (entity.TokenPrice, bool)

	// All returns the current quote table.
	All() []entity.TokenPrice

	// Refresh re-fetches or regenerates all tracked prices. Concurrent calls
	// share one in-flight refresh.
	Refresh(ctx context.Context) error

	// IsStale reports whether no refresh has landed within the threshold.
	IsStale(threshold time.Duration) bool
}

// TickerSource fetches 24h market tickers from an external quote source.
type TickerSource interface {
	Tickers(ctx context.Context) (map[string]entity.MarketTicker, error)
}
