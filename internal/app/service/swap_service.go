package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/pkg/metrics"
)

// TradingFeePct is the flat fee charged on every swap, in percent.
const TradingFeePct = 0.25

// stableSymbols quote so close to a dollar that swaps between them get the
// tighter slippage schedule.
var stableSymbols = map[string]bool{
	"BUSD": true,
	"USDT": true,
	"USDC": true,
}

var (
	oneHundred = decimal.NewFromInt(100)
	feeFactor  = decimal.NewFromFloat(1 - TradingFeePct/100)
)

// SwapServiceImpl quotes and executes swaps between tracked tokens. Quotes
// derive from the price feed; execution is serialized so at most one swap is
// in flight.
type SwapServiceImpl struct {
	prices port.PriceFeed
	logger port.Logger

	executionLatency time.Duration
	inFlight         atomic.Bool
}

func NewSwapService(prices port.PriceFeed, executionLatency time.Duration, l port.Logger) *SwapServiceImpl {
	return &SwapServiceImpl{
		prices:           prices,
		logger:           l,
		executionLatency: executionLatency,
	}
}

// Quote prices a swap of amount fromSymbol into toSymbol. A zero or empty
// amount yields a valid all-zero quote. Unknown symbols or amounts that fail
// to parse return ErrQuoteUnavailable.
func (s *SwapServiceImpl) Quote(fromSymbol, toSymbol, amount string) (entity.SwapQuote, error) {
	fromPrice, okFrom := s.prices.Price(fromSymbol)
	toPrice, okTo := s.prices.Price(toSymbol)
	if !okFrom || !okTo || fromPrice.USD <= 0 || toPrice.USD <= 0 {
		s.logger.Warn("Quote requested for unpriced pair", "from", fromSymbol, "to", toSymbol)
		return entity.SwapQuote{}, fmt.Errorf("%w: %s/%s", entity.ErrQuoteUnavailable, fromSymbol, toSymbol)
	}

	pFrom := decimal.NewFromFloat(fromPrice.USD)
	pTo := decimal.NewFromFloat(toPrice.USD)
	rate := pFrom.Div(pTo)
	reverse := pTo.Div(pFrom)

	quote := entity.SwapQuote{
		FromSymbol:    fromSymbol,
		ToSymbol:      toSymbol,
		FromAmount:    amount,
		ExchangeRate:  rate.InexactFloat64(),
		ReverseRate:   reverse.InexactFloat64(),
		TradingFeePct: TradingFeePct,
		PriceSource:   fromPrice.Source,
	}

	if amount == "" {
		amount = "0"
	}
	in, err := decimal.NewFromString(amount)
	if err != nil || in.IsNegative() {
		return entity.SwapQuote{}, fmt.Errorf("%w: bad amount %q", entity.ErrQuoteUnavailable, amount)
	}

	notionalUSD := in.Mul(pFrom)
	quote.PriceImpactPct = priceImpactPct(notionalUSD)
	quote.SlippagePct = slippagePct(notionalUSD, stableSymbols[fromSymbol] && stableSymbols[toSymbol])

	if in.IsZero() {
		quote.FromAmount = "0"
		quote.ToAmount = "0"
		quote.MinimumReceived = "0"
		return quote, nil
	}

	gross := in.Mul(rate)
	net := gross.Mul(feeFactor)
	min := net.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(quote.SlippagePct).Div(oneHundred)))

	quote.ToAmount = net.String()
	quote.MinimumReceived = min.String()
	return quote, nil
}

// priceImpactPct estimates the impact of a trade from its dollar notional.
func priceImpactPct(notionalUSD decimal.Decimal) float64 {
	usd := notionalUSD.InexactFloat64()
	switch {
	case usd < 1_000:
		return 0.01
	case usd < 10_000:
		return 0.05
	case usd < 100_000:
		return 0.2
	default:
		return 1.0
	}
}

// slippagePct picks the slippage tolerance from the dollar notional, with a
// tighter schedule for stable-to-stable swaps.
func slippagePct(notionalUSD decimal.Decimal, stablePair bool) float64 {
	usd := notionalUSD.InexactFloat64()
	if stablePair {
		switch {
		case usd < 1_000:
			return 0.05
		case usd < 10_000:
			return 0.1
		default:
			return 0.15
		}
	}
	switch {
	case usd < 1_000:
		return 0.1
	case usd < 10_000:
		return 0.3
	case usd < 100_000:
		return 0.8
	default:
		return 2.0
	}
}

// CanSwap reports whether a quote is executable right now.
func (s *SwapServiceImpl) CanSwap(quote *entity.SwapQuote) bool {
	if quote == nil || s.inFlight.Load() {
		return false
	}
	in, err := decimal.NewFromString(quote.FromAmount)
	if err != nil {
		return false
	}
	return in.IsPositive()
}

// IsExecuting reports whether a swap is currently in flight.
func (s *SwapServiceImpl) IsExecuting() bool {
	return s.inFlight.Load()
}

// Execute runs the swap for a previously obtained quote. Only one swap runs
// at a time; a second call while one is in flight fails with ErrSwapInFlight.
func (s *SwapServiceImpl) Execute(ctx context.Context, quote *entity.SwapQuote) error {
	if !s.CanSwap(quote) {
		if s.inFlight.Load() {
			return entity.ErrSwapInFlight
		}
		return fmt.Errorf("%w: quote not executable", entity.ErrQuoteUnavailable)
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return entity.ErrSwapInFlight
	}
	defer s.inFlight.Store(false)

	s.logger.Info("Executing swap",
		"from", quote.FromSymbol, "to", quote.ToSymbol,
		"amount", quote.FromAmount, "expected", quote.ToAmount)

	select {
	case <-ctx.Done():
		metrics.SwapExecutions.WithLabelValues("canceled").Inc()
		return ctx.Err()
	case <-time.After(s.executionLatency):
	}

	metrics.SwapExecutions.WithLabelValues("success").Inc()
	s.logger.Info("Swap executed",
		"from", quote.FromSymbol, "to", quote.ToSymbol, "received", quote.ToAmount)
	return nil
}
