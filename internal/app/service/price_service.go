package service

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/pkg/metrics"
)

// stablePriceKey marks tracked symbols quoted at a fixed dollar instead of a
// market ticker.
const stablePriceKey = "STABLE"

// seedPrice is the bootstrap quote used before the first upstream refresh
// succeeds.
type seedPrice struct {
	usd      float64
	change24 float64
}

var seedPrices = map[string]seedPrice{
	"BNB":  {usd: 285.42, change24: 2.45},
	"BUSD": {usd: 1.0000, change24: 0.02},
	"USDT": {usd: 1.0001, change24: -0.01},
	"USDC": {usd: 0.9999, change24: 0.01},
	"ETH":  {usd: 2456.78, change24: 1.84},
	"BTCB": {usd: 43256.89, change24: -0.67},
}

// PriceServiceImpl implements port.PriceFeed. Quotes come from the ticker
// source when it answers; between refreshes every quote drifts with a small
// simulated walk so the feed never looks frozen.
type PriceServiceImpl struct {
	tickers  port.TickerSource
	feedKeys map[string]string
	store    *gocache.Cache
	logger   port.Logger

	refreshInterval time.Duration
	requestTimeout  time.Duration

	group singleflight.Group

	mu          sync.Mutex
	rng         *rand.Rand
	lastRefresh time.Time
	onUpdate    func([]entity.TokenPrice)
	running     bool
	stop        chan struct{}
}

// NewPriceService builds a feed over the given ticker source. feedKeys maps a
// tracked symbol to its upstream ticker symbol, or to STABLE for a fixed
// dollar quote.
func NewPriceService(
	tickers port.TickerSource,
	feedKeys map[string]string,
	refreshInterval time.Duration,
	requestTimeout time.Duration,
	l port.Logger,
) *PriceServiceImpl {
	s := &PriceServiceImpl{
		tickers:         tickers,
		feedKeys:        feedKeys,
		store:           gocache.New(gocache.NoExpiration, 10*time.Minute),
		logger:          l,
		refreshInterval: refreshInterval,
		requestTimeout:  requestTimeout,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.seed()
	return s
}

// SetRandSource replaces the walk's random source, making the simulated
// steps reproducible.
func (s *PriceServiceImpl) SetRandSource(src rand.Source) {
	s.mu.Lock()
	s.rng = rand.New(src)
	s.mu.Unlock()
}

// SetOnUpdate registers a callback fired with the full quote list after every
// price change. Must be called before Start.
func (s *PriceServiceImpl) SetOnUpdate(fn func([]entity.TokenPrice)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

func (s *PriceServiceImpl) seed() {
	now := time.Now()
	for symbol, key := range s.feedKeys {
		seed, ok := seedPrices[strings.ToUpper(symbol)]
		if !ok {
			if key == stablePriceKey {
				seed = seedPrice{usd: 1.00, change24: 0.01}
			} else {
				continue
			}
		}
		s.store.Set(symbol, entity.TokenPrice{
			Symbol:      symbol,
			USD:         seed.usd,
			Change24h:   seed.change24,
			LastUpdated: now,
			Source:      entity.PriceSourceSeed,
		}, gocache.NoExpiration)
	}
	s.mu.Lock()
	s.lastRefresh = now
	s.mu.Unlock()
}

// Price returns the current quote for a tracked symbol.
func (s *PriceServiceImpl) Price(symbol string) (entity.TokenPrice, bool) {
	v, ok := s.store.Get(strings.ToUpper(symbol))
	if !ok {
		return entity.TokenPrice{}, false
	}
	return v.(entity.TokenPrice), true
}

// All returns every tracked quote.
func (s *PriceServiceImpl) All() []entity.TokenPrice {
	items := s.store.Items()
	prices := make([]entity.TokenPrice, 0, len(items))
	for _, item := range items {
		prices = append(prices, item.Object.(entity.TokenPrice))
	}
	return prices
}

// IsStale reports whether no quote update happened within threshold.
func (s *PriceServiceImpl) IsStale(threshold time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastRefresh) > threshold
}

// Refresh pulls fresh tickers from the upstream source. Concurrent callers
// share one in-flight request. On upstream failure the quotes take a
// simulated step instead, so Refresh itself only errors when it has nothing
// at all to serve.
func (s *PriceServiceImpl) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *PriceServiceImpl) refresh(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	tickers, err := s.tickers.Tickers(reqCtx)
	if err != nil {
		s.logger.Warn("Ticker fetch failed, falling back to simulated prices", "error", err)
		s.simulateStep()
		return nil
	}

	now := time.Now()
	updated := 0
	for symbol, key := range s.feedKeys {
		if key == stablePriceKey {
			s.store.Set(symbol, entity.TokenPrice{
				Symbol:      symbol,
				USD:         1.00,
				Change24h:   0.01,
				LastUpdated: now,
				Source:      entity.PriceSourceBinance,
			}, gocache.NoExpiration)
			updated++
			continue
		}
		ticker, ok := tickers[key]
		if !ok {
			s.logger.Warn("Ticker missing from upstream response", "symbol", symbol, "ticker", key)
			continue
		}
		price, ok := s.tickerToPrice(symbol, ticker, now)
		if !ok {
			continue
		}
		s.store.Set(symbol, price, gocache.NoExpiration)
		updated++
	}

	if updated == 0 {
		s.logger.Warn("Upstream returned no usable tickers, falling back to simulated prices")
		s.simulateStep()
		return nil
	}

	metrics.PriceRefreshes.WithLabelValues(string(entity.PriceSourceBinance)).Inc()
	s.mu.Lock()
	s.lastRefresh = now
	onUpdate := s.onUpdate
	s.mu.Unlock()
	s.logger.Debug("Refreshed prices from upstream", "updated", updated)
	if onUpdate != nil {
		onUpdate(s.All())
	}
	return nil
}

func (s *PriceServiceImpl) tickerToPrice(symbol string, ticker entity.MarketTicker, now time.Time) (entity.TokenPrice, bool) {
	usd, err := parsePositiveFloat(ticker.LastPrice)
	if err != nil {
		s.logger.Warn("Unparseable ticker price", "symbol", symbol, "lastPrice", ticker.LastPrice, "error", err)
		return entity.TokenPrice{}, false
	}
	change, err := parseFloat(ticker.PriceChangePercent)
	if err != nil {
		change = 0
	}
	volume, err := parseFloat(ticker.QuoteVolume)
	if err != nil {
		volume = 0
	}
	return entity.TokenPrice{
		Symbol:      symbol,
		USD:         usd,
		Change24h:   change,
		Volume24h:   volume,
		LastUpdated: now,
		Source:      entity.PriceSourceBinance,
	}, true
}

// simulateStep takes one random walk step on every tracked quote. Prices move
// within ±0.3% and the 24h change drifts within ±0.025 points.
func (s *PriceServiceImpl) simulateStep() {
	now := time.Now()
	s.mu.Lock()
	rng := s.rng
	prices := s.All()
	for _, p := range prices {
		p.USD *= 1 + (rng.Float64()-0.5)*0.006
		p.Change24h += (rng.Float64() - 0.5) * 0.05
		p.LastUpdated = now
		p.Source = entity.PriceSourceSimulated
		s.store.Set(p.Symbol, p, gocache.NoExpiration)
	}
	s.lastRefresh = now
	onUpdate := s.onUpdate
	s.mu.Unlock()

	metrics.PriceRefreshes.WithLabelValues(string(entity.PriceSourceSimulated)).Inc()
	if onUpdate != nil {
		onUpdate(s.All())
	}
}

// Start launches the background refresh loop. Calling Start on a running
// feed is a no-op; after Stop the loop can be started again.
func (s *PriceServiceImpl) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("Initial price refresh failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.logger.Error("Price refresh failed", "error", err)
				}
			}
		}
	}()
	s.logger.Info("Price feed started", "refresh_interval", s.refreshInterval.String())
}

// Stop halts the refresh loop. Safe to call more than once.
func (s *PriceServiceImpl) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
}
