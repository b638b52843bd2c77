package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
	"indoswap/internal/pkg/format"
	"indoswap/internal/pkg/metrics"
	"indoswap/internal/pkg/numeric"
)

// PortfolioServiceImpl aggregates token balances across every supported chain
// into one snapshot keyed by symbol. Refreshes fan out per token, tolerate
// per-item failures and publish with last-writer-wins so a slow stale refresh
// never clobbers a newer snapshot.
type PortfolioServiceImpl struct {
	registry *chainregistry.Registry
	balances port.BalanceReader
	prices   port.PriceFeed
	logger   port.Logger

	fetchTimeout  time.Duration
	maxConcurrent int

	mu         sync.Mutex
	snapshot   *entity.PortfolioSnapshot
	refreshing bool
	seq        uint64
	published  uint64

	onSnapshot      func(entity.PortfolioSnapshot)
	onNativeBalance func(chainID entity.ChainID, amount string)
}

func NewPortfolioService(
	registry *chainregistry.Registry,
	balances port.BalanceReader,
	prices port.PriceFeed,
	fetchTimeout time.Duration,
	maxConcurrent int,
	l port.Logger,
) *PortfolioServiceImpl {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &PortfolioServiceImpl{
		registry:      registry,
		balances:      balances,
		prices:        prices,
		logger:        l,
		fetchTimeout:  fetchTimeout,
		maxConcurrent: maxConcurrent,
	}
}

// SetOnSnapshot registers a callback fired after every published snapshot.
func (s *PortfolioServiceImpl) SetOnSnapshot(fn func(entity.PortfolioSnapshot)) {
	s.mu.Lock()
	s.onSnapshot = fn
	s.mu.Unlock()
}

// SetOnNativeBalance registers a callback fired with the freshly decoded
// native balance of each chain during a refresh.
func (s *PortfolioServiceImpl) SetOnNativeBalance(fn func(chainID entity.ChainID, amount string)) {
	s.mu.Lock()
	s.onNativeBalance = fn
	s.mu.Unlock()
}

// Snapshot returns the last published snapshot, or false before the first
// refresh completes.
func (s *PortfolioServiceImpl) Snapshot() (entity.PortfolioSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return entity.PortfolioSnapshot{}, false
	}
	return *s.snapshot, true
}

// IsRefreshing reports whether a refresh is in flight.
func (s *PortfolioServiceImpl) IsRefreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

// Refresh fetches every tracked balance for address and publishes the merged
// snapshot. Individual fetch failures degrade their symbol instead of
// aborting the whole refresh.
func (s *PortfolioServiceImpl) Refresh(ctx context.Context, address string) (entity.PortfolioSnapshot, error) {
	started := time.Now()
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.refreshing = true
	onNative := s.onNativeBalance
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.refreshing = false
		}
		s.mu.Unlock()
		metrics.PortfolioRefreshDuration.Observe(time.Since(started).Seconds())
	}()

	s.logger.Debug("Refreshing portfolio", "address", format.ShortAddress(address))

	fetches := s.buildFetches()
	results := make([]entity.BalanceFetchResult, len(fetches))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.maxConcurrent)
	for i, fetch := range fetches {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(i int, token entity.TokenSpec) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = s.fetchOne(ctx, address, token)
		}(i, fetch.Token)
	}
	wg.Wait()

	if onNative != nil {
		for _, r := range results {
			if r.Err == nil && r.Token.IsNative() {
				onNative(r.Token.ChainID, r.Amount)
			}
		}
	}

	snapshot := s.merge(address, results)

	s.mu.Lock()
	if seq <= s.published {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale portfolio refresh", "seq", seq, "published", s.published)
		return snapshot, ctx.Err()
	}
	s.published = seq
	s.snapshot = &snapshot
	onSnapshot := s.onSnapshot
	s.mu.Unlock()

	s.logger.Info("Portfolio refreshed",
		"address", format.ShortAddress(address),
		"symbols", len(snapshot.Balances),
		"total", snapshot.TotalDisplay,
		"duration", time.Since(started).String())
	if onSnapshot != nil {
		onSnapshot(snapshot)
	}
	return snapshot, ctx.Err()
}

// buildFetches enumerates every (chain, token) pair tracked by the registry,
// native tokens included.
func (s *PortfolioServiceImpl) buildFetches() []entity.BalanceFetch {
	var fetches []entity.BalanceFetch
	for _, chainID := range s.registry.ChainIDs() {
		for _, token := range s.registry.Tokens(chainID) {
			fetches = append(fetches, entity.BalanceFetch{Token: token})
		}
	}
	return fetches
}

func (s *PortfolioServiceImpl) fetchOne(ctx context.Context, address string, token entity.TokenSpec) entity.BalanceFetchResult {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	result := entity.BalanceFetchResult{Token: token}
	var err error
	if token.IsNative() {
		result.Raw, err = s.balances.NativeBalance(fetchCtx, address, token.ChainID)
	} else {
		result.Raw, err = s.balances.Erc20Balance(fetchCtx, address, token.ContractAddress, token.ChainID)
	}
	if err != nil {
		result.Err = err
		metrics.BalanceFetchFailures.WithLabelValues(token.ChainID.String(), token.Symbol).Inc()
		s.logger.Warn("Balance fetch failed",
			"symbol", token.Symbol, "chain", token.ChainID.String(), "error", err)
		return result
	}
	result.Amount = numeric.FormatBaseUnits(result.Raw, token.Decimals)
	return result
}

// merge folds per-token results into per-symbol balances. Amounts are summed
// as decoded decimal values because the same symbol can carry different
// decimals on different chains. A failed fetch contributes zero and marks the
// symbol degraded.
func (s *PortfolioServiceImpl) merge(address string, results []entity.BalanceFetchResult) entity.PortfolioSnapshot {
	now := time.Now()
	amounts := make(map[string]decimal.Decimal)
	balances := make(map[string]entity.TokenBalance)

	for _, r := range results {
		symbol := r.Token.Symbol
		b, ok := balances[symbol]
		if !ok {
			b = entity.TokenBalance{Symbol: symbol, LastUpdated: now}
			amounts[symbol] = decimal.Zero
		}
		b.Chains = append(b.Chains, r.Token.ChainID)
		if r.Err != nil {
			b.Degraded = true
		} else {
			amount, err := decimal.NewFromString(r.Amount)
			if err == nil {
				amounts[symbol] = amounts[symbol].Add(amount)
			} else {
				b.Degraded = true
			}
		}
		balances[symbol] = b
	}

	total := decimal.Zero
	for symbol, b := range balances {
		amount := amounts[symbol]
		b.Amount = amount.String()
		if price, ok := s.prices.Price(symbol); ok {
			usd := amount.Mul(decimal.NewFromFloat(price.USD))
			b.USDValue = usd.InexactFloat64()
			total = total.Add(usd)
		} else if !amount.IsZero() {
			s.logger.Warn("No price for held symbol, excluding from total", "symbol", symbol)
			b.Degraded = true
		}
		sort.Slice(b.Chains, func(i, j int) bool { return b.Chains[i] < b.Chains[j] })
		balances[symbol] = b
	}

	totalUSD := total.InexactFloat64()
	return entity.PortfolioSnapshot{
		Address:      address,
		Balances:     balances,
		TotalUSD:     totalUSD,
		TotalDisplay: format.USD(totalUSD),
		UpdatedAt:    now,
	}
}

// Reset clears the published snapshot, used when the wallet disconnects.
func (s *PortfolioServiceImpl) Reset() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}
