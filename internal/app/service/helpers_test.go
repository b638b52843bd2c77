package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"indoswap/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

// fakeTickers serves canned upstream tickers or a fixed error.
type fakeTickers struct {
	mu      sync.Mutex
	tickers map[string]entity.MarketTicker
	err     error
	calls   int
}

func (f *fakeTickers) Tickers(ctx context.Context) (map[string]entity.MarketTicker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tickers, nil
}

// fakeBalances serves balances keyed by "chainID/symbol-or-contract".
type fakeBalances struct {
	mu       sync.Mutex
	native   map[entity.ChainID]*big.Int
	erc20    map[string]*big.Int
	failures map[string]error
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{
		native:   make(map[entity.ChainID]*big.Int),
		erc20:    make(map[string]*big.Int),
		failures: make(map[string]error),
	}
}

func erc20Key(chainID entity.ChainID, contract string) string {
	return fmt.Sprintf("%d/%s", chainID, contract)
}

func (f *fakeBalances) NativeBalance(ctx context.Context, address string, chainID entity.ChainID) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[chainID.String()]; ok {
		return nil, err
	}
	if v, ok := f.native[chainID]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeBalances) Erc20Balance(ctx context.Context, address, contract string, chainID entity.ChainID) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := erc20Key(chainID, contract)
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if v, ok := f.erc20[key]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

// fakePrices is a static price feed for portfolio and swap tests.
type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) Price(symbol string) (entity.TokenPrice, bool) {
	usd, ok := f.prices[symbol]
	if !ok {
		return entity.TokenPrice{}, false
	}
	return entity.TokenPrice{Symbol: symbol, USD: usd, LastUpdated: time.Now(), Source: entity.PriceSourceSeed}, true
}

func (f *fakePrices) All() []entity.TokenPrice {
	out := make([]entity.TokenPrice, 0, len(f.prices))
	for symbol := range f.prices {
		p, _ := f.Price(symbol)
		out = append(out, p)
	}
	return out
}

func (f *fakePrices) Refresh(ctx context.Context) error    { return nil }
func (f *fakePrices) IsStale(threshold time.Duration) bool { return false }
