package entity

import (
	"math/big"
	"time"
)

// BalanceFetch identifies a single (chain, token) balance read inside a
// portfolio refresh fan-out.
type BalanceFetch struct {
	Token TokenSpec
}

// BalanceFetchResult carries the outcome of one balance read. A failed read
// contributes a zero balance and marks the symbol degraded; it never aborts
// the rest of the fan-out.
type BalanceFetchResult struct {
	Token  TokenSpec
	Raw    *big.Int
	Amount string // decoded decimal string
	Err    error
}

// TokenBalance is the merged, published balance for one symbol across all
// chains it exists on.
type TokenBalance struct {
	Symbol      string    `json:"symbol"`
	Amount      string    `json:"amount"`
	USDValue    float64   `json:"usdValue"`
	Chains      []ChainID `json:"chains"`
	Degraded    bool      `json:"degraded,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// PortfolioSnapshot is the aggregate view published after a refresh. Each
// refresh replaces the previous snapshot wholesale; readers never observe a
// mix of old and new balances.
type PortfolioSnapshot struct {
	Address      string                  `json:"address"`
	Balances     map[string]TokenBalance `json:"balances"`
	TotalUSD     float64                 `json:"totalUsd"`
	TotalDisplay string                  `json:"totalDisplay"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}
