package entity

import "time"

// PriceSource tells where a quote came from.
type PriceSource string

const (
	PriceSourceSeed      PriceSource = "seed"
	PriceSourceBinance   PriceSource = "binance"
	PriceSourceSimulated PriceSource = "simulated"
)

// TokenPrice is the current USD quote for a symbol.
type TokenPrice struct {
	Symbol      string      `json:"symbol"`
	USD         float64     `json:"usd"`
	Change24h   float64     `json:"change24h"`
	Volume24h   float64     `json:"volume24h,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Source      PriceSource `json:"source"`
}

// MarketTicker is one row of an external 24h ticker response, still in the
// string form the exchange returns.
type MarketTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}
