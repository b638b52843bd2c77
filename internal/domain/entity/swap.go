package entity

// SwapQuote is an ephemeral quote computed for one input; nothing persists it.
// Token amounts are decimal strings so quotes survive JSON round trips
// without float drift.
type SwapQuote struct {
	FromSymbol      string      `json:"fromSymbol"`
	ToSymbol        string      `json:"toSymbol"`
	FromAmount      string      `json:"fromAmount"`
	ToAmount        string      `json:"toAmount"`
	ExchangeRate    float64     `json:"exchangeRate"`
	ReverseRate     float64     `json:"reverseRate"`
	PriceImpactPct  float64     `json:"priceImpactPct"`
	TradingFeePct   float64     `json:"tradingFeePct"`
	SlippagePct     float64     `json:"slippagePct"`
	MinimumReceived string      `json:"minimumReceived"`
	PriceSource     PriceSource `json:"priceSource"`
}
