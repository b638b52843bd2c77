package entity

// TokenSpec describes a token supported on a specific network. One instance
// exists per (chain, symbol) pair; the ContractAddress is empty for the
// chain's native asset.
type TokenSpec struct {
	Symbol          string  `json:"symbol"`
	DisplayName     string  `json:"displayName"`
	Decimals        uint8   `json:"decimals"`
	ContractAddress string  `json:"contractAddress,omitempty"`
	ChainID         ChainID `json:"chainId"`
	PriceFeedKey    string  `json:"priceFeedKey,omitempty"`
}

// IsNative reports whether the token is the chain's intrinsic currency.
func (t TokenSpec) IsNative() bool {
	return t.ContractAddress == ""
}
