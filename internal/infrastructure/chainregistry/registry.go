// Package chainregistry is the static table of supported networks and their
// tokens. Entries are fixed at compile time; nothing mutates them.
package chainregistry

import "indoswap/internal/domain/entity"

// Predefined network definitions.
var (
	BSC = entity.NetworkConfig{
		ChainID:          56,
		Name:             "Binance Smart Chain",
		Identifier:       "bsc",
		NativeName:       "Binance Coin",
		NativeSymbol:     "BNB",
		NativeDecimals:   18,
		RPCURL:           "https://bsc-dataseed.binance.org/",
		BlockExplorerURL: "https://bscscan.com",
	}
	Ethereum = entity.NetworkConfig{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeName:       "Ether",
		NativeSymbol:     "ETH",
		NativeDecimals:   18,
		RPCURL:           "https://eth.llamarpc.com",
		BlockExplorerURL: "https://etherscan.io",
	}
)

// tokensByChain lists the contract tokens tracked per network. Native assets
// are not listed here; they come from NetworkConfig.NativeToken. The same
// symbol deliberately exists on both chains (bridged representations), which
// is what forces the merge-by-symbol rule in the aggregator.
var tokensByChain = map[entity.ChainID][]entity.TokenSpec{
	56: {
		{
			Symbol:          "ETH",
			DisplayName:     "Ethereum",
			Decimals:        18,
			ContractAddress: "0x2170Ed0880ac9A755fd29B2688956BD959F933F8",
			ChainID:         56,
			PriceFeedKey:    "ETHUSDT",
		},
		{
			Symbol:          "USDT",
			DisplayName:     "Tether USD",
			Decimals:        18,
			ContractAddress: "0x55d398326f99059fF775485246999027B3197955",
			ChainID:         56,
			PriceFeedKey:    "STABLE",
		},
	},
	1: {
		{
			Symbol:          "USDT",
			DisplayName:     "Tether USD",
			Decimals:        6,
			ContractAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			ChainID:         1,
			PriceFeedKey:    "STABLE",
		},
		{
			Symbol:          "BNB",
			DisplayName:     "Binance Coin",
			Decimals:        18,
			ContractAddress: "0xB8c77482e45F1F44dE1745F52C74426C631bDD52",
			ChainID:         1,
			PriceFeedKey:    "BNBUSDT",
		},
	},
}

// priceFeedKeys maps tracked symbols to their external ticker pair. STABLE
// marks the quote base pegged to $1.00.
var priceFeedKeys = map[string]string{
	"BNB":  "BNBUSDT",
	"BUSD": "BUSDUSDT",
	"USDC": "USDCUSDT",
	"ETH":  "ETHUSDT",
	"BTCB": "BTCUSDT",
	"USDT": "STABLE",
}

// Registry resolves chain ids to network metadata and token sets.
type Registry struct {
	networks map[entity.ChainID]entity.NetworkConfig
	order    []entity.ChainID
}

// New builds the default registry over the predefined networks.
func New() *Registry {
	return &Registry{
		networks: map[entity.ChainID]entity.NetworkConfig{
			BSC.ChainID:      BSC,
			Ethereum.ChainID: Ethereum,
		},
		order: []entity.ChainID{BSC.ChainID, Ethereum.ChainID},
	}
}

// Network returns the configuration for a chain id.
func (r *Registry) Network(id entity.ChainID) (entity.NetworkConfig, bool) {
	n, ok := r.networks[id]
	return n, ok
}

// IsSupported reports whether a chain id has a registry entry.
func (r *Registry) IsSupported(id entity.ChainID) bool {
	_, ok := r.networks[id]
	return ok
}

// ChainIDs returns all supported chain ids in a stable order.
func (r *Registry) ChainIDs() []entity.ChainID {
	out := make([]entity.ChainID, len(r.order))
	copy(out, r.order)
	return out
}

// Tokens returns every token tracked on a chain, the native asset first.
func (r *Registry) Tokens(id entity.ChainID) []entity.TokenSpec {
	net, ok := r.networks[id]
	if !ok {
		return nil
	}
	native := net.NativeToken()
	native.PriceFeedKey = priceFeedKeys[native.Symbol]
	out := make([]entity.TokenSpec, 0, len(tokensByChain[id])+1)
	out = append(out, native)
	out = append(out, tokensByChain[id]...)
	return out
}

// TrackedSymbols returns the symbols the price feed follows and their ticker
// pair keys.
func (r *Registry) TrackedSymbols() map[string]string {
	out := make(map[string]string, len(priceFeedKeys))
	for sym, key := range priceFeedKeys {
		out[sym] = key
	}
	return out
}

// AddChainParams builds the wallet_addEthereumChain payload for a chain,
// used when a provider reports the switch target unknown.
func (r *Registry) AddChainParams(id entity.ChainID) (entity.AddChainParams, bool) {
	net, ok := r.networks[id]
	if !ok {
		return entity.AddChainParams{}, false
	}
	return entity.AddChainParams{
		ChainID:   net.ChainID.Hex(),
		ChainName: net.Name,
		NativeCurrency: entity.NativeCurrency{
			Name:     net.NativeName,
			Symbol:   net.NativeSymbol,
			Decimals: net.NativeDecimals,
		},
		RPCURLs:           []string{net.RPCURL},
		BlockExplorerURLs: []string{net.BlockExplorerURL},
	}, true
}
