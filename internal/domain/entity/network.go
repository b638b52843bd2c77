package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// ChainID is the numeric identifier of a blockchain network (e.g. 56 for BSC).
type ChainID uint64

// Hex returns the chain id in the 0x-prefixed form wallet providers expect.
func (c ChainID) Hex() string {
	return fmt.Sprintf("0x%x", uint64(c))
}

func (c ChainID) String() string {
	return fmt.Sprintf("%d", uint64(c))
}

// ParseChainID parses a chain id from either the 0x-prefixed hex form
// providers emit or plain decimal.
func ParseChainID(s string) (ChainID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
		}
		return ChainID(v), nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	return ChainID(v), nil
}

// NetworkConfig holds the static configuration for a supported blockchain network.
type NetworkConfig struct {
	ChainID          ChainID `json:"chainId" yaml:"chainId"`
	Name             string  `json:"name" yaml:"name"`
	Identifier       string  `json:"identifier" yaml:"identifier"`
	NativeName       string  `json:"nativeName" yaml:"nativeName"`
	NativeSymbol     string  `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeDecimals   uint8   `json:"nativeDecimals" yaml:"nativeDecimals"`
	RPCURL           string  `json:"rpcUrl" yaml:"rpcUrl"`
	BlockExplorerURL string  `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// NativeToken returns the network's intrinsic currency as a TokenSpec.
func (n NetworkConfig) NativeToken() TokenSpec {
	return TokenSpec{
		Symbol:      n.NativeSymbol,
		DisplayName: n.NativeName,
		Decimals:    n.NativeDecimals,
		ChainID:     n.ChainID,
	}
}

// AddChainParams is the wallet_addEthereumChain parameter object (EIP-3085).
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// NativeCurrency describes a chain's native asset inside AddChainParams.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}
