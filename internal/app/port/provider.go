package port

import (
	"context"
	"encoding/json"

	"indoswap/internal/domain/entity"
)

// Provider event names (EIP-1193).
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnect      = "disconnect"
)

// Provider RPC methods used by the session and balance layer.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodGetBalance      = "eth_getBalance"
	MethodCall            = "eth_call"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
)

// EthereumProvider is the wallet provider capability. It is owned by the
// wallet session and handed to collaborators explicitly, never reached as
// ambient global state.
type EthereumProvider interface {
	// Request performs a provider RPC call and returns the raw result.
	// Failures carry *entity.RPCError where the provider reported a code.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// Subscribe registers a handler for a provider event and returns the
	// handle that removes it. Callers must release every subscription they
	// take out.
	Subscribe(event string, handler func(payload json.RawMessage)) (unsubscribe func())

	// IsMetaMask is the provider identification flag.
	IsMetaMask() bool
}

// ProviderSource exposes the currently usable provider and its selected
// chain. Implemented by the wallet session so the RPC layer can route calls
// for the wallet's chain through the provider instead of a public endpoint.
type ProviderSource interface {
	CurrentProvider() (provider EthereumProvider, chainID entity.ChainID, ok bool)
}
