package entity

import (
	"errors"
	"fmt"
)

// Provider error codes (EIP-1193 / MetaMask).
const (
	CodeUserRejected       = 4001
	CodeChainNotConfigured = 4902
)

var (
	// ErrProviderNotFound means no wallet provider is available. Actionable
	// by the user (install a wallet), never retried automatically.
	ErrProviderNotFound = errors.New("wallet provider not found")

	// ErrUserRejected means the user declined a provider prompt. This is
	// informational, not an error state.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrWrongNetwork means the wallet is connected on an unsupported chain.
	ErrWrongNetwork = errors.New("connected to the wrong network")

	// ErrNotDisconnected guards Connect: it is only valid from disconnected.
	ErrNotDisconnected = errors.New("session is not in the disconnected state")

	// ErrNoAccounts means the provider returned zero accounts.
	ErrNoAccounts = errors.New("provider returned no accounts")

	// ErrChainNotSupported means a chain id has no registry entry.
	ErrChainNotSupported = errors.New("chain not supported")

	// ErrQuoteUnavailable means a swap quote could not be computed because a
	// leg has no known price.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrSwapInFlight means a swap is already executing.
	ErrSwapInFlight = errors.New("swap already in flight")
)

// RPCError is a JSON-RPC error object, either from a response envelope or a
// provider request.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsUserRejected reports whether err is the provider's explicit user
// rejection (code 4001).
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == CodeUserRejected
	}
	return errors.Is(err, ErrUserRejected)
}

// IsChainNotConfigured reports whether err is the provider saying the switch
// target chain is unknown to it (code 4902), remediated by an add-chain call.
func IsChainNotConfigured(err error) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == CodeChainNotConfigured
	}
	return false
}

// InvalidNumericFormatError reports malformed numeric input to the codec.
type InvalidNumericFormatError struct {
	Input string
}

func (e *InvalidNumericFormatError) Error() string {
	return fmt.Sprintf("invalid numeric format: %q", e.Input)
}
