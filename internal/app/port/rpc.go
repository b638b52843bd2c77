package port

import (
	"context"
	"math/big"

	"indoswap/internal/domain/entity"
)

// BalanceReader fetches raw base-unit balances from a chain. A failed read
// is local to that one (chain, token) item; callers degrade it to a zero
// contribution instead of failing the aggregate.
type BalanceReader interface {
	// NativeBalance fetches the native currency balance for an address.
	NativeBalance(ctx context.Context, address string, chainID entity.ChainID) (*big.Int, error)

	// Erc20Balance fetches an ERC-20 balance via balanceOf.
	Erc20Balance(ctx context.Context, address, tokenContract string, chainID entity.ChainID) (*big.Int, error)
}
