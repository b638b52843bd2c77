package client

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
	"indoswap/internal/pkg/metrics"
	"indoswap/internal/pkg/numeric"
)

// balanceOfSelector is the 4-byte selector of balanceOf(address).
var balanceOfSelector = hexutil.MustDecode("0x70a08231")

// EVMClient issues raw JSON-RPC calls against EVM chains. Calls for the
// wallet's currently selected chain are routed through the wallet provider;
// every other chain goes to its configured public endpoint.
type EVMClient struct {
	registry  *chainregistry.Registry
	http      *fasthttp.Client
	providers port.ProviderSource
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *zap.Logger
	idSeq     atomic.Uint64
}

// NewEVMClient creates a client over the given registry. rps bounds the
// request rate against the public endpoints.
func NewEVMClient(registry *chainregistry.Registry, timeout time.Duration, rps float64, logger *zap.Logger) *EVMClient {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &EVMClient{
		registry: registry,
		http:     &fasthttp.Client{},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		timeout:  timeout,
		logger:   logger.Named("EVMClient"),
	}
}

// SetProviderSource wires the wallet session in after construction; the
// session itself needs this client for balance reads.
func (c *EVMClient) SetProviderSource(src port.ProviderSource) {
	c.providers = src
}

// Call sends a single JSON-RPC request for a chain and returns the raw
// result. Failures carry *entity.RPCError when the response held an error
// object.
func (c *EVMClient) Call(ctx context.Context, chainID entity.ChainID, method string, params ...any) (res []byte, err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RPCRequests.WithLabelValues(chainID.String(), method, status).Inc()
	}()

	if c.providers != nil {
		if provider, current, ok := c.providers.CurrentProvider(); ok && current == chainID {
			raw, perr := provider.Request(ctx, method, params...)
			return raw, perr
		}
	}

	net, ok := c.registry.Network(chainID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", entity.ErrChainNotSupported, chainID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := Do(ctx, c.http, net.RPCURL, c.timeout, c.idSeq.Add(1), method, params)
	if err != nil {
		c.logger.Warn("rpc call failed",
			zap.String("chain", chainID.String()),
			zap.String("method", method),
			zap.Error(err))
		return nil, err
	}
	return raw, nil
}

// NativeBalance fetches the native currency balance in base units.
func (c *EVMClient) NativeBalance(ctx context.Context, address string, chainID entity.ChainID) (*big.Int, error) {
	raw, err := c.Call(ctx, chainID, port.MethodGetBalance, address, "latest")
	if err != nil {
		return nil, err
	}
	return decodeQuantity(raw)
}

// Erc20Balance fetches an ERC-20 balance via eth_call with balanceOf
// calldata: the selector followed by the holder address left-padded to 32
// bytes.
func (c *EVMClient) Erc20Balance(ctx context.Context, address, tokenContract string, chainID entity.ChainID) (*big.Int, error) {
	callData := make([]byte, 0, 36)
	callData = append(callData, balanceOfSelector...)
	callData = append(callData, common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)...)

	args := map[string]string{
		"to":   tokenContract,
		"data": hexutil.Encode(callData),
	}
	raw, err := c.Call(ctx, chainID, port.MethodCall, args, "latest")
	if err != nil {
		return nil, err
	}
	return decodeQuantity(raw)
}

// decodeQuantity unwraps a JSON string result and parses the hex quantity.
// An empty "0x" result (token with no state for the holder) decodes to zero.
func decodeQuantity(raw []byte) (*big.Int, error) {
	var hexStr string
	if err := jsonCodec.Unmarshal(raw, &hexStr); err != nil {
		return nil, fmt.Errorf("unexpected rpc result %s: %w", string(raw), err)
	}
	return numeric.ParseBaseUnits(hexStr)
}
