package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"

	"indoswap/internal/domain/entity"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      uint64           `json:"id"`
	Result  json.RawMessage  `json:"result"`
	Error   *entity.RPCError `json:"error"`
}

// Do sends a single JSON-RPC 2.0 request over HTTPS and returns the raw
// result. A response carrying an error object fails with *entity.RPCError.
func Do(ctx context.Context, hc *fasthttp.Client, url string, timeout time.Duration, id uint64, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body, err := jsonCodec.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rpc request %s: %w", method, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = hc.DoDeadline(req, resp, deadline)
	} else {
		err = hc.DoTimeout(req, resp, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("rpc transport to %s failed: %w", url, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("rpc endpoint %s returned status %d", url, resp.StatusCode())
	}

	var envelope rpcResponse
	if err := jsonCodec.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rpc response from %s: %w", url, err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return envelope.Result, nil
}
