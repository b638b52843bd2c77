// Package priceclient fetches 24h market tickers from the Binance public
// data API, falling back across endpoints until one answers.
package priceclient

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"indoswap/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BinanceClient implements port.TickerSource against the Binance 24hr ticker
// endpoints. The first endpoint is the public data mirror; the main API is
// the fallback.
type BinanceClient struct {
	client    *fasthttp.Client
	endpoints []string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewBinanceClient creates a new ticker client over the given endpoints.
func NewBinanceClient(endpoints []string, timeout time.Duration, logger *zap.Logger) *BinanceClient {
	return &BinanceClient{
		client:    &fasthttp.Client{},
		endpoints: endpoints,
		timeout:   timeout,
		logger:    logger.Named("BinanceClient"),
	}
}

// Tickers fetches the full 24h ticker table, keyed by pair symbol. Each
// endpoint is tried in order; the call fails only when all do.
func (c *BinanceClient) Tickers(ctx context.Context) (map[string]entity.MarketTicker, error) {
	var lastErr error
	for _, endpoint := range c.endpoints {
		tickers, err := c.fetch(ctx, endpoint)
		if err != nil {
			c.logger.Warn("ticker endpoint failed, trying next",
				zap.String("endpoint", endpoint), zap.Error(err))
			lastErr = err
			continue
		}
		return tickers, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no ticker endpoints configured")
	}
	return nil, fmt.Errorf("all ticker endpoints failed: %w", lastErr)
}

func (c *BinanceClient) fetch(ctx context.Context, endpoint string) (map[string]entity.MarketTicker, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to %s: %w", endpoint, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("ticker request to %s failed with status %d", endpoint, resp.StatusCode())
	}

	var rows []entity.MarketTicker
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker response from %s: %w", endpoint, err)
	}

	tickers := make(map[string]entity.MarketTicker, len(rows))
	for _, row := range rows {
		tickers[row.Symbol] = row
	}
	c.logger.Debug("fetched tickers", zap.String("endpoint", endpoint), zap.Int("count", len(tickers)))
	return tickers, nil
}
