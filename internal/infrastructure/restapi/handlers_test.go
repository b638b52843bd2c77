package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"indoswap/internal/app/port"
	"indoswap/internal/app/service"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
	"indoswap/internal/infrastructure/stream"
)

const testAccount = "0x1234567890abcdef1234567890abcdef12345678"

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

type stubProvider struct {
	chainID entity.ChainID
}

func (p *stubProvider) IsMetaMask() bool { return true }

func (p *stubProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case port.MethodRequestAccounts, port.MethodAccounts:
		return jsoniter.Marshal([]string{testAccount})
	case port.MethodChainID:
		return jsoniter.Marshal(p.chainID.Hex())
	case port.MethodSwitchChain:
		p.chainID = 56
		return jsoniter.Marshal(nil)
	}
	return jsoniter.Marshal(nil)
}

func (p *stubProvider) Subscribe(event string, handler func(json.RawMessage)) func() {
	return func() {}
}

type stubBalances struct{}

func (stubBalances) NativeBalance(ctx context.Context, address string, chainID entity.ChainID) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (stubBalances) Erc20Balance(ctx context.Context, address, contract string, chainID entity.ChainID) (*big.Int, error) {
	return big.NewInt(0), nil
}

type stubTickers struct{}

func (stubTickers) Tickers(ctx context.Context) (map[string]entity.MarketTicker, error) {
	return nil, errors.New("no upstream in tests")
}

func newTestRouter(t *testing.T, providerChain entity.ChainID) (http.Handler, *service.WalletSessionImpl) {
	t.Helper()
	registry := chainregistry.New()
	prices := service.NewPriceService(stubTickers{}, registry.TrackedSymbols(), time.Hour, time.Second, nopLogger{})
	session := service.NewWalletSession(&stubProvider{chainID: providerChain}, registry, stubBalances{}, 56, time.Second, nopLogger{})
	portfolio := service.NewPortfolioService(registry, stubBalances{}, prices, time.Second, 4, nopLogger{})
	swaps := service.NewSwapService(prices, time.Millisecond, nopLogger{})
	handler := NewHandler(session, portfolio, prices, swaps, 30*time.Second)
	return SetupRouter(handler, stream.NewHub(zap.NewNop()), zap.NewNop()), session
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestWalletLifecycleEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/wallet", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disconnected", body["status"])

	w, body = doJSON(t, router, http.MethodPost, "/api/v1/wallet/connect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", body["status"])
	assert.Equal(t, testAccount, body["address"])

	// Connecting twice conflicts.
	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/wallet/connect", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = doJSON(t, router, http.MethodPost, "/api/v1/wallet/disconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disconnected", body["status"])
}

func TestSwitchNetworkEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	w, body := doJSON(t, router, http.MethodPost, "/api/v1/wallet/connect", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "wrong-network", body["status"])

	w, body = doJSON(t, router, http.MethodPost, "/api/v1/wallet/switch-network", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", body["status"])
}

func TestWalletOptionsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/wallet/options", "")
	require.Equal(t, http.StatusOK, w.Code)
	options := body["options"].([]any)
	assert.Len(t, options, 3)
}

func TestQuoteEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/quote?from=BNB&to=USDT&amount=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	quote := body["quote"].(map[string]any)
	assert.Equal(t, "BNB", quote["fromSymbol"])
	assert.Equal(t, 0.25, quote["tradingFeePct"])

	// Unknown symbols are unprocessable.
	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/quote?from=DOGE&to=USDT&amount=2", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Missing fields fail binding.
	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/quote?from=BNB", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwapRequiresConnectedWallet(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/swap", `{"from":"BNB","to":"USDT","amount":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	_, _ = doJSON(t, router, http.MethodPost, "/api/v1/wallet/connect", "")
	w, body := doJSON(t, router, http.MethodPost, "/api/v1/swap", `{"from":"BNB","to":"USDT","amount":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["executed"])
}

func TestPortfolioEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	// No snapshot before the first refresh.
	w, body := doJSON(t, router, http.MethodGet, "/api/v1/portfolio", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["snapshot"])

	// Refresh requires a connected wallet.
	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/portfolio/refresh", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	_, _ = doJSON(t, router, http.MethodPost, "/api/v1/wallet/connect", "")
	w, body = doJSON(t, router, http.MethodPost, "/api/v1/portfolio/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := body["snapshot"].(map[string]any)
	assert.Equal(t, testAccount, snapshot["address"])
}

func TestPricesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/prices", "")
	require.Equal(t, http.StatusOK, w.Code)
	prices := body["prices"].([]any)
	assert.NotEmpty(t, prices)
	assert.Equal(t, false, body["stale"])
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 56)

	w, body := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
