package restapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"indoswap/internal/app/service"
	"indoswap/internal/domain/entity"
	"indoswap/internal/pkg/format"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	session   *service.WalletSessionImpl
	portfolio *service.PortfolioServiceImpl
	prices    *service.PriceServiceImpl
	swaps     *service.SwapServiceImpl

	staleThreshold time.Duration
}

func NewHandler(
	session *service.WalletSessionImpl,
	portfolio *service.PortfolioServiceImpl,
	prices *service.PriceServiceImpl,
	swaps *service.SwapServiceImpl,
	staleThreshold time.Duration,
) *Handler {
	return &Handler{
		session:        session,
		portfolio:      portfolio,
		prices:         prices,
		swaps:          swaps,
		staleThreshold: staleThreshold,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var rpcErr *entity.RPCError
	resp := errorResponse{Error: err.Error()}
	if errors.As(err, &rpcErr) {
		resp.Code = rpcErr.Code
	}

	switch {
	case errors.Is(err, entity.ErrProviderNotFound):
		c.JSON(http.StatusServiceUnavailable, resp)
	case errors.Is(err, entity.ErrUserRejected),
		errors.Is(err, entity.ErrNotDisconnected),
		errors.Is(err, entity.ErrSwapInFlight):
		c.JSON(http.StatusConflict, resp)
	case errors.Is(err, entity.ErrNoAccounts),
		errors.Is(err, entity.ErrChainNotSupported),
		errors.Is(err, entity.ErrQuoteUnavailable):
		c.JSON(http.StatusUnprocessableEntity, resp)
	default:
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// GetWallet returns the current wallet state.
func (h *Handler) GetWallet(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.State())
}

// ConnectWallet runs the wallet connection flow.
func (h *Handler) ConnectWallet(c *gin.Context) {
	state, err := h.session.Connect(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// DisconnectWallet resets the session.
func (h *Handler) DisconnectWallet(c *gin.Context) {
	state := h.session.Disconnect()
	h.portfolio.Reset()
	c.JSON(http.StatusOK, state)
}

// SwitchNetwork moves the wallet to the target chain.
func (h *Handler) SwitchNetwork(c *gin.Context) {
	state, err := h.session.SwitchNetwork(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// WalletOptions lists selectable wallets.
func (h *Handler) WalletOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"options": h.session.WalletOptions()})
}

// GetPortfolio returns the last published snapshot.
func (h *Handler) GetPortfolio(c *gin.Context) {
	snapshot, ok := h.portfolio.Snapshot()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"snapshot":   nil,
			"refreshing": h.portfolio.IsRefreshing(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   snapshot,
		"refreshing": h.portfolio.IsRefreshing(),
	})
}

// RefreshPortfolio fetches balances for the connected wallet and returns the
// fresh snapshot.
func (h *Handler) RefreshPortfolio(c *gin.Context) {
	state := h.session.State()
	if state.Status != entity.StatusConnected {
		c.JSON(http.StatusConflict, errorResponse{Error: "wallet not connected"})
		return
	}
	snapshot, err := h.portfolio.Refresh(c.Request.Context(), state.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

type priceView struct {
	entity.TokenPrice
	Display string `json:"display"`
	Change  string `json:"changeDisplay"`
}

// GetPrices lists every tracked quote with display strings.
func (h *Handler) GetPrices(c *gin.Context) {
	prices := h.prices.All()
	views := make([]priceView, 0, len(prices))
	for _, p := range prices {
		views = append(views, priceView{
			TokenPrice: p,
			Display:    format.Price(p.USD),
			Change:     format.Percent(p.Change24h),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"prices": views,
		"stale":  h.prices.IsStale(h.staleThreshold),
	})
}

// RefreshPrices forces a feed refresh.
func (h *Handler) RefreshPrices(c *gin.Context) {
	if err := h.prices.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": h.prices.All()})
}

type quoteRequest struct {
	From   string `json:"from" form:"from" binding:"required"`
	To     string `json:"to" form:"to" binding:"required"`
	Amount string `json:"amount" form:"amount"`
}

// Quote prices a prospective swap from query parameters.
func (h *Handler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	quote, err := h.swaps.Quote(req.From, req.To, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quote":   quote,
		"canSwap": h.swaps.CanSwap(&quote),
	})
}

// ExecuteSwap quotes and executes a swap in one call.
func (h *Handler) ExecuteSwap(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if h.session.State().Status != entity.StatusConnected {
		c.JSON(http.StatusConflict, errorResponse{Error: "wallet not connected"})
		return
	}
	quote, err := h.swaps.Quote(req.From, req.To, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.swaps.Execute(c.Request.Context(), &quote); err != nil {
		writeError(c, err)
		return
	}

	// Balances moved, refresh in the background.
	state := h.session.State()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, _ = h.portfolio.Refresh(ctx, state.Address)
	}()

	c.JSON(http.StatusOK, gin.H{"executed": quote})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"wallet":     string(h.session.State().Status),
		"pricesLive": !h.prices.IsStale(h.staleThreshold),
	})
}
