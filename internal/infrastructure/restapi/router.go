package restapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"indoswap/internal/infrastructure/stream"
)

// SetupRouter wires the HTTP surface: the JSON API under /api/v1, the state
// stream under /ws and the Prometheus scrape endpoint.
func SetupRouter(handler *Handler, hub *stream.Hub, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	v1 := router.Group("/api/v1")
	{
		wallet := v1.Group("/wallet")
		{
			wallet.GET("", handler.GetWallet)
			wallet.GET("/options", handler.WalletOptions)
			wallet.POST("/connect", handler.ConnectWallet)
			wallet.POST("/disconnect", handler.DisconnectWallet)
			wallet.POST("/switch-network", handler.SwitchNetwork)
		}

		v1.GET("/portfolio", handler.GetPortfolio)
		v1.POST("/portfolio/refresh", handler.RefreshPortfolio)

		v1.GET("/prices", handler.GetPrices)
		v1.POST("/prices/refresh", handler.RefreshPrices)

		v1.GET("/quote", handler.Quote)
		v1.POST("/swap", handler.ExecuteSwap)
	}

	router.GET("/ws", hub.Handle)
	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// requestLogger logs each request with its latency and status.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
