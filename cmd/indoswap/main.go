package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"indoswap/internal/app/service"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
	"indoswap/internal/infrastructure/configloader"
	netclient "indoswap/internal/infrastructure/network/client"
	"indoswap/internal/infrastructure/priceclient"
	"indoswap/internal/infrastructure/provider"
	"indoswap/internal/infrastructure/restapi"
	"indoswap/internal/infrastructure/stream"
	"indoswap/internal/pkg/logger"
	"indoswap/internal/pkg/metrics"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()

	// Route the package-level slog logger through zap so everything ends up
	// in one stream.
	logger.SetHandler(zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{}))
	svcLogger := logger.NewSlogAdapter()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegister()

	registry := chainregistry.New()
	targetChain := entity.ChainID(cfg.Wallet.TargetChainID)
	if !registry.IsSupported(targetChain) {
		zapLogger.Fatal("Target chain is not supported", zap.Uint64("chain_id", cfg.Wallet.TargetChainID))
	}

	evmClient := netclient.NewEVMClient(
		registry,
		time.Duration(cfg.RPC.RequestTimeoutMillis)*time.Millisecond,
		cfg.RPC.RateLimitPerSecond,
		zapLogger,
	)

	binanceClient := priceclient.NewBinanceClient(
		cfg.Prices.Endpoints,
		time.Duration(cfg.Prices.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	priceService := service.NewPriceService(
		binanceClient,
		registry.TrackedSymbols(),
		time.Duration(cfg.Prices.RefreshIntervalMillis)*time.Millisecond,
		time.Duration(cfg.Prices.RequestTimeoutMillis)*time.Millisecond,
		svcLogger,
	)

	knownChains := make([]entity.ChainID, 0, len(cfg.Wallet.ProviderChains))
	for _, id := range cfg.Wallet.ProviderChains {
		knownChains = append(knownChains, entity.ChainID(id))
	}
	walletProvider := provider.NewHeadless(
		registry,
		cfg.Wallet.AccountAddress,
		entity.ChainID(cfg.Wallet.InitialChainID),
		knownChains,
		time.Duration(cfg.RPC.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	session := service.NewWalletSession(
		walletProvider,
		registry,
		evmClient,
		targetChain,
		time.Duration(cfg.Portfolio.FetchTimeoutMillis)*time.Millisecond,
		svcLogger,
	)
	defer session.Close()
	evmClient.SetProviderSource(session)

	portfolioService := service.NewPortfolioService(
		registry,
		evmClient,
		priceService,
		time.Duration(cfg.Portfolio.FetchTimeoutMillis)*time.Millisecond,
		cfg.Portfolio.MaxConcurrentFetches,
		svcLogger,
	)

	swapService := service.NewSwapService(
		priceService,
		time.Duration(cfg.Swap.ExecutionLatencyMillis)*time.Millisecond,
		svcLogger,
	)

	hub := stream.NewHub(zapLogger)

	// Cross-service hooks: stream every state change, refresh the portfolio
	// whenever the session lands on the target chain, mirror fresh native
	// balances into the wallet state.
	session.SetOnStateChange(func(state entity.WalletState) {
		hub.Publish("wallet", state)
	})
	session.SetOnConnected(func(address string) {
		if snapshot, ok := portfolioService.Snapshot(); ok && snapshot.Address != address {
			portfolioService.Reset()
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_, _ = portfolioService.Refresh(ctx, address)
		}()
	})
	portfolioService.SetOnSnapshot(func(snapshot entity.PortfolioSnapshot) {
		hub.Publish("portfolio", snapshot)
	})
	portfolioService.SetOnNativeBalance(session.SetNativeBalance)
	priceService.SetOnUpdate(func(prices []entity.TokenPrice) {
		hub.Publish("prices", prices)
	})

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	priceService.Start(rootCtx)
	defer priceService.Stop()

	staleThreshold := time.Duration(cfg.Prices.StaleThresholdMillis) * time.Millisecond
	handler := restapi.NewHandler(session, portfolioService, priceService, swapService, staleThreshold)
	router := restapi.SetupRouter(handler, hub, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	cancelRoot()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
