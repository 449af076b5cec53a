package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/calebmonroe/printhaus-backend/api/routes"
	"github.com/calebmonroe/printhaus-backend/internal/cart"
	"github.com/calebmonroe/printhaus-backend/internal/catalog"
	"github.com/calebmonroe/printhaus-backend/internal/checkout"
	"github.com/calebmonroe/printhaus-backend/internal/inventory"
	"github.com/calebmonroe/printhaus-backend/internal/orders"
	paymentwebhook "github.com/calebmonroe/printhaus-backend/internal/webhooks/payment"
	"github.com/calebmonroe/printhaus-backend/pkg/cache"
	"github.com/calebmonroe/printhaus-backend/pkg/config"
	"github.com/calebmonroe/printhaus-backend/pkg/db"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/metrics"
	"github.com/calebmonroe/printhaus-backend/pkg/migrate"
	"github.com/calebmonroe/printhaus-backend/pkg/payments"
	"github.com/calebmonroe/printhaus-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	cacheMetrics := metrics.NewCacheMetrics(registry)
	rateLimitMetrics := metrics.NewRateLimitMetrics(registry)

	cacheClient, err := cache.New(redisClient, logg, cacheMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cache", err)
		os.Exit(1)
	}

	paymentsClient, err := payments.NewClient(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments client", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	eventRepo := orders.NewPaymentEventRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	stockLedger := inventory.NewLedger(dbClient.DB())

	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartRepo,
		orderRepo,
		stockLedger,
		catalogRepo,
		catalogRepo,
		paymentsClient,
		dbClient,
		cfg.Payments.Currency,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, cacheClient, cfg.Cache)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	webhookService, err := paymentwebhook.NewService(
		orderRepo,
		eventRepo,
		stockLedger,
		cacheClient,
		redisClient,
		dbClient,
		cfg.Payments.EventTTL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			cartService,
			checkoutService,
			catalogService,
			webhookService,
			rateLimitMetrics,
			registry,
		),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	}
}
