package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/bookstore-backend/api/routes"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/internal/discounts"
	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/internal/orders"
	"github.com/angelmondragon/bookstore-backend/internal/profiles"
	"github.com/angelmondragon/bookstore-backend/internal/wishlist"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/migrate"
	"github.com/angelmondragon/bookstore-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := buildServices(cfg, logg, dbClient, redisClient, metrics.NewFulfillmentMetrics(registry))
	if err != nil {
		logg.Error(context.Background(), "failed to create services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			RateLimiter: redisClient,
			Gatherer:    registry,
		}, *services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, fulfillmentMetrics *metrics.FulfillmentMetrics) (*routes.Services, error) {
	conn := dbClient.DB()
	taxRate, err := cfg.Cart.TaxRate()
	if err != nil {
		return nil, err
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repository:    catalog.NewRepository(conn),
		Cache:         redisClient,
		Logger:        logg,
		DetailTTL:     cfg.Catalog.DetailCacheTTL,
		RelatedWindow: cfg.Catalog.RelatedPriceWindow,
		RelatedLimit:  cfg.Catalog.RelatedLimit,
	})
	if err != nil {
		return nil, err
	}

	discountService, err := discounts.NewService(discounts.NewRepository(conn), nil)
	if err != nil {
		return nil, err
	}

	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cart.ServiceParams{
		Repository: cartRepo,
		Discounts:  discountService,
		TaxRate:    taxRate,
		MaxLineQty: cfg.Cart.MaxLineQty,
	})
	if err != nil {
		return nil, err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(conn),
	})
	if err != nil {
		return nil, err
	}

	fulfillmentService, err := fulfillment.NewService(fulfillment.ServiceParams{
		Repository: fulfillment.NewRepository(conn),
		Tx:         dbClient,
		Logger:     logg,
		Metrics:    fulfillmentMetrics,
	})
	if err != nil {
		return nil, err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository:   orders.NewRepository(conn),
		CartRepo:     cartRepo,
		Discounts:    discountService,
		Fulfillments: fulfillmentService,
		Catalog:      catalogService,
		Tx:           dbClient,
		Logger:       logg,
		TaxRate:      taxRate,
	})
	if err != nil {
		return nil, err
	}

	profileService, err := profiles.NewService(profiles.NewRepository(conn), logg)
	if err != nil {
		return nil, err
	}

	return &routes.Services{
		Catalog:     catalogService,
		Cart:        cartService,
		Discounts:   discountService,
		Wishlist:    wishlistService,
		Orders:      ordersService,
		Fulfillment: fulfillmentService,
		Profiles:    profileService,
	}, nil
}
