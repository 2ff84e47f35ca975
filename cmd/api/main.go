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
	"go.uber.org/multierr"

	"github.com/angelmondragon/foodcart-backend/api/routes"
	"github.com/angelmondragon/foodcart-backend/internal/addresses"
	"github.com/angelmondragon/foodcart-backend/internal/cart"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/internal/orders"
	"github.com/angelmondragon/foodcart-backend/internal/promotions"
	"github.com/angelmondragon/foodcart-backend/internal/restaurants"
	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/angelmondragon/foodcart-backend/pkg/db"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/angelmondragon/foodcart-backend/pkg/migrate"
	"github.com/angelmondragon/foodcart-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, redisClient, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:       dbClient,
			Redis:    redisClient,
			Gatherer: registry,
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx, server, dbClient, redisClient); err != nil {
		logg.Error(ctx, "unclean shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, m *metrics.CheckoutMetrics) (routes.Services, error) {
	gormDB := dbClient.DB()

	snapshots, err := cart.NewSnapshotStore(redisClient, cfg.Cart.SnapshotTTL)
	if err != nil {
		return routes.Services{}, err
	}

	coupons, err := promotions.NewValidator(promotions.NewRepository(gormDB), m, time.Now)
	if err != nil {
		return routes.Services{}, err
	}

	cartSvc, err := cart.NewService(snapshots, restaurants.NewRepository(gormDB), coupons, m, logg)
	if err != nil {
		return routes.Services{}, err
	}

	addressSvc, err := addresses.NewService(addresses.NewRepository(gormDB), dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	loader, err := checkout.NewLoader(snapshots, addressSvc, m, logg)
	if err != nil {
		return routes.Services{}, err
	}

	orderSvc, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(gormDB),
		Tx:        dbClient,
		Loader:    loader,
		Addresses: addressSvc,
		Snapshots: snapshots,
		Metrics:   m,
		Logger:    logg,
		Now:       time.Now,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Cart:      cartSvc,
		Coupons:   coupons,
		Checkout:  loader,
		Addresses: addressSvc,
		Orders:    orderSvc,
	}, nil
}

// shutdown drains HTTP first, then closes the stores; every failure is reported.
func shutdown(ctx context.Context, server *http.Server, dbClient *db.Client, redisClient *redis.Client) error {
	err := server.Shutdown(ctx)
	err = multierr.Append(err, dbClient.Close())
	err = multierr.Append(err, redisClient.Close())
	return err
}
