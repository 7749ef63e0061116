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

	"github.com/angelmondragon/cafepos/api/routes"
	"github.com/angelmondragon/cafepos/internal/auth"
	"github.com/angelmondragon/cafepos/internal/payments"
	"github.com/angelmondragon/cafepos/internal/products"
	"github.com/angelmondragon/cafepos/internal/sales"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/db"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/metrics"
	"github.com/angelmondragon/cafepos/pkg/migrate"
	"github.com/angelmondragon/cafepos/pkg/redis"
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
		Level:       logger.ParseLevel(cfg.Log.Level),
		WarnStack:   cfg.Log.WarnStack,
		Format:      cfg.Log.Format,
		NoColor:     cfg.Log.NoColor,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := connectRedis(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := buildServices(cfg, logg, dbClient, redisClient, metrics.NewSalesMetrics(registry))
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"redis": redisClient != nil,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:          dbClient,
			Redis:       redisClient,
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
		}, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	if shutdownErr != nil {
		logg.Error(shutdownCtx, "error during shutdown", shutdownErr)
		exitCode = 1
	}
	os.Exit(exitCode)
}

// connectRedis returns nil without error when the sqlite profile runs without redis.
func connectRedis(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		logg.Warn(ctx, "redis not configured; idempotency replay and login throttling are disabled")
		return nil, nil
	}
	return redis.New(ctx, cfg.Redis, logg)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, salesMetrics *metrics.SalesMetrics) (routes.Services, error) {
	conn := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		CashierRepo: auth.NewRepository(conn),
		JWTConfig:   cfg.JWT,
		PINConfig:   cfg.PIN,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productRepo := products.NewRepository(conn)
	productService, err := products.NewService(productRepo)
	if err != nil {
		return routes.Services{}, err
	}

	numbers := sales.NewDailyNumberGenerator(nil, cfg.Sales.SaleNumberPrefix, logg)
	if redisClient != nil {
		numbers = sales.NewDailyNumberGenerator(redisClient, cfg.Sales.SaleNumberPrefix, logg)
	}

	salesRepo := sales.NewRepository(conn)
	salesService, err := sales.NewService(sales.ServiceParams{
		Repo:     salesRepo,
		Tx:       dbClient,
		Products: productRepo,
		Numbers:  numbers,
		Config:   cfg.Sales,
		Metrics:  salesMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(conn),
		Sales:   salesRepo,
		Tx:      dbClient,
		Metrics: salesMetrics,
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:     authService,
		Sales:    salesService,
		Payments: paymentService,
		Products: productService,
	}, nil
}
