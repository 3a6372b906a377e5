package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sliceline/pizzeria-backend/api/routes"
	"github.com/sliceline/pizzeria-backend/internal/address"
	"github.com/sliceline/pizzeria-backend/internal/auth"
	"github.com/sliceline/pizzeria-backend/internal/cart"
	"github.com/sliceline/pizzeria-backend/internal/catalog"
	"github.com/sliceline/pizzeria-backend/internal/orders"
	"github.com/sliceline/pizzeria-backend/internal/support"
	"github.com/sliceline/pizzeria-backend/internal/users"
	"github.com/sliceline/pizzeria-backend/pkg/auth/session"
	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db"
	"github.com/sliceline/pizzeria-backend/pkg/logger"
	"github.com/sliceline/pizzeria-backend/pkg/metrics"
	"github.com/sliceline/pizzeria-backend/pkg/migrate"
	"github.com/sliceline/pizzeria-backend/pkg/redis"
)

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	discountRules, err := cart.ParseRules(cfg.Discounts.Codes)
	if err != nil {
		logg.Error(context.Background(), "failed to parse discount codes", err)
		os.Exit(1)
	}
	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, catalogRepo, dbClient, cfg.Pricing, discountRules)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	addressRepo := address.NewRepository(dbClient.DB())
	addressService, err := address.NewService(addressRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), cartRepo, addressRepo, dbClient, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(
		users.NewRepository(dbClient.DB()),
		dbClient,
		redisClient,
		sessionManager,
		auth.NewLogSender(logg),
		cfg.JWT,
		cfg.OTP,
		cfg.Password,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	supportService, err := support.NewService(support.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create support service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

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
			sessionManager,
			httpMetrics,
			authService,
			catalogService,
			cartService,
			ordersService,
			addressService,
			supportService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
