package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/datasaz/cartengine-backend/api/routes"
	"github.com/datasaz/cartengine-backend/internal/cart"
	"github.com/datasaz/cartengine-backend/internal/coupon"
	"github.com/datasaz/cartengine-backend/internal/products"
	"github.com/datasaz/cartengine-backend/pkg/clock"
	"github.com/datasaz/cartengine-backend/pkg/config"
	"github.com/datasaz/cartengine-backend/pkg/db"
	"github.com/datasaz/cartengine-backend/pkg/logger"
	"github.com/datasaz/cartengine-backend/pkg/metrics"
	"github.com/datasaz/cartengine-backend/pkg/migrate"
	"github.com/datasaz/cartengine-backend/pkg/redis"
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

	couponMetrics := metrics.NewCouponMetrics(prometheus.DefaultRegisterer)

	productService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	couponRepo := coupon.NewRepository(dbClient.DB())

	var locker coupon.Locker
	if cfg.DB.UseSQLite {
		locker = coupon.NewMutexLocker(cfg.Cart.CouponLockWait)
	} else {
		rowLocker, err := coupon.NewRowLocker(couponRepo, cfg.Cart.CouponLockWait)
		if err != nil {
			logg.Error(context.Background(), "failed to create coupon locker", err)
			os.Exit(1)
		}
		locker = rowLocker
	}

	couponService, err := coupon.NewService(couponRepo, locker, clock.System{}, couponMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(
		cart.NewRepository(dbClient.DB()),
		dbClient,
		productService,
		couponService,
		logg,
		clock.System{},
		couponMetrics,
		cart.RetryPolicy{
			Attempts: cfg.Cart.SaveRetryAttempts,
			Backoff:  cfg.Cart.SaveRetryBackoff,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, cartService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
