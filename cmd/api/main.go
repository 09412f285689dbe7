package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/denr-penro-mrq/permittree-backend/api/routes"
	"github.com/denr-penro-mrq/permittree-backend/internal/notifications"
	"github.com/denr-penro-mrq/permittree-backend/internal/oop"
	"github.com/denr-penro-mrq/permittree-backend/internal/permits"
	"github.com/denr-penro-mrq/permittree-backend/pkg/config"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
	"github.com/denr-penro-mrq/permittree-backend/pkg/metrics"
	"github.com/denr-penro-mrq/permittree-backend/pkg/migrate"
	"github.com/denr-penro-mrq/permittree-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	emitter := notifications.NewEmitter(notificationsRepo, logg)

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	oopRepo := oop.NewRepository(dbClient.DB())
	oopService, err := oop.NewService(oopRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create oop service", err)
		os.Exit(1)
	}

	lifecycleMetrics := metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer)

	permitsService, err := permits.NewService(
		permits.NewRepository(dbClient.DB()),
		oopRepo,
		dbClient,
		emitter,
		lifecycleMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create permits service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, permitsService, oopService, notificationsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
