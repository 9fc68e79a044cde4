package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "lendledger/internal/adapter/http"
	"lendledger/internal/adapter/middleware"
	"lendledger/internal/app"
	"lendledger/internal/config"
	"lendledger/internal/infrastructure/cache"
	"lendledger/internal/infrastructure/db"
	"lendledger/internal/infrastructure/logging"
	"lendledger/internal/infrastructure/metrics"
	"lendledger/internal/infrastructure/tracing"
	"lendledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewLogger(cfg.App.LogLevel, cfg.App.ServiceName, cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.Endpoint, cfg.App.ServiceName, cfg.App.Env)
	if err != nil {
		logger.Error("tracing init failed", "err", err)
		os.Exit(1)
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}

	if cfg.Sweep.Enabled {
		go worker.NewSweepWorker(a.Collaterals, cfg.Sweep.Interval, cfg.Sweep.Batch, logger).Run(ctx)
	}

	e := newServer(a)

	go func() {
		addr := ":" + cfg.App.Port
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	if err := a.Close(); err != nil {
		logger.Error("close resources", "err", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", "err", err)
	}
}

func newServer(a *app.App) *echo.Echo {
	cfg := a.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Tracing())
	e.Use(middleware.Observe(a.Logger, a.Metrics))
	if cfg.Auth.JWTSecret != "" {
		public := append([]string{cfg.Metrics.Path}, httpadp.PublicRoutes...)
		e.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, public...))
	}
	if a.Redis != nil {
		e.Use(middleware.IdempotencyMiddleware(a.Redis, cfg.Idempotency.TTL, a.Logger))
	}

	health := httpadp.NewHandler().WithCheck("database", db.Check(a.DB))
	if a.Redis != nil {
		health.WithCheck("redis", cache.Check(a.Redis))
	}

	httpadp.Register(e, httpadp.Handlers{
		Health:       health,
		Users:        httpadp.NewUserHandler(a.Users),
		Accounts:     httpadp.NewAccountHandler(a.Accounts),
		Collaterals:  httpadp.NewCollateralHandler(a.Collaterals, cfg.Storage.MaxImageSize),
		Transactions: httpadp.NewTransactionHandler(a.Transactions),
	})
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(metrics.Handler(a.Registry)))
	}
	return e
}
