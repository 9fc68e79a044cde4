// Package app assembles the ledger from configuration. Both binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lendledger/internal/adapter/events"
	"lendledger/internal/adapter/repository/sqlstore"
	"lendledger/internal/adapter/storage"
	adpValuation "lendledger/internal/adapter/valuation"
	"lendledger/internal/config"
	domainEvents "lendledger/internal/domain/events"
	"lendledger/internal/infrastructure/cache"
	"lendledger/internal/infrastructure/db"
	"lendledger/internal/infrastructure/logging"
	"lendledger/internal/infrastructure/metrics"
	ucAccount "lendledger/internal/usecase/account"
	ucCollateral "lendledger/internal/usecase/collateral"
	ucTransaction "lendledger/internal/usecase/transaction"
	ucUser "lendledger/internal/usecase/user"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Users        *ucUser.Usecase
	Accounts     *ucAccount.Usecase
	Collaterals  *ucCollateral.Usecase
	Transactions *ucTransaction.Usecase

	closers []func() error
}

// Build opens every backing store and wires the usecases. Callers must Close.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DSN(), logging.GormLevel(cfg.App.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return BuildWithDB(ctx, cfg, logger, gdb)
}

// BuildWithDB is Build over an already opened database.
func BuildWithDB(ctx context.Context, cfg *config.Config, logger *slog.Logger, gdb *gorm.DB) (*App, error) {
	a := &App{Config: cfg, Logger: logger, DB: gdb}
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	if cfg.DB.AutoMigrate {
		if err := sqlstore.Migrate(gdb); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	rdb, err := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open redis: %w", err)
	}
	if rdb != nil {
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
	}

	gw, err := adpValuation.New(ctx, cfg.Valuation)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("valuation gateway: %w", err)
	}

	images, err := storage.NewLocalImageStore(cfg.Storage.ImageDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("image store: %w", err)
	}

	var pub domainEvents.Publisher = domainEvents.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.App.ServiceName, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		pub = kp
		a.closers = append(a.closers, kp.Close)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	w := sqlstore.NewGormUoW(gdb)
	repos := sqlstore.Repos(gdb)
	clock := func() time.Time { return time.Now().UTC() }

	a.Users = ucUser.NewUsecase(repos.Users)
	a.Accounts = ucAccount.NewUsecase(w, repos.Users, repos.Accounts,
		ucAccount.WithLogger(logger),
		ucAccount.WithClock(clock),
		ucAccount.WithCurrency(cfg.Ledger.Currency),
	)
	a.Collaterals = ucCollateral.NewUsecase(w, repos.Users, repos.Collaterals, gw,
		ucCollateral.WithPolicy(cfg.LoanPolicy()),
		ucCollateral.WithImageStore(images),
		ucCollateral.WithPublisher(pub),
		ucCollateral.WithMetrics(a.Metrics),
		ucCollateral.WithLogger(logger),
		ucCollateral.WithClock(clock),
	)
	a.Transactions = ucTransaction.NewUsecase(w, repos.Transactions,
		ucTransaction.WithPublisher(pub),
		ucTransaction.WithMetrics(a.Metrics),
		ucTransaction.WithLogger(logger),
		ucTransaction.WithClock(clock),
		ucTransaction.WithCurrency(cfg.Ledger.Currency),
		ucTransaction.WithFailureRecording(cfg.Ledger.RecordFailures),
		ucTransaction.WithTreasury(cfg.Ledger.TreasuryEnabled),
	)

	if cfg.Ledger.TreasuryEnabled {
		t, err := a.Accounts.ProvisionTreasury(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("provision treasury: %w", err)
		}
		logger.Info("treasury ready", "account_id", t.ID, "account_number", t.AccountNumber)
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
