package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/internal/bids"
	"github.com/bindery-hq/bindery-backend/internal/catalog"
	"github.com/bindery-hq/bindery-backend/internal/endpolicy"
	"github.com/bindery-hq/bindery-backend/internal/resolver"
	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/db"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/metrics"
	"github.com/bindery-hq/bindery-backend/pkg/migrate"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/redis"
)

const lockKeyFormat = "bindery:resolver:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "resolver-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "resolver-worker"

	logg = logger.New(logger.Options{
		ServiceName: "resolver-worker",
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

	gormDB := dbClient.DB()
	auctionRepo := auctions.NewRepository(gormDB)
	bidRepo := bids.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	vendorRepo := vendors.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)
	outboxService := outbox.NewService(outboxRepo, logg)

	auctionResolver, err := auctions.NewResolver(auctions.ResolverParams{
		Repo: auctionRepo,
		Tx:   dbClient,
		Bids: func(tx *gorm.DB) auctions.BidSource {
			return bidRepo.WithTx(tx)
		},
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auction resolver", err)
		os.Exit(1)
	}

	policyExecutor, err := endpolicy.NewExecutor(endpolicy.ExecutorParams{
		Auctions: auctionRepo,
		Catalog:  catalogRepo,
		Vendors:  vendorRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create end-policy executor", err)
		os.Exit(1)
	}

	expiryJob, err := resolver.NewExpiryJob(resolver.ExpiryJobParams{
		Logger:    logg,
		Reader:    auctionRepo,
		Resolver:  auctionResolver,
		BatchSize: cfg.Resolver.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry job", err)
		os.Exit(1)
	}

	policyJob, err := resolver.NewPolicyJob(resolver.PolicyJobParams{
		Logger:    logg,
		Reader:    auctionRepo,
		Executor:  policyExecutor,
		BatchSize: cfg.Resolver.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create policy job", err)
		os.Exit(1)
	}

	retentionJob, err := resolver.NewOutboxRetentionJob(resolver.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := resolver.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Resolver.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create resolver lock", err)
		os.Exit(1)
	}

	service, err := resolver.NewService(resolver.ServiceParams{
		Logger:   logg,
		Registry: resolver.NewRegistry(expiryJob, policyJob, retentionJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Resolver.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create resolver service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting resolver worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "resolver worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "resolver worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
