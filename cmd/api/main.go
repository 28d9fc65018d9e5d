package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/bindery-hq/bindery-backend/api/routes"
	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/internal/bids"
	"github.com/bindery-hq/bindery-backend/internal/catalog"
	"github.com/bindery-hq/bindery-backend/internal/earnings"
	"github.com/bindery-hq/bindery-backend/internal/endpolicy"
	"github.com/bindery-hq/bindery-backend/internal/notifications"
	"github.com/bindery-hq/bindery-backend/internal/payouts"
	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/db"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/migrate"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/paypal"
	"github.com/bindery-hq/bindery-backend/pkg/redis"
	"github.com/bindery-hq/bindery-backend/pkg/stripe"
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var paypalClient *paypal.Client
	if cfg.PayPal.Configured() {
		if cfg.App.IsProd() && cfg.PayPal.WebhookID == "" {
			logg.Error(context.Background(), "paypal webhook id required in production", nil)
			os.Exit(1)
		}
		paypalClient, err = paypal.NewClient(context.Background(), cfg.PayPal, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap paypal", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "paypal credentials missing, paypal payouts disabled")
	}

	gormDB := dbClient.DB()
	auctionRepo := auctions.NewRepository(gormDB)
	bidRepo := bids.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	vendorRepo := vendors.NewRepository(gormDB)
	earningRepo := earnings.NewRepository(gormDB)
	payoutRepo := payouts.NewRepository(gormDB)
	webhookLedger := payouts.NewWebhookLedger(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	auctionService, err := auctions.NewService(auctionRepo, vendorRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create auctions service", err)
		os.Exit(1)
	}

	bidService, err := bids.NewService(bidRepo, auctionRepo, dbClient, outboxService, cfg.Auctions)
	if err != nil {
		logg.Error(context.Background(), "failed to create bids service", err)
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

	earningService, err := earnings.NewService(earningRepo, vendorRepo, dbClient, outboxService, cfg.Earnings, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:     payoutRepo,
		Earnings: earningRepo,
		Vendors:  vendorRepo,
		Webhooks: webhookLedger,
		Tx:       dbClient,
		Outbox:   outboxService,
		Stripe:   stripeClient,
		PayPal:   paypalClient,
		Config:   cfg.Payouts,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
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
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Auctions:      auctionService,
			Bids:          bidService,
			EndPolicy:     policyExecutor,
			Earnings:      earningService,
			Payouts:       payoutService,
			Notifications: notificationService,
			StripeClient:  stripeClient,
			PayPalClient:  paypalClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
