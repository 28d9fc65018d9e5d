package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bindery-hq/bindery-backend/api/controllers"
	webhookcontrollers "github.com/bindery-hq/bindery-backend/api/controllers/webhooks"
	"github.com/bindery-hq/bindery-backend/api/middleware"
	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/internal/bids"
	"github.com/bindery-hq/bindery-backend/internal/earnings"
	"github.com/bindery-hq/bindery-backend/internal/endpolicy"
	"github.com/bindery-hq/bindery-backend/internal/notifications"
	"github.com/bindery-hq/bindery-backend/internal/payouts"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/db"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/paypal"
	"github.com/bindery-hq/bindery-backend/pkg/redis"
	"github.com/bindery-hq/bindery-backend/pkg/stripe"
)

// RouterParams carry every dependency the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Auctions      auctions.Service
	Bids          bids.Service
	EndPolicy     *endpolicy.Executor
	Earnings      earnings.Service
	Payouts       payouts.Service
	Notifications notifications.Service

	StripeClient *stripe.Client
	PayPalClient *paypal.Client
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	// Provider callbacks authenticate with signatures, not bearer tokens.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(params.Payouts, params.StripeClient, logg))

		var verifier interface {
			VerifyWebhook(ctx context.Context, req *http.Request) (bool, error)
		}
		if params.PayPalClient != nil && params.PayPalClient.WebhookID() != "" {
			verifier = params.PayPalClient
		}
		// Production never accepts an unverified provider callback.
		r.Post("/paypal", webhookcontrollers.PayPalWebhook(params.Payouts, verifier, !cfg.App.IsProd(), logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(params.Redis, logg))

		r.Route("/auctions/{auctionId}", func(r chi.Router) {
			r.Get("/", controllers.AuctionDetail(params.Auctions, logg))
			r.Get("/bids", controllers.ListBids(params.Bids, logg))
			r.Post("/bids", controllers.PlaceBid(params.Bids, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.ActorRoleVendor), string(enums.ActorRoleAdmin)))
			r.Route("/auctions/{auctionId}", func(r chi.Router) {
				r.Patch("/end-policy", controllers.VendorUpdateEndPolicy(params.Auctions, logg))
				r.Post("/relist", controllers.VendorRelistAuction(params.EndPolicy, logg))
				r.Post("/convert-to-fixed", controllers.VendorConvertAuction(params.EndPolicy, logg))
				r.Post("/unlist", controllers.VendorUnlistAuction(params.EndPolicy, logg))
			})
			r.Get("/earnings", controllers.VendorEarnings(params.Earnings, logg))
			r.Get("/payouts", controllers.VendorPayouts(params.Payouts, logg))
			r.Post("/payouts", controllers.VendorRequestPayout(params.Payouts, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(params.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(params.Notifications, logg))
		})
	})

	return r
}
