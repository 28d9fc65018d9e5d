package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bindery-hq/bindery-backend/api/responses"
	"github.com/bindery-hq/bindery-backend/internal/payouts"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

type paypalPayoutService interface {
	HandlePayPalEvent(ctx context.Context, input payouts.PayPalWebhookInput) error
}

type paypalVerifier interface {
	VerifyWebhook(ctx context.Context, req *http.Request) (bool, error)
}

type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		PayoutBatchID string `json:"payout_batch_id"`
		PayoutItem    struct {
			SenderBatchID string `json:"sender_batch_id"`
		} `json:"payout_item"`
		BatchHeader struct {
			PayoutBatchID string `json:"payout_batch_id"`
		} `json:"batch_header"`
	} `json:"resource"`
}

// PayPalWebhook receives payout item lifecycle events. The verifier is nil in
// environments without a registered webhook; unverified requests are accepted
// only when allowUnverified is set, which the router ties to non-production.
func PayPalWebhook(svc paypalPayoutService, verifier paypalVerifier, allowUnverified bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		if verifier == nil && !allowUnverified {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "paypal webhook verification not configured"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(payload))

		if verifier != nil {
			verified, err := verifier.VerifyWebhook(ctx, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify webhook"))
				return
			}
			if !verified {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook verification failed"))
				return
			}
		}

		var event paypalWebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}
		if event.ID == "" || event.EventType == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook event id and type required"))
			return
		}

		batchID := event.Resource.PayoutBatchID
		if batchID == "" {
			batchID = event.Resource.BatchHeader.PayoutBatchID
		}

		err = svc.HandlePayPalEvent(ctx, payouts.PayPalWebhookInput{
			EventID:       event.ID,
			EventType:     event.EventType,
			PayoutBatchID: batchID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
