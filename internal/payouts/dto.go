package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// WithdrawInput requests a transfer of available balance to the vendor's
// external payment method.
type WithdrawInput struct {
	VendorID    uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
	AmountCents int64
	Method      enums.PayoutMethod
}

// StripeWebhookInput carries the fields the payout engine needs from a
// verified Stripe event.
type StripeWebhookInput struct {
	EventID    string
	EventType  string
	TransferID string
}

// PayPalWebhookInput carries the fields the payout engine needs from a
// PayPal payouts-item webhook.
type PayPalWebhookInput struct {
	EventID       string
	EventType     string
	PayoutBatchID string
}

// PayoutView is the JSON shape returned for a single payout.
type PayoutView struct {
	ID            uuid.UUID          `json:"id"`
	VendorID      uuid.UUID          `json:"vendor_id"`
	AmountCents   int64              `json:"amount_cents"`
	Method        enums.PayoutMethod `json:"method"`
	Status        enums.PayoutStatus `json:"status"`
	TransactionID *string            `json:"transaction_id,omitempty"`
	FailureReason *string            `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// NewPayoutView maps a payout row to its response shape.
func NewPayoutView(payout models.VendorPayout) PayoutView {
	return PayoutView{
		ID:            payout.ID,
		VendorID:      payout.VendorID,
		AmountCents:   payout.AmountCents,
		Method:        payout.Method,
		Status:        payout.Status,
		TransactionID: payout.TransactionID,
		FailureReason: payout.FailureReason,
		CompletedAt:   payout.CompletedAt,
		CreatedAt:     payout.CreatedAt,
	}
}

// PayoutList wraps the paginated payouts plus the next page cursor.
type PayoutList struct {
	Payouts    []PayoutView `json:"payouts"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
