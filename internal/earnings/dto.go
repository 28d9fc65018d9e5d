package earnings

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// RecordSaleInput captures one paid order line for commission recording.
type RecordSaleInput struct {
	OrderID         uuid.UUID
	OrderLineID     *uuid.UUID
	VendorID        uuid.UUID
	AmountCents     int64
	TransactionType enums.TransactionType
}

// EarningView is the JSON shape returned for a single earning.
type EarningView struct {
	ID                uuid.UUID             `json:"id"`
	OrderID           uuid.UUID             `json:"order_id"`
	OrderLineID       *uuid.UUID            `json:"order_line_id,omitempty"`
	AmountCents       int64                 `json:"amount_cents"`
	CommissionRateBps int                   `json:"commission_rate_bps"`
	PlatformFeeCents  int64                 `json:"platform_fee_cents"`
	NetAmountCents    int64                 `json:"net_amount_cents"`
	TransactionType   enums.TransactionType `json:"transaction_type"`
	Status            enums.EarningStatus   `json:"status"`
	PaidOut           bool                  `json:"paid_out"`
	SettledAt         *time.Time            `json:"settled_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
}

// NewEarningView maps an earning row to its response shape.
func NewEarningView(earning models.VendorEarning) EarningView {
	return EarningView{
		ID:                earning.ID,
		OrderID:           earning.OrderID,
		OrderLineID:       earning.OrderLineID,
		AmountCents:       earning.AmountCents,
		CommissionRateBps: earning.CommissionRateBps,
		PlatformFeeCents:  earning.PlatformFeeCents,
		NetAmountCents:    earning.NetAmountCents,
		TransactionType:   earning.TransactionType,
		Status:            earning.Status,
		PaidOut:           earning.PaidOut,
		SettledAt:         earning.SettledAt,
		CreatedAt:         earning.CreatedAt,
	}
}

// EarningList wraps the paginated earnings plus the next page cursor.
type EarningList struct {
	Earnings   []EarningView `json:"earnings"`
	NextCursor string        `json:"next_cursor,omitempty"`
}
