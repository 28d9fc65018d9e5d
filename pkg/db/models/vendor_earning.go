package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// VendorEarning records one vendor's cut of one paid order line. Invariant:
// platform_fee_cents + net_amount_cents == amount_cents, to the cent.
type VendorEarning struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	OrderLineID *uuid.UUID `gorm:"column:order_line_id;type:uuid"`

	AmountCents       int64 `gorm:"column:amount_cents;not null"`
	CommissionRateBps int   `gorm:"column:commission_rate_bps;not null"`
	PlatformFeeCents  int64 `gorm:"column:platform_fee_cents;not null"`
	NetAmountCents    int64 `gorm:"column:net_amount_cents;not null"`

	TransactionType enums.TransactionType `gorm:"column:transaction_type;type:transaction_type;not null;default:'sale'"`
	Status          enums.EarningStatus   `gorm:"column:status;type:earning_status;not null;default:'pending'"`
	PaidOut         bool                  `gorm:"column:paid_out;not null;default:false"`
	PayoutID        *uuid.UUID            `gorm:"column:payout_id;type:uuid"`

	SettledAt *time.Time `gorm:"column:settled_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (VendorEarning) TableName() string {
	return "vendor_earnings"
}
