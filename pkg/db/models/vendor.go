package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor carries the seller profile fields the settlement engine owns: the
// three balance buckets, lifetime counters and payout destinations. Profile
// CRUD lives elsewhere. The eventual invariant: the sum of non-failed earning
// net amounts equals pending + available + paid minus any amount tied up in a
// pending or processing payout.
type Vendor struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	DisplayName string    `gorm:"column:display_name;type:text;not null"`

	CommissionRateBps *int `gorm:"column:commission_rate_bps"`

	BalancePendingCents   int64 `gorm:"column:balance_pending_cents;not null;default:0"`
	BalanceAvailableCents int64 `gorm:"column:balance_available_cents;not null;default:0"`
	BalancePaidCents      int64 `gorm:"column:balance_paid_cents;not null;default:0"`

	LifetimeSalesCents int64 `gorm:"column:lifetime_sales_cents;not null;default:0"`
	LifetimeSalesCount int   `gorm:"column:lifetime_sales_count;not null;default:0"`

	StripeAccountID *string `gorm:"column:stripe_account_id"`
	PayPalEmail     *string `gorm:"column:paypal_email"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Vendor) TableName() string {
	return "vendors"
}
