package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// VendorPayout is a withdrawal of available balance to an external payment
// method. TransactionID holds the provider reference (Stripe transfer id or
// PayPal payout batch id) used to correlate webhook deliveries.
type VendorPayout struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`

	AmountCents int64              `gorm:"column:amount_cents;not null"`
	Method      enums.PayoutMethod `gorm:"column:method;type:payout_method;not null"`
	Status      enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`

	TransactionID *string `gorm:"column:transaction_id;index"`
	Destination   *string `gorm:"column:destination"`
	FailureReason *string `gorm:"column:failure_reason"`

	RequestedByUserID uuid.UUID  `gorm:"column:requested_by_user_id;type:uuid;not null"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (VendorPayout) TableName() string {
	return "vendor_payouts"
}
