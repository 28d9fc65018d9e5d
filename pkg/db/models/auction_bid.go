package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// AuctionBid is an immutable bid row; only its status flips when another
// bidder takes the winning slot. For any auction with bid_count > 0 exactly
// one row holds status 'winning' and its amount equals the auction's
// current_bid_cents.
type AuctionBid struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID   uuid.UUID       `gorm:"column:auction_id;type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	AmountCents int64           `gorm:"column:amount_cents;not null"`
	Status      enums.BidStatus `gorm:"column:status;type:bid_status;not null;default:'active'"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (AuctionBid) TableName() string {
	return "auction_bids"
}
