package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// Auction is the mutable record for a single auction run. Status only moves
// forward (upcoming -> active -> terminal, or -> cancelled); a relist creates a
// new row chained through ParentAuctionID rather than resurrecting this one.
type Auction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionableKind enums.AuctionableKind `gorm:"column:auctionable_kind;type:auctionable_kind;not null"`
	AuctionableID   uuid.UUID             `gorm:"column:auctionable_id;type:uuid;not null"`
	VendorID        uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null"`
	Currency        enums.Currency        `gorm:"column:currency;type:text;not null;default:'USD'"`

	StartingPriceCents int64  `gorm:"column:starting_price_cents;not null"`
	CurrentBidCents    *int64 `gorm:"column:current_bid_cents"`
	ReservePriceCents  *int64 `gorm:"column:reserve_price_cents"`
	BidCount           int    `gorm:"column:bid_count;not null;default:0"`

	StartsAt time.Time           `gorm:"column:starts_at;not null"`
	EndsAt   time.Time           `gorm:"column:ends_at;not null"`
	Status   enums.AuctionStatus `gorm:"column:status;type:auction_status;not null;default:'upcoming'"`

	WinnerID     *uuid.UUID `gorm:"column:winner_id;type:uuid"`
	WinningBidID *uuid.UUID `gorm:"column:winning_bid_id;type:uuid"`
	EndedAt      *time.Time `gorm:"column:ended_at"`

	PaymentWindowHours int        `gorm:"column:payment_window_hours;not null;default:48"`
	PaymentDeadline    *time.Time `gorm:"column:payment_deadline"`

	RelistCount     int        `gorm:"column:relist_count;not null;default:0"`
	ParentAuctionID *uuid.UUID `gorm:"column:parent_auction_id;type:uuid"`

	OnNoSale           enums.NoSaleAction       `gorm:"column:on_no_sale;type:no_sale_action;not null;default:'none'"`
	RelistDelayHours   int                      `gorm:"column:relist_delay_hours;not null;default:0"`
	RelistMaxCount     int                      `gorm:"column:relist_max_count;not null;default:0"`
	ConvertPriceSource enums.ConvertPriceSource `gorm:"column:convert_price_source;type:convert_price_source;not null;default:'highest_bid'"`
	ConvertMarkupBps   int                      `gorm:"column:convert_markup_bps;not null;default:0"`

	// PolicyRunAfter defers the automatic end-policy execution when
	// relist_delay_hours is configured. Nil means no pending automatic action.
	PolicyRunAfter *time.Time `gorm:"column:policy_run_after"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Auction) TableName() string {
	return "auctions"
}
