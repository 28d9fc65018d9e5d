package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// BidPlacedEvent is emitted after a bid commits to the ledger.
type BidPlacedEvent struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	BidID       uuid.UUID `json:"bid_id"`
	BidderID    uuid.UUID `json:"bidder_id"`
	AmountCents int64     `json:"amount_cents"`
	BidCount    int       `json:"bid_count"`
}

// BidderOutbidEvent tells the previous leader they no longer hold the high bid.
type BidderOutbidEvent struct {
	AuctionID      uuid.UUID `json:"auction_id"`
	OutbidBidID    uuid.UUID `json:"outbid_bid_id"`
	OutbidUserID   uuid.UUID `json:"outbid_user_id"`
	NewAmountCents int64     `json:"new_amount_cents"`
}

// AuctionEndedEvent is emitted once per auction when the resolver finalizes it.
type AuctionEndedEvent struct {
	AuctionID       uuid.UUID           `json:"auction_id"`
	Status          enums.AuctionStatus `json:"status"`
	WinnerID        *uuid.UUID          `json:"winner_id,omitempty"`
	FinalPriceCents *int64              `json:"final_price_cents,omitempty"`
	EndedAt         time.Time           `json:"ended_at"`
}

// AuctionWonEvent carries the payment obligation for the winning bidder.
type AuctionWonEvent struct {
	AuctionID       uuid.UUID `json:"auction_id"`
	WinnerID        uuid.UUID `json:"winner_id"`
	WinningBidID    uuid.UUID `json:"winning_bid_id"`
	AmountCents     int64     `json:"amount_cents"`
	PaymentDeadline time.Time `json:"payment_deadline"`
}

// AuctionRelistedEvent links an unsold run to its replacement.
type AuctionRelistedEvent struct {
	AuctionID    uuid.UUID  `json:"auction_id"`
	NewAuctionID uuid.UUID  `json:"new_auction_id"`
	RelistCount  int        `json:"relist_count"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
}

// AuctionConvertedEvent reports a no-sale conversion to fixed-price listing.
type AuctionConvertedEvent struct {
	AuctionID     uuid.UUID                `json:"auction_id"`
	Kind          enums.AuctionableKind    `json:"kind"`
	AuctionableID uuid.UUID                `json:"auctionable_id"`
	PriceCents    int64                    `json:"price_cents"`
	PriceSource   enums.ConvertPriceSource `json:"price_source"`
}

// AuctionUnlistedEvent reports the item was pulled from sale after no-sale.
type AuctionUnlistedEvent struct {
	AuctionID     uuid.UUID             `json:"auction_id"`
	Kind          enums.AuctionableKind `json:"kind"`
	AuctionableID uuid.UUID             `json:"auctionable_id"`
}

// EarningRecordedEvent is emitted when a commission row is written.
type EarningRecordedEvent struct {
	EarningID       uuid.UUID             `json:"earning_id"`
	VendorID        uuid.UUID             `json:"vendor_id"`
	OrderID         uuid.UUID             `json:"order_id"`
	AmountCents     int64                 `json:"amount_cents"`
	NetAmountCents  int64                 `json:"net_amount_cents"`
	TransactionType enums.TransactionType `json:"transaction_type"`
}

// EarningSettledEvent is emitted when a pending earning becomes available.
type EarningSettledEvent struct {
	EarningID      uuid.UUID `json:"earning_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	NetAmountCents int64     `json:"net_amount_cents"`
	SettledAt      time.Time `json:"settled_at"`
}

// PayoutRequestedEvent is emitted when a withdrawal row is created.
type PayoutRequestedEvent struct {
	PayoutID    uuid.UUID          `json:"payout_id"`
	VendorID    uuid.UUID          `json:"vendor_id"`
	AmountCents int64              `json:"amount_cents"`
	Method      enums.PayoutMethod `json:"method"`
}

// PayoutPaidEvent confirms provider settlement of a withdrawal.
type PayoutPaidEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	VendorID      uuid.UUID `json:"vendor_id"`
	AmountCents   int64     `json:"amount_cents"`
	TransactionID string    `json:"transaction_id"`
}

// PayoutFailedEvent reports a provider-side failure and the refund of balance.
type PayoutFailedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderPaidEvent arrives from the orders subsystem when a buyer completes
// payment. AuctionID is set for auction-backed orders.
type OrderPaidEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	OrderLineID *uuid.UUID `json:"order_line_id,omitempty"`
	VendorID    uuid.UUID  `json:"vendor_id"`
	BuyerUserID uuid.UUID  `json:"buyer_user_id"`
	AmountCents int64      `json:"amount_cents"`
	AuctionID   *uuid.UUID `json:"auction_id,omitempty"`
	PaidAt      time.Time  `json:"paid_at"`
}

// OrderDeliveredEvent arrives from the orders subsystem on confirmed delivery.
type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// NotificationRequiredEvent asks the notification worker to persist an
// in-app notification for a user.
type NotificationRequiredEvent struct {
	UserID  uuid.UUID              `json:"user_id"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Link    *string                `json:"link,omitempty"`
}
