package auctions

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// View is the JSON shape returned for a single auction.
type View struct {
	ID              uuid.UUID             `json:"id"`
	AuctionableKind enums.AuctionableKind `json:"auctionable_kind"`
	AuctionableID   uuid.UUID             `json:"auctionable_id"`
	VendorID        uuid.UUID             `json:"vendor_id"`
	Currency        enums.Currency        `json:"currency"`

	StartingPriceCents int64  `json:"starting_price_cents"`
	CurrentBidCents    *int64 `json:"current_bid_cents,omitempty"`
	ReservePriceCents  *int64 `json:"reserve_price_cents,omitempty"`
	BidCount           int    `json:"bid_count"`

	StartsAt time.Time           `json:"starts_at"`
	EndsAt   time.Time           `json:"ends_at"`
	Status   enums.AuctionStatus `json:"status"`

	WinnerID        *uuid.UUID `json:"winner_id,omitempty"`
	WinningBidID    *uuid.UUID `json:"winning_bid_id,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`

	RelistCount     int        `json:"relist_count"`
	ParentAuctionID *uuid.UUID `json:"parent_auction_id,omitempty"`

	OnNoSale           enums.NoSaleAction       `json:"on_no_sale"`
	RelistDelayHours   int                      `json:"relist_delay_hours"`
	RelistMaxCount     int                      `json:"relist_max_count"`
	ConvertPriceSource enums.ConvertPriceSource `json:"convert_price_source"`
	ConvertMarkupBps   int                      `json:"convert_markup_bps"`

	CreatedAt time.Time `json:"created_at"`
}

// NewView maps an auction row to its response shape.
func NewView(auction models.Auction) View {
	return View{
		ID:                 auction.ID,
		AuctionableKind:    auction.AuctionableKind,
		AuctionableID:      auction.AuctionableID,
		VendorID:           auction.VendorID,
		Currency:           auction.Currency,
		StartingPriceCents: auction.StartingPriceCents,
		CurrentBidCents:    auction.CurrentBidCents,
		ReservePriceCents:  auction.ReservePriceCents,
		BidCount:           auction.BidCount,
		StartsAt:           auction.StartsAt,
		EndsAt:             auction.EndsAt,
		Status:             auction.Status,
		WinnerID:           auction.WinnerID,
		WinningBidID:       auction.WinningBidID,
		EndedAt:            auction.EndedAt,
		PaymentDeadline:    auction.PaymentDeadline,
		RelistCount:        auction.RelistCount,
		ParentAuctionID:    auction.ParentAuctionID,
		OnNoSale:           auction.OnNoSale,
		RelistDelayHours:   auction.RelistDelayHours,
		RelistMaxCount:     auction.RelistMaxCount,
		ConvertPriceSource: auction.ConvertPriceSource,
		ConvertMarkupBps:   auction.ConvertMarkupBps,
		CreatedAt:          auction.CreatedAt,
	}
}

// UpdateEndPolicyInput carries a vendor's end-policy reconfiguration.
type UpdateEndPolicyInput struct {
	AuctionID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole

	OnNoSale           enums.NoSaleAction
	RelistDelayHours   int
	RelistMaxCount     int
	ConvertPriceSource enums.ConvertPriceSource
	ConvertMarkupBps   int
}
