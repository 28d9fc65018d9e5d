package bids

import (
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// PlaceBidInput carries a bidder's attempt on an auction.
type PlaceBidInput struct {
	AuctionID   uuid.UUID
	UserID      uuid.UUID
	AmountCents int64
}

// BidView is the JSON shape returned for a single bid.
type BidView struct {
	ID          uuid.UUID       `json:"id"`
	AuctionID   uuid.UUID       `json:"auction_id"`
	UserID      uuid.UUID       `json:"user_id"`
	AmountCents int64           `json:"amount_cents"`
	Status      enums.BidStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewBidView maps a bid row to its response shape.
func NewBidView(bid models.AuctionBid) BidView {
	return BidView{
		ID:          bid.ID,
		AuctionID:   bid.AuctionID,
		UserID:      bid.UserID,
		AmountCents: bid.AmountCents,
		Status:      bid.Status,
		CreatedAt:   bid.CreatedAt,
	}
}

// BidList wraps the paginated bids plus the next page cursor.
type BidList struct {
	Bids       []BidView `json:"bids"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
