package endpolicy

import (
	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// Actor identifies who triggered a manual policy action. A nil *Actor marks a
// system-initiated run, which skips the ownership check.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// RelistInput starts a fresh auction run for an unsold auction's item.
type RelistInput struct {
	AuctionID          uuid.UUID
	Actor              *Actor
	StartingPriceCents *int64
	ReservePriceCents  *int64
	DurationDays       int
}

// ConvertInput moves an unsold auction's item to fixed-price sale.
// PriceCents is required when the auction's convert_price_source is manual
// and ignored otherwise.
type ConvertInput struct {
	AuctionID  uuid.UUID
	Actor      *Actor
	PriceCents *int64
}

// UnlistInput pulls an unsold auction's item from sale entirely.
type UnlistInput struct {
	AuctionID uuid.UUID
	Actor     *Actor
}

// ConvertResult reports the published item and its final fixed price.
type ConvertResult struct {
	ItemKind   enums.AuctionableKind `json:"item_kind"`
	ItemID     uuid.UUID             `json:"item_id"`
	PriceCents int64                 `json:"price_cents"`
}

// UnlistResult reports the archived item.
type UnlistResult struct {
	ItemKind enums.AuctionableKind `json:"item_kind"`
	ItemID   uuid.UUID             `json:"item_id"`
}
