package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// Item is the kind-agnostic view of an auctionable catalog row. Auctions
// reference items by (kind, id) without a foreign key; this package owns the
// dispatch to the right table.
type Item struct {
	Kind               enums.AuctionableKind
	ID                 uuid.UUID
	VendorID           uuid.UUID
	Name               string
	PriceCents         int64
	Quantity           int
	TrackQuantity      bool
	Status             enums.CatalogItemStatus
	AuctionLockedUntil *time.Time
}

// InStock reports whether the item can back a new auction run or fixed-price
// conversion. Untracked items are always considered in stock.
func (i Item) InStock() bool {
	return !i.TrackQuantity || i.Quantity >= 1
}

// Repository is the catalog collaborator surface the auction engine consumes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID) (*Item, error)
	// PublishAtPrice sets the fixed price, flips status to published and
	// clears any auction lock.
	PublishAtPrice(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, priceCents int64) error
	// Archive pulls the item from sale and clears any auction lock.
	Archive(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID) error
	// LockUntil blocks fixed-price sale while an auction run is live.
	LockUntil(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, until time.Time) error
}
