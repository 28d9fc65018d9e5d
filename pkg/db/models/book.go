package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// Book is one of the two auctionable catalog tables. The auction engine only
// reads and mutates the fields below; full book CRUD belongs to the catalog
// subsystem.
type Book struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	Title    string    `gorm:"column:title;type:text;not null"`

	PriceCents    int64                   `gorm:"column:price_cents;not null"`
	Quantity      int                     `gorm:"column:quantity;not null;default:0"`
	TrackQuantity bool                    `gorm:"column:track_quantity;not null;default:true"`
	Status        enums.CatalogItemStatus `gorm:"column:status;type:catalog_item_status;not null;default:'draft'"`

	// AuctionLockedUntil blocks fixed-price sale while an auction run is live.
	AuctionLockedUntil *time.Time     `gorm:"column:auction_locked_until"`
	Categories         pq.StringArray `gorm:"column:categories;type:text[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Book) TableName() string {
	return "books"
}
