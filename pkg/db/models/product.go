package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

// Product is the general-merchandise auctionable catalog table.
type Product struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	Name     string    `gorm:"column:name;type:text;not null"`

	PriceCents    int64                   `gorm:"column:price_cents;not null"`
	Quantity      int                     `gorm:"column:quantity;not null;default:0"`
	TrackQuantity bool                    `gorm:"column:track_quantity;not null;default:true"`
	Status        enums.CatalogItemStatus `gorm:"column:status;type:catalog_item_status;not null;default:'draft'"`

	AuctionLockedUntil *time.Time     `gorm:"column:auction_locked_until"`
	Categories         pq.StringArray `gorm:"column:categories;type:text[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Product) TableName() string {
	return "products"
}
