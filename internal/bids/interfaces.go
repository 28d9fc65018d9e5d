package bids

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

// Repository defines persistence operations for the bid ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.AuctionBid) (*models.AuctionBid, error)
	// FindWinning returns the bid currently holding the winning slot, or nil.
	FindWinning(ctx context.Context, auctionID uuid.UUID) (*models.AuctionBid, error)
	// MarkAllOutbid flips every active or winning bid on the auction to outbid.
	MarkAllOutbid(ctx context.Context, auctionID uuid.UUID) error
	List(ctx context.Context, auctionID uuid.UUID, params pagination.Params) (*BidList, error)
}
