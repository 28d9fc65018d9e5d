package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID) (*Item, error) {
	switch kind {
	case enums.AuctionableKindBook:
		var book models.Book
		if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
			return nil, err
		}
		return &Item{
			Kind:               kind,
			ID:                 book.ID,
			VendorID:           book.VendorID,
			Name:               book.Title,
			PriceCents:         book.PriceCents,
			Quantity:           book.Quantity,
			TrackQuantity:      book.TrackQuantity,
			Status:             book.Status,
			AuctionLockedUntil: book.AuctionLockedUntil,
		}, nil
	case enums.AuctionableKindProduct:
		var product models.Product
		if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
			return nil, err
		}
		return &Item{
			Kind:               kind,
			ID:                 product.ID,
			VendorID:           product.VendorID,
			Name:               product.Name,
			PriceCents:         product.PriceCents,
			Quantity:           product.Quantity,
			TrackQuantity:      product.TrackQuantity,
			Status:             product.Status,
			AuctionLockedUntil: product.AuctionLockedUntil,
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown auctionable kind")
	}
}

func (r *repository) PublishAtPrice(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, priceCents int64) error {
	return r.update(ctx, kind, id, map[string]any{
		"price_cents":          priceCents,
		"status":               enums.CatalogItemStatusPublished,
		"auction_locked_until": nil,
	})
}

func (r *repository) Archive(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID) error {
	return r.update(ctx, kind, id, map[string]any{
		"status":               enums.CatalogItemStatusArchived,
		"auction_locked_until": nil,
	})
}

func (r *repository) LockUntil(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, until time.Time) error {
	return r.update(ctx, kind, id, map[string]any{
		"auction_locked_until": until,
	})
}

func (r *repository) update(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, updates map[string]any) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func modelFor(kind enums.AuctionableKind) (any, error) {
	switch kind {
	case enums.AuctionableKindBook:
		return &models.Book{}, nil
	case enums.AuctionableKindProduct:
		return &models.Product{}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown auctionable kind")
	}
}
