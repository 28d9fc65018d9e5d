package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
)

// Repository exposes the vendor rows the settlement engine mutates. Balance
// movements always go through AddBalances so callers cannot write absolute
// values computed from a stale read.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	// FindByIDForUpdate takes a row lock; use inside a transaction when a
	// balance check must hold until commit.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	// AddBalances applies signed deltas to the three balance buckets.
	AddBalances(ctx context.Context, id uuid.UUID, pendingDelta, availableDelta, paidDelta int64) error
	// AddLifetimeSale bumps the lifetime counters for one settled sale.
	AddLifetimeSale(ctx context.Context, id uuid.UUID, amountCents int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vendor repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) AddBalances(ctx context.Context, id uuid.UUID, pendingDelta, availableDelta, paidDelta int64) error {
	updates := map[string]any{}
	if pendingDelta != 0 {
		updates["balance_pending_cents"] = gorm.Expr("balance_pending_cents + ?", pendingDelta)
	}
	if availableDelta != 0 {
		updates["balance_available_cents"] = gorm.Expr("balance_available_cents + ?", availableDelta)
	}
	if paidDelta != 0 {
		updates["balance_paid_cents"] = gorm.Expr("balance_paid_cents + ?", paidDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddLifetimeSale(ctx context.Context, id uuid.UUID, amountCents int64) error {
	result := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Updates(map[string]any{
		"lifetime_sales_cents": gorm.Expr("lifetime_sales_cents + ?", amountCents),
		"lifetime_sales_count": gorm.Expr("lifetime_sales_count + 1"),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
