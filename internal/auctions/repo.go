package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an auctions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	if err := r.db.WithContext(ctx).Create(auction).Error; err != nil {
		return nil, err
	}
	return auction, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&auction).Error; err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&auction).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Auction{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND ends_at <= ?", enums.AuctionStatusActive, cutoff).
		Order("ends_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPolicyDue(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("policy_run_after IS NOT NULL AND policy_run_after <= ?", cutoff).
		Where("status IN ?", []enums.AuctionStatus{
			enums.AuctionStatusEndedNoBids,
			enums.AuctionStatusEndedReserveNotMet,
		}).
		Order("policy_run_after ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
