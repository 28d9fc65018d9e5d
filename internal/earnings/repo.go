package earnings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an earnings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, earning *models.VendorEarning) (*models.VendorEarning, error) {
	if err := r.db.WithContext(ctx).Create(earning).Error; err != nil {
		return nil, err
	}
	return earning, nil
}

func (r *repository) FindByOrderLine(ctx context.Context, orderID uuid.UUID, orderLineID *uuid.UUID) (*models.VendorEarning, error) {
	query := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if orderLineID != nil {
		query = query.Where("order_line_id = ?", *orderLineID)
	} else {
		query = query.Where("order_line_id IS NULL")
	}

	var earning models.VendorEarning
	if err := query.First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

func (r *repository) ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorEarning, error) {
	var rows []models.VendorEarning
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.EarningStatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkPaidOut(ctx context.Context, vendorID, payoutID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("vendor_id = ? AND status = ? AND paid_out = ?", vendorID, enums.EarningStatusCompleted, false).
		Updates(map[string]any{
			"paid_out":  true,
			"payout_id": payoutID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) List(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*EarningList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.VendorEarning
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &EarningList{Earnings: make([]EarningView, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Earnings = append(list.Earnings, NewEarningView(row))
	}
	return list, nil
}
