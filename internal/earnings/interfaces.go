package earnings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

// Repository defines persistence operations for vendor earning rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, earning *models.VendorEarning) (*models.VendorEarning, error)
	// FindByOrderLine returns the earning already recorded for the
	// (order, line) pair, or nil. A nil orderLineID matches whole-order rows.
	FindByOrderLine(ctx context.Context, orderID uuid.UUID, orderLineID *uuid.UUID) (*models.VendorEarning, error)
	// ListPendingByOrder returns the order's earnings still awaiting settlement.
	ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorEarning, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// MarkPaidOut flags the vendor's settled, not-yet-paid earnings against a
	// payout and returns how many rows were flagged.
	MarkPaidOut(ctx context.Context, vendorID, payoutID uuid.UUID) (int64, error)
	List(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*EarningList, error)
}
