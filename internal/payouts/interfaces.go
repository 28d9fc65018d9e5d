package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

// Repository defines persistence operations for payout rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.VendorPayout) (*models.VendorPayout, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error)
	// FindByIDForUpdate takes a row lock for webhook reconciliation.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error)
	// FindByTransactionID resolves a provider reference back to the payout row,
	// or nil when unknown.
	FindByTransactionID(ctx context.Context, transactionID string) (*models.VendorPayout, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutList, error)
}

// WebhookLedger records each provider webhook delivery exactly once.
type WebhookLedger interface {
	WithTx(tx *gorm.DB) WebhookLedger
	// RecordOnce inserts the delivery and reports false when the same
	// (provider, event id) pair was already seen.
	RecordOnce(ctx context.Context, provider, eventID, eventType string, payoutID *uuid.UUID) (bool, error)
}
