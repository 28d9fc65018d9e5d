package payouts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

func setupPayoutsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	payoutsDDL := `
CREATE TABLE IF NOT EXISTS vendor_payouts (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  transaction_id TEXT,
  destination TEXT,
  failure_reason TEXT,
  requested_by_user_id TEXT NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	webhooksDDL := `
CREATE TABLE IF NOT EXISTS webhook_events (
  id TEXT PRIMARY KEY,
  provider TEXT NOT NULL,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  payout_id TEXT,
  processed_at DATETIME,
  CONSTRAINT ux_webhook_events_provider_event UNIQUE (provider, event_id)
);`
	require.NoError(t, db.Exec(payoutsDDL).Error)
	require.NoError(t, db.Exec(webhooksDDL).Error)
	return db
}

func TestRepositoryFindByTransactionID(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	transferID := "tr_123"
	payout := &models.VendorPayout{
		ID:                uuid.New(),
		VendorID:          uuid.New(),
		AmountCents:       5000,
		Method:            enums.PayoutMethodStripe,
		Status:            enums.PayoutStatusPaid,
		TransactionID:     &transferID,
		RequestedByUserID: uuid.New(),
	}
	require.NoError(t, db.Create(payout).Error)

	found, err := repo.FindByTransactionID(ctx, "tr_123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, payout.ID, found.ID)

	missing, err := repo.FindByTransactionID(ctx, "tr_unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWebhookLedgerRecordOnce(t *testing.T) {
	db := setupPayoutsTestDB(t)
	ledger := NewWebhookLedger(db)
	ctx := context.Background()
	payoutID := uuid.New()

	fresh, err := ledger.RecordOnce(ctx, "stripe", "evt_1", "transfer.reversed", &payoutID)
	require.NoError(t, err)
	assert.True(t, fresh)

	duplicate, err := ledger.RecordOnce(ctx, "stripe", "evt_1", "transfer.reversed", &payoutID)
	require.NoError(t, err)
	assert.False(t, duplicate)

	otherProvider, err := ledger.RecordOnce(ctx, "paypal", "evt_1", "PAYMENT.PAYOUTS-ITEM.FAILED", nil)
	require.NoError(t, err)
	assert.True(t, otherProvider)
}
