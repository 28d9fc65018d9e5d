package auctions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

func setupAuctionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS auctions (
  id TEXT PRIMARY KEY,
  auctionable_kind TEXT NOT NULL,
  auctionable_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  starting_price_cents INTEGER NOT NULL,
  current_bid_cents INTEGER,
  reserve_price_cents INTEGER,
  bid_count INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'upcoming',
  winner_id TEXT,
  winning_bid_id TEXT,
  ended_at DATETIME,
  payment_window_hours INTEGER NOT NULL DEFAULT 48,
  payment_deadline DATETIME,
  relist_count INTEGER NOT NULL DEFAULT 0,
  parent_auction_id TEXT,
  on_no_sale TEXT NOT NULL DEFAULT 'none',
  relist_delay_hours INTEGER NOT NULL DEFAULT 0,
  relist_max_count INTEGER NOT NULL DEFAULT 0,
  convert_price_source TEXT NOT NULL DEFAULT 'highest_bid',
  convert_markup_bps INTEGER NOT NULL DEFAULT 0,
  policy_run_after DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedAuction(t *testing.T, db *gorm.DB, status enums.AuctionStatus, endsAt time.Time, policyRunAfter *time.Time) *models.Auction {
	t.Helper()

	auction := &models.Auction{
		ID:                 uuid.New(),
		AuctionableKind:    enums.AuctionableKindProduct,
		AuctionableID:      uuid.New(),
		VendorID:           uuid.New(),
		Currency:           enums.CurrencyUSD,
		StartingPriceCents: 5000,
		StartsAt:           endsAt.Add(-72 * time.Hour),
		EndsAt:             endsAt,
		Status:             status,
		PaymentWindowHours: 48,
		PolicyRunAfter:     policyRunAfter,
	}
	require.NoError(t, db.Create(auction).Error)
	return auction
}

func TestRepositoryListExpiredActive(t *testing.T) {
	db := setupAuctionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	oldest := seedAuction(t, db, enums.AuctionStatusActive, now.Add(-2*time.Hour), nil)
	newest := seedAuction(t, db, enums.AuctionStatusActive, now.Add(-time.Minute), nil)
	seedAuction(t, db, enums.AuctionStatusActive, now.Add(time.Hour), nil)
	seedAuction(t, db, enums.AuctionStatusEndedNoBids, now.Add(-3*time.Hour), nil)

	rows, err := repo.ListExpiredActive(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Equal(t, newest.ID, rows[1].ID)

	capped, err := repo.ListExpiredActive(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, oldest.ID, capped[0].ID)
}

func TestRepositoryListPolicyDue(t *testing.T) {
	db := setupAuctionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	due := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	unsold := seedAuction(t, db, enums.AuctionStatusEndedNoBids, now.Add(-24*time.Hour), &due)
	reserveMiss := seedAuction(t, db, enums.AuctionStatusEndedReserveNotMet, now.Add(-24*time.Hour), &due)
	seedAuction(t, db, enums.AuctionStatusEndedNoBids, now.Add(-24*time.Hour), &later)
	seedAuction(t, db, enums.AuctionStatusEndedNoBids, now.Add(-24*time.Hour), nil)
	seedAuction(t, db, enums.AuctionStatusEndedSold, now.Add(-24*time.Hour), &due)

	rows, err := repo.ListPolicyDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	ids := map[uuid.UUID]bool{rows[0].ID: true, rows[1].ID: true}
	assert.True(t, ids[unsold.ID])
	assert.True(t, ids[reserveMiss.ID])
}

func TestRepositoryUpdateClearsPolicySchedule(t *testing.T) {
	db := setupAuctionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	due := now.Add(-time.Hour)
	auction := seedAuction(t, db, enums.AuctionStatusEndedNoBids, now.Add(-24*time.Hour), &due)

	require.NoError(t, repo.Update(ctx, auction.ID, map[string]any{"policy_run_after": nil}))

	reloaded, err := repo.FindByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.PolicyRunAfter)

	err = repo.Update(ctx, uuid.New(), map[string]any{"policy_run_after": nil})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
