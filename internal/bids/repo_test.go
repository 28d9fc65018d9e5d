package bids

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
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

func setupBidsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS auction_bids (
  id TEXT PRIMARY KEY,
  auction_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedBid(t *testing.T, db *gorm.DB, auctionID uuid.UUID, amount int64, status enums.BidStatus, createdAt time.Time) *models.AuctionBid {
	t.Helper()

	bid := &models.AuctionBid{
		ID:          uuid.New(),
		AuctionID:   auctionID,
		UserID:      uuid.New(),
		AmountCents: amount,
		Status:      status,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(bid).Error)
	return bid
}

func TestRepositoryFindWinning(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	auctionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedBid(t, db, auctionID, 5000, enums.BidStatusOutbid, base.Add(-2*time.Minute))
	winner := seedBid(t, db, auctionID, 5100, enums.BidStatusWinning, base.Add(-time.Minute))

	found, err := repo.FindWinning(ctx, auctionID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, winner.ID, found.ID)

	none, err := repo.FindWinning(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepositoryMarkAllOutbid(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	auctionID := uuid.New()
	otherAuction := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	winning := seedBid(t, db, auctionID, 5100, enums.BidStatusWinning, base)
	untouched := seedBid(t, db, otherAuction, 9000, enums.BidStatusWinning, base)

	require.NoError(t, repo.MarkAllOutbid(ctx, auctionID))

	var flipped models.AuctionBid
	require.NoError(t, db.First(&flipped, "id = ?", winning.ID).Error)
	assert.Equal(t, enums.BidStatusOutbid, flipped.Status)

	var other models.AuctionBid
	require.NoError(t, db.First(&other, "id = ?", untouched.ID).Error)
	assert.Equal(t, enums.BidStatusWinning, other.Status)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	auctionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	amounts := []int64{5000, 5100, 5200, 5300, 5400}
	for i, amount := range amounts {
		status := enums.BidStatusOutbid
		if i == len(amounts)-1 {
			status = enums.BidStatusWinning
		}
		seedBid(t, db, auctionID, amount, status, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(ctx, auctionID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Bids, 3)
	assert.Equal(t, int64(5400), first.Bids[0].AmountCents)
	assert.Equal(t, int64(5200), first.Bids[2].AmountCents)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, auctionID, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Bids, 2)
	assert.Equal(t, int64(5100), second.Bids[0].AmountCents)
	assert.Equal(t, int64(5000), second.Bids[1].AmountCents)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListStableAcrossPagesOnEqualTimestamps(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	auctionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	amounts := []int64{5000, 5100, 5200, 5300, 5400}
	for _, amount := range amounts {
		seedBid(t, db, auctionID, amount, enums.BidStatusOutbid, base)
	}

	seen := map[int64]bool{}
	cursor := ""
	for page := 0; page < 3; page++ {
		list, err := repo.List(ctx, auctionID, pagination.Params{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, bid := range list.Bids {
			require.False(t, seen[bid.AmountCents], "amount %d repeated across pages", bid.AmountCents)
			seen[bid.AmountCents] = true
		}
		if list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	require.Len(t, seen, len(amounts), "paging must visit every bid exactly once")
}

func TestRepositoryListEmptyAuction(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)

	list, err := repo.List(context.Background(), uuid.New(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list.Bids)
	assert.Empty(t, list.NextCursor)
}
