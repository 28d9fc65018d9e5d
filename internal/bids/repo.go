package bids

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bids repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bid *models.AuctionBid) (*models.AuctionBid, error) {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *repository) FindWinning(ctx context.Context, auctionID uuid.UUID) (*models.AuctionBid, error) {
	var bid models.AuctionBid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND status = ?", auctionID, enums.BidStatusWinning).
		First(&bid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *repository) MarkAllOutbid(ctx context.Context, auctionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AuctionBid{}).
		Where("auction_id = ? AND status IN ?", auctionID, []enums.BidStatus{
			enums.BidStatusActive,
			enums.BidStatusWinning,
		}).
		Update("status", enums.BidStatusOutbid).Error
}

// List pages bids by amount descending. The keyset is (amount_cents, id):
// every accepted bid must exceed the previous one, so amounts are unique
// within an auction, and the id tiebreak keeps page boundaries stable even
// when created_at collapses under coarse clock granularity.
func (r *repository) List(ctx context.Context, auctionID uuid.UUID, params pagination.Params) (*BidList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("amount_cents DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := parseBidCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(amount_cents < ?) OR (amount_cents = ? AND id < ?)",
			cursor.AmountCents, cursor.AmountCents, cursor.ID,
		)
	}

	var rows []models.AuctionBid
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &BidList{Bids: make([]BidView, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = encodeBidCursor(bidCursor{
			AmountCents: last.AmountCents,
			ID:          last.ID,
		})
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Bids = append(list.Bids, NewBidView(row))
	}
	return list, nil
}

type bidCursor struct {
	AmountCents int64
	ID          uuid.UUID
}

func encodeBidCursor(cursor bidCursor) string {
	payload := fmt.Sprintf("%d|%s", cursor.AmountCents, cursor.ID.String())
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func parseBidCursor(value string) (*bidCursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	amount, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor amount: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &bidCursor{AmountCents: amount, ID: id}, nil
}
