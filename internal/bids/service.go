package bids

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/outbox/payloads"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines bid ledger operations.
type Service interface {
	PlaceBid(ctx context.Context, input PlaceBidInput) (*models.AuctionBid, error)
	ListBids(ctx context.Context, auctionID uuid.UUID, params pagination.Params) (*BidList, error)
}

type service struct {
	repo     Repository
	auctions auctions.Repository
	tx       txRunner
	outbox   outboxEmitter
	cfg      config.AuctionsConfig
	now      func() time.Time
}

// NewService builds the bid ledger service.
func NewService(repo Repository, auctionRepo auctions.Repository, tx txRunner, emitter outboxEmitter, cfg config.AuctionsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if auctionRepo == nil {
		return nil, fmt.Errorf("auctions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:     repo,
		auctions: auctionRepo,
		tx:       tx,
		outbox:   emitter,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// PlaceBid runs the ledger's triple update in one transaction: flip the old
// winner to outbid, insert the new winning bid, advance the auction's current
// bid and counter. The row lock on the auction serializes concurrent bidders,
// so at most one request wins any given threshold.
func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*models.AuctionBid, error) {
	if input.AuctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	var placed *models.AuctionBid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		auctionRepo := s.auctions.WithTx(tx)
		bidRepo := s.repo.WithTx(tx)

		auction, err := auctionRepo.FindByIDForUpdate(ctx, input.AuctionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
		}

		if auction.Status != enums.AuctionStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not active")
		}
		now := s.now().UTC()
		if now.After(auction.EndsAt) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction has ended")
		}

		minimum := s.minimumNextBid(auction)
		if input.AmountCents < minimum {
			return pkgerrors.New(pkgerrors.CodeValidation, "bid amount below minimum").
				WithDetails(map[string]any{"minimum_cents": minimum})
		}

		previous, err := bidRepo.FindWinning(ctx, auction.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load winning bid")
		}
		if previous != nil && previous.UserID == input.UserID {
			return pkgerrors.New(pkgerrors.CodeConflict, "you already hold the winning bid")
		}

		if err := bidRepo.MarkAllOutbid(ctx, auction.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbid previous bids")
		}

		bid := &models.AuctionBid{
			AuctionID:   auction.ID,
			UserID:      input.UserID,
			AmountCents: input.AmountCents,
			Status:      enums.BidStatusWinning,
		}
		if _, err := bidRepo.Create(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert bid")
		}

		err = auctionRepo.Update(ctx, auction.ID, map[string]any{
			"current_bid_cents": input.AmountCents,
			"bid_count":         gorm.Expr("bid_count + 1"),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance auction bid state")
		}

		if err := s.emitPlaced(ctx, tx, auction, bid, previous); err != nil {
			return err
		}

		placed = bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) ListBids(ctx context.Context, auctionID uuid.UUID, params pagination.Params) (*BidList, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if _, err := s.auctions.FindByID(ctx, auctionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	list, err := s.repo.List(ctx, auctionID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return list, nil
}

func (s *service) minimumNextBid(auction *models.Auction) int64 {
	if auction.CurrentBidCents == nil {
		return auction.StartingPriceCents
	}
	increment := int64(s.cfg.MinBidIncrementCents)
	if increment <= 0 {
		increment = 1
	}
	return *auction.CurrentBidCents + increment
}

func (s *service) emitPlaced(ctx context.Context, tx *gorm.DB, auction *models.Auction, bid *models.AuctionBid, previous *models.AuctionBid) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBidPlaced,
		AggregateType: enums.AggregateBid,
		AggregateID:   bid.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: bid.UserID, Role: string(enums.ActorRoleBuyer)},
		Data: payloads.BidPlacedEvent{
			AuctionID:   auction.ID,
			BidID:       bid.ID,
			BidderID:    bid.UserID,
			AmountCents: bid.AmountCents,
			BidCount:    auction.BidCount + 1,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit bid placed")
	}

	if previous == nil {
		return nil
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBidderOutbid,
		AggregateType: enums.AggregateBid,
		AggregateID:   previous.ID,
		Version:       1,
		Data: payloads.BidderOutbidEvent{
			AuctionID:      auction.ID,
			OutbidBidID:    previous.ID,
			OutbidUserID:   previous.UserID,
			NewAmountCents: bid.AmountCents,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit bidder outbid")
	}

	link := fmt.Sprintf("/auctions/%s", auction.ID)
	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequired,
		AggregateType: enums.AggregateNotification,
		AggregateID:   previous.ID,
		Version:       1,
		Data: payloads.NotificationRequiredEvent{
			UserID:  previous.UserID,
			Type:    enums.NotificationTypeOutbid,
			Title:   "You have been outbid",
			Message: fmt.Sprintf("A new bid of %d cents beat yours.", bid.AmountCents),
			Link:    &link,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbid notification")
	}
	return nil
}
