package auctions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/outbox/payloads"
)

// Classify decides the terminal state for an expired active auction. It is a
// pure function of (bidCount, reservePrice, currentBid).
func Classify(bidCount int, reservePriceCents, currentBidCents *int64) enums.AuctionStatus {
	if bidCount == 0 {
		return enums.AuctionStatusEndedNoBids
	}
	if reservePriceCents != nil {
		current := int64(0)
		if currentBidCents != nil {
			current = *currentBidCents
		}
		if current < *reservePriceCents {
			return enums.AuctionStatusEndedReserveNotMet
		}
	}
	return enums.AuctionStatusEndedSold
}

// BidSource returns the current winning bid for an auction.
type BidSource interface {
	FindWinning(ctx context.Context, auctionID uuid.UUID) (*models.AuctionBid, error)
}

// BidSourceFactory binds a BidSource to the resolver's transaction.
type BidSourceFactory func(tx *gorm.DB) BidSource

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ResolverParams configure the end-of-auction resolver.
type ResolverParams struct {
	Repo   Repository
	Tx     txRunner
	Bids   BidSourceFactory
	Outbox outboxEmitter
	Logger *logger.Logger
	Now    func() time.Time
}

// Resolver finalizes expired auctions. Safe to invoke concurrently for
// different auctions and idempotent for the same one.
type Resolver struct {
	repo   Repository
	tx     txRunner
	bids   BidSourceFactory
	outbox outboxEmitter
	logg   *logger.Logger
	now    func() time.Time
}

// NewResolver builds a resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("auctions repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Bids == nil {
		return nil, fmt.Errorf("bid source required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		repo:   params.Repo,
		tx:     params.Tx,
		bids:   params.Bids,
		outbox: params.Outbox,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// Resolve finalizes one auction. Re-invoking on an already-terminal auction
// is a no-op; invoking before ends_at is a state conflict.
func (r *Resolver) Resolve(ctx context.Context, auctionID uuid.UUID) error {
	if auctionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}

	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		auction, err := repo.FindByIDForUpdate(ctx, auctionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
		}

		if auction.Status.IsTerminal() {
			return nil
		}
		if auction.Status != enums.AuctionStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not active")
		}
		now := r.now().UTC()
		if now.Before(auction.EndsAt) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction has not ended yet")
		}

		outcome := Classify(auction.BidCount, auction.ReservePriceCents, auction.CurrentBidCents)
		updates := map[string]any{
			"status":   outcome,
			"ended_at": now,
		}

		var winning *models.AuctionBid
		if outcome == enums.AuctionStatusEndedSold {
			winning, err = r.bids(tx).FindWinning(ctx, auction.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load winning bid")
			}
			if winning == nil {
				return pkgerrors.New(pkgerrors.CodeInternal, "sold auction has no winning bid")
			}
			deadline := now.Add(time.Duration(auction.PaymentWindowHours) * time.Hour)
			updates["winner_id"] = winning.UserID
			updates["winning_bid_id"] = winning.ID
			updates["payment_deadline"] = deadline
		} else if auction.OnNoSale.HasAction() {
			updates["policy_run_after"] = now.Add(time.Duration(auction.RelistDelayHours) * time.Hour)
		}

		if err := repo.Update(ctx, auction.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize auction")
		}

		if err := r.emitResolution(ctx, tx, auction, outcome, winning, now); err != nil {
			return err
		}

		logCtx := r.logg.WithFields(ctx, map[string]any{
			"auction_id": auction.ID.String(),
			"outcome":    outcome,
			"bid_count":  auction.BidCount,
		})
		r.logg.Info(logCtx, "auction resolved")
		return nil
	})
}

func (r *Resolver) emitResolution(ctx context.Context, tx *gorm.DB, auction *models.Auction, outcome enums.AuctionStatus, winning *models.AuctionBid, endedAt time.Time) error {
	ended := payloads.AuctionEndedEvent{
		AuctionID: auction.ID,
		Status:    outcome,
		EndedAt:   endedAt,
	}
	if winning != nil {
		ended.WinnerID = &winning.UserID
		ended.FinalPriceCents = &winning.AmountCents
	}
	err := r.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAuctionEnded,
		AggregateType: enums.AggregateAuction,
		AggregateID:   auction.ID,
		Version:       1,
		Data:          ended,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit auction ended")
	}

	if winning == nil {
		return nil
	}

	deadline := endedAt.Add(time.Duration(auction.PaymentWindowHours) * time.Hour)
	err = r.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAuctionWon,
		AggregateType: enums.AggregateAuction,
		AggregateID:   auction.ID,
		Version:       1,
		Data: payloads.AuctionWonEvent{
			AuctionID:       auction.ID,
			WinnerID:        winning.UserID,
			WinningBidID:    winning.ID,
			AmountCents:     winning.AmountCents,
			PaymentDeadline: deadline,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit auction won")
	}

	link := fmt.Sprintf("/auctions/%s", auction.ID)
	err = r.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequired,
		AggregateType: enums.AggregateNotification,
		AggregateID:   uuid.New(),
		Version:       1,
		Data: payloads.NotificationRequiredEvent{
			UserID:  winning.UserID,
			Type:    enums.NotificationTypeAuctionWon,
			Title:   "You won the auction",
			Message: fmt.Sprintf("Your bid of %d cents won. Complete payment before %s.", winning.AmountCents, deadline.Format(time.RFC3339)),
			Link:    &link,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit winner notification")
	}
	return nil
}
