package endpolicy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/internal/catalog"
	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ExecutorParams configure the policy executor.
type ExecutorParams struct {
	Auctions auctions.Repository
	Catalog  catalog.Repository
	Vendors  vendors.Repository
	Tx       txRunner
	Outbox   outboxEmitter
	Logger   *logger.Logger
	Now      func() time.Time
}

// Executor performs the three no-sale actions against an unsold auction and
// its catalog item. Every action mutates exactly one auction and exactly one
// item inside a single transaction.
type Executor struct {
	auctions auctions.Repository
	catalog  catalog.Repository
	vendors  vendors.Repository
	tx       txRunner
	outbox   outboxEmitter
	logg     *logger.Logger
	now      func() time.Time
}

// NewExecutor builds a policy executor.
func NewExecutor(params ExecutorParams) (*Executor, error) {
	if params.Auctions == nil {
		return nil, fmt.Errorf("auctions repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
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
	return &Executor{
		auctions: params.Auctions,
		catalog:  params.Catalog,
		vendors:  params.Vendors,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// Relist creates a fresh auction run for the same item, chained through
// parent_auction_id and capped by relist_max_count.
func (e *Executor) Relist(ctx context.Context, input RelistInput) (*models.Auction, error) {
	if input.DurationDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration must be at least one day")
	}

	var created *models.Auction
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		auction, err := e.loadUnsold(ctx, tx, input.AuctionID, input.Actor)
		if err != nil {
			return err
		}

		if auction.RelistMaxCount > 0 && auction.RelistCount >= auction.RelistMaxCount {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "relist limit reached")
		}

		item, err := e.loadSellableItem(ctx, tx, auction)
		if err != nil {
			return err
		}

		now := e.now().UTC()
		next := &models.Auction{
			AuctionableKind:    auction.AuctionableKind,
			AuctionableID:      auction.AuctionableID,
			VendorID:           auction.VendorID,
			Currency:           auction.Currency,
			StartingPriceCents: auction.StartingPriceCents,
			ReservePriceCents:  auction.ReservePriceCents,
			StartsAt:           now,
			EndsAt:             now.Add(time.Duration(input.DurationDays) * 24 * time.Hour),
			Status:             enums.AuctionStatusActive,
			PaymentWindowHours: auction.PaymentWindowHours,
			RelistCount:        auction.RelistCount + 1,
			OnNoSale:           auction.OnNoSale,
			RelistDelayHours:   auction.RelistDelayHours,
			RelistMaxCount:     auction.RelistMaxCount,
			ConvertPriceSource: auction.ConvertPriceSource,
			ConvertMarkupBps:   auction.ConvertMarkupBps,
		}
		if input.StartingPriceCents != nil {
			if *input.StartingPriceCents <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "starting price must be positive")
			}
			next.StartingPriceCents = *input.StartingPriceCents
		}
		if input.ReservePriceCents != nil {
			next.ReservePriceCents = input.ReservePriceCents
		}
		// The chain always points at the first run of the item.
		if auction.ParentAuctionID != nil {
			next.ParentAuctionID = auction.ParentAuctionID
		} else {
			parent := auction.ID
			next.ParentAuctionID = &parent
		}

		if _, err := e.auctions.WithTx(tx).Create(ctx, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create relisted auction")
		}
		if err := e.clearPolicySchedule(ctx, tx, auction.ID); err != nil {
			return err
		}
		if err := e.catalog.WithTx(tx).LockUntil(ctx, item.Kind, item.ID, next.EndsAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock catalog item")
		}

		startsAt := next.StartsAt
		err = e.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionRelisted,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: payloads.AuctionRelistedEvent{
				AuctionID:    auction.ID,
				NewAuctionID: next.ID,
				RelistCount:  next.RelistCount,
				StartsAt:     &startsAt,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit auction relisted")
		}

		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := e.logg.WithFields(ctx, map[string]any{
		"auction_id":     input.AuctionID.String(),
		"new_auction_id": created.ID.String(),
		"relist_count":   created.RelistCount,
	})
	e.logg.Info(logCtx, "auction relisted")
	return created, nil
}

// ConvertFixed publishes the item at a fixed price derived from the auction's
// configured price source plus markup and cancels the auction.
func (e *Executor) ConvertFixed(ctx context.Context, input ConvertInput) (*ConvertResult, error) {
	var result *ConvertResult
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		auction, err := e.loadUnsold(ctx, tx, input.AuctionID, input.Actor)
		if err != nil {
			return err
		}

		item, err := e.loadSellableItem(ctx, tx, auction)
		if err != nil {
			return err
		}

		base, err := resolveBasePrice(auction, input.PriceCents)
		if err != nil {
			return err
		}
		price := applyMarkup(base, auction.ConvertMarkupBps)

		if err := e.catalog.WithTx(tx).PublishAtPrice(ctx, item.Kind, item.ID, price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish catalog item")
		}
		if err := e.cancelAuction(ctx, tx, auction.ID); err != nil {
			return err
		}

		err = e.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionConverted,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: payloads.AuctionConvertedEvent{
				AuctionID:     auction.ID,
				Kind:          item.Kind,
				AuctionableID: item.ID,
				PriceCents:    price,
				PriceSource:   auction.ConvertPriceSource,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit auction converted")
		}

		result = &ConvertResult{ItemKind: item.Kind, ItemID: item.ID, PriceCents: price}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := e.logg.WithFields(ctx, map[string]any{
		"auction_id":  input.AuctionID.String(),
		"price_cents": result.PriceCents,
	})
	e.logg.Info(logCtx, "auction converted to fixed price")
	return result, nil
}

// Unlist archives the item and cancels the auction.
func (e *Executor) Unlist(ctx context.Context, input UnlistInput) (*UnlistResult, error) {
	var result *UnlistResult
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		auction, err := e.loadUnsold(ctx, tx, input.AuctionID, input.Actor)
		if err != nil {
			return err
		}

		item, err := e.catalog.WithTx(tx).Find(ctx, auction.AuctionableKind, auction.AuctionableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
		}

		if err := e.catalog.WithTx(tx).Archive(ctx, item.Kind, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive catalog item")
		}
		if err := e.cancelAuction(ctx, tx, auction.ID); err != nil {
			return err
		}

		err = e.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionUnlisted,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: payloads.AuctionUnlistedEvent{
				AuctionID:     auction.ID,
				Kind:          item.Kind,
				AuctionableID: item.ID,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit auction unlisted")
		}

		result = &UnlistResult{ItemKind: item.Kind, ItemID: item.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"auction_id": input.AuctionID.String(),
	}), "auction unlisted")
	return result, nil
}

// RunAutomatic executes the auction's configured no-sale action. It is called
// by the policy sweep once policy_run_after elapses. The schedule is cleared
// even when the action cannot run anymore, so a stuck auction does not retry
// every sweep.
func (e *Executor) RunAutomatic(ctx context.Context, auction *models.Auction) error {
	var err error
	switch auction.OnNoSale {
	case enums.NoSaleActionRelist:
		days := auction.RelistDelayHours/24 + 1
		duration := int(auction.EndsAt.Sub(auction.StartsAt).Hours() / 24)
		if duration > 0 {
			days = duration
		}
		_, err = e.Relist(ctx, RelistInput{AuctionID: auction.ID, DurationDays: days})
	case enums.NoSaleActionConvertFixed:
		_, err = e.ConvertFixed(ctx, ConvertInput{AuctionID: auction.ID})
	case enums.NoSaleActionUnlist:
		_, err = e.Unlist(ctx, UnlistInput{AuctionID: auction.ID})
	default:
		err = e.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return e.clearPolicySchedule(ctx, tx, auction.ID)
		})
	}
	if err == nil {
		return nil
	}

	typed := pkgerrors.As(err)
	if typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"auction_id": auction.ID.String(),
			"action":     auction.OnNoSale,
		})
		e.logg.Error(logCtx, "automatic end policy abandoned", err)
		clearErr := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return e.clearPolicySchedule(ctx, tx, auction.ID)
		})
		if clearErr != nil {
			return clearErr
		}
		return nil
	}
	return err
}

func (e *Executor) loadUnsold(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID, actor *Actor) (*models.Auction, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	auction, err := e.auctions.WithTx(tx).FindByIDForUpdate(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	if !auction.Status.IsUnsold() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not in an unsold state")
	}
	if actor != nil && actor.Role != enums.ActorRoleAdmin {
		vendor, err := e.vendors.WithTx(tx).FindByID(ctx, auction.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if vendor.OwnerUserID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "auction does not belong to vendor")
		}
	}
	return auction, nil
}

func (e *Executor) loadSellableItem(ctx context.Context, tx *gorm.DB, auction *models.Auction) (*catalog.Item, error) {
	item, err := e.catalog.WithTx(tx).Find(ctx, auction.AuctionableKind, auction.AuctionableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
	}
	if !item.InStock() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "catalog item is out of stock")
	}
	return item, nil
}

func (e *Executor) cancelAuction(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error {
	err := e.auctions.WithTx(tx).Update(ctx, auctionID, map[string]any{
		"status":           enums.AuctionStatusCancelled,
		"policy_run_after": nil,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel auction")
	}
	return nil
}

func (e *Executor) clearPolicySchedule(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error {
	err := e.auctions.WithTx(tx).Update(ctx, auctionID, map[string]any{
		"policy_run_after": nil,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear policy schedule")
	}
	return nil
}

func resolveBasePrice(auction *models.Auction, manualPriceCents *int64) (int64, error) {
	switch auction.ConvertPriceSource {
	case enums.ConvertPriceSourceReserve:
		if auction.ReservePriceCents == nil {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "auction has no reserve price")
		}
		return *auction.ReservePriceCents, nil
	case enums.ConvertPriceSourceHighestBid:
		if auction.CurrentBidCents != nil {
			return *auction.CurrentBidCents, nil
		}
		return auction.StartingPriceCents, nil
	case enums.ConvertPriceSourceStartingBid:
		return auction.StartingPriceCents, nil
	case enums.ConvertPriceSourceManual:
		if manualPriceCents == nil || *manualPriceCents <= 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "manual price required")
		}
		return *manualPriceCents, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid convert price source")
	}
}

// applyMarkup scales the base price by (1 + bps/10000) with half-up rounding
// to whole cents.
func applyMarkup(baseCents int64, markupBps int) int64 {
	if markupBps == 0 {
		return baseCents
	}
	factor := decimal.NewFromInt(10000 + int64(markupBps)).Div(decimal.NewFromInt(10000))
	return decimal.NewFromInt(baseCents).Mul(factor).Round(0).IntPart()
}

func actorRef(actor *Actor) *outbox.ActorRef {
	if actor == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)}
}
