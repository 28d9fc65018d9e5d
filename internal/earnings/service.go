package earnings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	dbpkg "github.com/bindery-hq/bindery-backend/pkg/db"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/outbox/payloads"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns paid orders into commission rows and settles them on delivery.
type Service interface {
	RecordSaleCommission(ctx context.Context, input RecordSaleInput) (*models.VendorEarning, error)
	SettleOnDelivery(ctx context.Context, orderID uuid.UUID) error
	ListVendorEarnings(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*EarningList, error)
}

type service struct {
	repo    Repository
	vendors vendors.Repository
	tx      txRunner
	outbox  outboxEmitter
	cfg     config.EarningsConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the earnings ledger service.
func NewService(repo Repository, vendorRepo vendors.Repository, tx txRunner, emitter outboxEmitter, cfg config.EarningsConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if vendorRepo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		vendors: vendorRepo,
		tx:      tx,
		outbox:  emitter,
		cfg:     cfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// RecordSaleCommission writes exactly one earning per (order, line) pair and
// credits the vendor's pending balance with the net amount. Replays return the
// existing row without touching balances.
func (s *service) RecordSaleCommission(ctx context.Context, input RecordSaleInput) (*models.VendorEarning, error) {
	if input.OrderID == uuid.Nil || input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and vendor ids required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale amount must be positive")
	}
	if !input.TransactionType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}

	var recorded *models.VendorEarning
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendorRepo := s.vendors.WithTx(tx)

		existing, err := repo.FindByOrderLine(ctx, input.OrderID, input.OrderLineID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing earning")
		}
		if existing != nil {
			recorded = existing
			return nil
		}

		vendor, err := vendorRepo.FindByIDForUpdate(ctx, input.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}

		rateBps := s.cfg.DefaultCommissionRateBps
		if vendor.CommissionRateBps != nil {
			rateBps = *vendor.CommissionRateBps
		}
		fee := commissionFee(input.AmountCents, rateBps)
		net := input.AmountCents - fee

		earning := &models.VendorEarning{
			VendorID:          input.VendorID,
			OrderID:           input.OrderID,
			OrderLineID:       input.OrderLineID,
			AmountCents:       input.AmountCents,
			CommissionRateBps: rateBps,
			PlatformFeeCents:  fee,
			NetAmountCents:    net,
			TransactionType:   input.TransactionType,
			Status:            enums.EarningStatusPending,
		}
		if _, err := repo.Create(ctx, earning); err != nil {
			// A concurrent replay lost the race to the unique index.
			if dbpkg.IsUniqueViolation(err, "ux_vendor_earnings_order_line") {
				recorded, err = repo.FindByOrderLine(ctx, input.OrderID, input.OrderLineID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload earning")
				}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert earning")
		}

		if err := vendorRepo.AddBalances(ctx, input.VendorID, net, 0, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit pending balance")
		}
		if err := vendorRepo.AddLifetimeSale(ctx, input.VendorID, input.AmountCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump lifetime counters")
		}

		err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEarningRecorded,
			AggregateType: enums.AggregateEarning,
			AggregateID:   earning.ID,
			Version:       1,
			Data: payloads.EarningRecordedEvent{
				EarningID:       earning.ID,
				VendorID:        earning.VendorID,
				OrderID:         earning.OrderID,
				AmountCents:     earning.AmountCents,
				NetAmountCents:  earning.NetAmountCents,
				TransactionType: earning.TransactionType,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit earning recorded")
		}

		recorded = earning
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"vendor_id":  input.VendorID.String(),
		"order_id":   input.OrderID.String(),
		"earning_id": recorded.ID.String(),
	})
	s.logg.Info(logCtx, "sale commission recorded")
	return recorded, nil
}

// SettleOnDelivery moves every pending earning of the order from the pending
// to the available balance. Re-delivery is a no-op because the rows are no
// longer pending.
func (s *service) SettleOnDelivery(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendorRepo := s.vendors.WithTx(tx)

		pending, err := repo.ListPendingByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending earnings")
		}
		if len(pending) == 0 {
			return nil
		}

		settledAt := s.now().UTC()
		for _, earning := range pending {
			err := repo.Update(ctx, earning.ID, map[string]any{
				"status":     enums.EarningStatusCompleted,
				"settled_at": settledAt,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle earning")
			}
			err = vendorRepo.AddBalances(ctx, earning.VendorID, -earning.NetAmountCents, earning.NetAmountCents, 0)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move pending to available")
			}

			err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEarningSettled,
				AggregateType: enums.AggregateEarning,
				AggregateID:   earning.ID,
				Version:       1,
				Data: payloads.EarningSettledEvent{
					EarningID:      earning.ID,
					VendorID:       earning.VendorID,
					NetAmountCents: earning.NetAmountCents,
					SettledAt:      settledAt,
				},
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit earning settled")
			}
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"settled":  len(pending),
		})
		s.logg.Info(logCtx, "order earnings settled")
		return nil
	})
}

func (s *service) ListVendorEarnings(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*EarningList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	list, err := s.repo.List(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list earnings")
	}
	return list, nil
}

// commissionFee computes the platform's cut in whole cents, rounding half up
// so fee + net always reassembles the gross amount.
func commissionFee(amountCents int64, rateBps int) int64 {
	if rateBps <= 0 {
		return 0
	}
	return decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromInt(int64(rateBps))).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}
