package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	paypalsdk "github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	stripesdk "github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/earnings"
	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/outbox/payloads"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

const (
	providerStripe = "stripe"
	providerPayPal = "paypal"

	stripeEventTransferReversed = "transfer.reversed"

	paypalEventItemSucceeded = "PAYMENT.PAYOUTS-ITEM.SUCCEEDED"
	paypalEventItemFailed    = "PAYMENT.PAYOUTS-ITEM.FAILED"
	paypalEventItemBlocked   = "PAYMENT.PAYOUTS-ITEM.BLOCKED"
	paypalEventItemReturned  = "PAYMENT.PAYOUTS-ITEM.RETURNED"
	paypalEventItemDenied    = "PAYMENT.PAYOUTS-ITEM.DENIED"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stripeTransfers interface {
	CreateTransfer(ctx context.Context, params *stripesdk.TransferParams) (*stripesdk.Transfer, error)
}

type paypalPayouts interface {
	CreatePayout(ctx context.Context, payout paypalsdk.Payout) (*paypalsdk.PayoutResponse, error)
}

// Service moves available vendor balance to an external payment method and
// reconciles the result through provider webhooks.
type Service interface {
	ProcessWithdrawal(ctx context.Context, input WithdrawInput) (*models.VendorPayout, error)
	HandleStripeEvent(ctx context.Context, input StripeWebhookInput) error
	HandlePayPalEvent(ctx context.Context, input PayPalWebhookInput) error
	ListVendorPayouts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutList, error)
}

// ServiceParams configure the payout engine.
type ServiceParams struct {
	Repo     Repository
	Earnings earnings.Repository
	Vendors  vendors.Repository
	Webhooks WebhookLedger
	Tx       txRunner
	Outbox   outboxEmitter
	Stripe   stripeTransfers
	PayPal   paypalPayouts
	Config   config.PayoutsConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	earnings earnings.Repository
	vendors  vendors.Repository
	webhooks WebhookLedger
	tx       txRunner
	outbox   outboxEmitter
	stripe   stripeTransfers
	paypal   paypalPayouts
	cfg      config.PayoutsConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the payout engine. The PayPal client may be nil when the
// rail is not configured; PayPal withdrawals then park as pending for manual
// processing instead of failing.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if params.Webhooks == nil {
		return nil, fmt.Errorf("webhook ledger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		earnings: params.Earnings,
		vendors:  params.Vendors,
		webhooks: params.Webhooks,
		tx:       params.Tx,
		outbox:   params.Outbox,
		stripe:   params.Stripe,
		paypal:   params.PayPal,
		cfg:      params.Config,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// ProcessWithdrawal reserves the amount out of the vendor's available balance,
// creates the payout row, then hands the money to the provider. The reserve
// happens before the provider call so concurrent withdrawals cannot overdraw;
// a synchronous provider failure releases it again.
func (s *service) ProcessWithdrawal(ctx context.Context, input WithdrawInput) (*models.VendorPayout, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout method")
	}
	minimum := int64(s.cfg.MinimumWithdrawalCents)
	if input.AmountCents < minimum {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount below withdrawal minimum").
			WithDetails(map[string]any{"minimum_cents": minimum})
	}

	var payout *models.VendorPayout
	var vendor *models.Vendor
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		vendorRepo := s.vendors.WithTx(tx)

		var err error
		vendor, err = vendorRepo.FindByIDForUpdate(ctx, input.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if input.ActorRole != enums.ActorRoleAdmin && vendor.OwnerUserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "vendor does not belong to user")
		}
		if vendor.BalanceAvailableCents < input.AmountCents {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient available balance")
		}
		if input.Method == enums.PayoutMethodStripe && vendor.StripeAccountID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor has no connected stripe account")
		}
		if input.Method == enums.PayoutMethodPayPal && vendor.PayPalEmail == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor has no paypal email")
		}

		payout = &models.VendorPayout{
			VendorID:          input.VendorID,
			AmountCents:       input.AmountCents,
			Method:            input.Method,
			Status:            enums.PayoutStatusPending,
			RequestedByUserID: input.ActorUserID,
		}
		if input.Method == enums.PayoutMethodStripe {
			payout.Destination = vendor.StripeAccountID
		} else {
			payout.Destination = vendor.PayPalEmail
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert payout")
		}

		// Reserve the funds so the invariant holds during the provider call.
		if err := vendorRepo.AddBalances(ctx, input.VendorID, 0, -input.AmountCents, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve available balance")
		}

		err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutRequested,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, VendorID: &input.VendorID, Role: string(input.ActorRole)},
			Data: payloads.PayoutRequestedEvent{
				PayoutID:    payout.ID,
				VendorID:    payout.VendorID,
				AmountCents: payout.AmountCents,
				Method:      payout.Method,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout requested")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch input.Method {
	case enums.PayoutMethodStripe:
		err = s.executeStripe(ctx, payout, vendor)
	case enums.PayoutMethodPayPal:
		err = s.executePayPal(ctx, payout, vendor)
	}
	if err != nil {
		return nil, err
	}

	refreshed, findErr := s.repo.FindByID(ctx, payout.ID)
	if findErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload payout")
	}
	return refreshed, nil
}

// executeStripe transfers to the connected account and settles the payout
// immediately; Stripe transfers succeed or fail synchronously and only
// reversals arrive later by webhook.
func (s *service) executeStripe(ctx context.Context, payout *models.VendorPayout, vendor *models.Vendor) error {
	transfer, err := s.stripe.CreateTransfer(ctx, &stripesdk.TransferParams{
		Amount:        stripesdk.Int64(payout.AmountCents),
		Currency:      stripesdk.String(string(stripesdk.CurrencyUSD)),
		Destination:   vendor.StripeAccountID,
		TransferGroup: stripesdk.String(payout.ID.String()),
	})
	if err != nil {
		if failErr := s.failPayout(ctx, payout.ID, err.Error(), true); failErr != nil {
			return failErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe transfer")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now().UTC()
		err := s.repo.WithTx(tx).Update(ctx, payout.ID, map[string]any{
			"status":         enums.PayoutStatusPaid,
			"transaction_id": transfer.ID,
			"completed_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout paid")
		}
		if err := s.vendors.WithTx(tx).AddBalances(ctx, payout.VendorID, 0, 0, payout.AmountCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit paid balance")
		}
		if _, err := s.earnings.WithTx(tx).MarkPaidOut(ctx, payout.VendorID, payout.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag earnings paid out")
		}

		err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutPaid,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutPaidEvent{
				PayoutID:      payout.ID,
				VendorID:      payout.VendorID,
				AmountCents:   payout.AmountCents,
				TransactionID: transfer.ID,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout paid")
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"payout_id":   payout.ID.String(),
			"transfer_id": transfer.ID,
		})
		s.logg.Info(logCtx, "stripe payout settled")
		return nil
	})
}

// executePayPal submits a payout batch and leaves the row processing until the
// item webhook settles it. Without a configured PayPal client the payout stays
// pending for manual processing; the reserve is kept either way.
func (s *service) executePayPal(ctx context.Context, payout *models.VendorPayout, vendor *models.Vendor) error {
	if s.paypal == nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"payout_id": payout.ID.String(),
		}), "paypal not configured, payout parked as pending")
		return nil
	}

	value := decimal.NewFromInt(payout.AmountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
	response, err := s.paypal.CreatePayout(ctx, paypalsdk.Payout{
		SenderBatchHeader: &paypalsdk.SenderBatchHeader{
			SenderBatchID: payout.ID.String(),
			EmailSubject:  "You have a payout",
		},
		Items: []paypalsdk.PayoutItem{
			{
				RecipientType: "EMAIL",
				Receiver:      *vendor.PayPalEmail,
				Amount:        &paypalsdk.AmountPayout{Currency: "USD", Value: value},
				SenderItemID:  payout.ID.String(),
				Note:          "Vendor balance withdrawal",
			},
		},
	})
	if err != nil {
		if failErr := s.failPayout(ctx, payout.ID, err.Error(), true); failErr != nil {
			return failErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paypal payout")
	}

	batchID := ""
	if response.BatchHeader != nil {
		batchID = response.BatchHeader.PayoutBatchID
	}
	err = s.repo.Update(ctx, payout.ID, map[string]any{
		"status":         enums.PayoutStatusProcessing,
		"transaction_id": batchID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout processing")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payout_id": payout.ID.String(),
		"batch_id":  batchID,
	})
	s.logg.Info(logCtx, "paypal payout submitted")
	return nil
}

// HandleStripeEvent reconciles a verified Stripe webhook. A reversed transfer
// compensates the vendor's available balance with the full withdrawal amount.
func (s *service) HandleStripeEvent(ctx context.Context, input StripeWebhookInput) error {
	if input.EventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.EventType != stripeEventTransferReversed {
		return nil
	}
	if input.TransferID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}

	payout, err := s.repo.FindByTransactionID(ctx, input.TransferID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve transfer")
	}
	if payout == nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"transfer_id": input.TransferID,
		}), "stripe event references unknown transfer")
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		fresh, err := s.webhooks.WithTx(tx).RecordOnce(ctx, providerStripe, input.EventID, input.EventType, &payout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record webhook delivery")
		}
		if !fresh {
			return nil
		}
		return s.compensate(ctx, tx, payout.ID, "transfer reversed")
	})
}

// HandlePayPalEvent reconciles a payouts-item webhook against the payout row
// referenced by its batch id.
func (s *service) HandlePayPalEvent(ctx context.Context, input PayPalWebhookInput) error {
	if input.EventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	var succeeded bool
	switch input.EventType {
	case paypalEventItemSucceeded:
		succeeded = true
	case paypalEventItemFailed, paypalEventItemBlocked, paypalEventItemReturned, paypalEventItemDenied:
		succeeded = false
	default:
		return nil
	}
	if input.PayoutBatchID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout batch id required")
	}

	payout, err := s.repo.FindByTransactionID(ctx, input.PayoutBatchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payout batch")
	}
	if payout == nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"batch_id": input.PayoutBatchID,
		}), "paypal event references unknown batch")
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		fresh, err := s.webhooks.WithTx(tx).RecordOnce(ctx, providerPayPal, input.EventID, input.EventType, &payout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record webhook delivery")
		}
		if !fresh {
			return nil
		}
		if succeeded {
			return s.settlePayPal(ctx, tx, payout.ID)
		}
		return s.compensate(ctx, tx, payout.ID, fmt.Sprintf("paypal %s", input.EventType))
	})
}

func (s *service) settlePayPal(ctx context.Context, tx *gorm.DB, payoutID uuid.UUID) error {
	payout, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, payoutID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if payout.Status.IsFinal() {
		return nil
	}

	now := s.now().UTC()
	err = s.repo.WithTx(tx).Update(ctx, payout.ID, map[string]any{
		"status":       enums.PayoutStatusPaid,
		"completed_at": now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout paid")
	}
	if err := s.vendors.WithTx(tx).AddBalances(ctx, payout.VendorID, 0, 0, payout.AmountCents); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit paid balance")
	}
	if _, err := s.earnings.WithTx(tx).MarkPaidOut(ctx, payout.VendorID, payout.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag earnings paid out")
	}

	transactionID := ""
	if payout.TransactionID != nil {
		transactionID = *payout.TransactionID
	}
	err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPayoutPaid,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Version:       1,
		Data: payloads.PayoutPaidEvent{
			PayoutID:      payout.ID,
			VendorID:      payout.VendorID,
			AmountCents:   payout.AmountCents,
			TransactionID: transactionID,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout paid")
	}
	return nil
}

// compensate marks the payout failed and puts the withdrawal amount back into
// the available balance. A payout that already settled as paid additionally
// has its paid balance rolled back.
func (s *service) compensate(ctx context.Context, tx *gorm.DB, payoutID uuid.UUID, reason string) error {
	payout, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, payoutID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if payout.Status == enums.PayoutStatusFailed || payout.Status == enums.PayoutStatusCancelled {
		return nil
	}

	paidDelta := int64(0)
	if payout.Status == enums.PayoutStatusPaid {
		paidDelta = -payout.AmountCents
	}

	err = s.repo.WithTx(tx).Update(ctx, payout.ID, map[string]any{
		"status":         enums.PayoutStatusFailed,
		"failure_reason": reason,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout failed")
	}
	if err := s.vendors.WithTx(tx).AddBalances(ctx, payout.VendorID, 0, payout.AmountCents, paidDelta); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore available balance")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPayoutFailed,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Version:       1,
		Data: payloads.PayoutFailedEvent{
			PayoutID:    payout.ID,
			VendorID:    payout.VendorID,
			AmountCents: payout.AmountCents,
			Reason:      reason,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout failed")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payout_id": payout.ID.String(),
		"reason":    reason,
	})
	s.logg.Info(logCtx, "payout compensated")
	return nil
}

// failPayout handles a synchronous provider rejection: the payout row flips to
// failed and, when restore is set, the reserved amount returns to available.
func (s *service) failPayout(ctx context.Context, payoutID uuid.UUID, reason string, restore bool) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, payoutID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		err = s.repo.WithTx(tx).Update(ctx, payout.ID, map[string]any{
			"status":         enums.PayoutStatusFailed,
			"failure_reason": reason,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout failed")
		}
		if restore {
			if err := s.vendors.WithTx(tx).AddBalances(ctx, payout.VendorID, 0, payout.AmountCents, 0); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore available balance")
			}
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutFailed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutFailedEvent{
				PayoutID:    payout.ID,
				VendorID:    payout.VendorID,
				AmountCents: payout.AmountCents,
				Reason:      reason,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout failed")
		}
		return nil
	})
}

func (s *service) ListVendorPayouts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	list, err := s.repo.List(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return list, nil
}
