package earnings

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/config"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubEarningsRepo struct {
	existing *models.VendorEarning
	created  *models.VendorEarning
	pending  []models.VendorEarning
	updates  map[uuid.UUID]map[string]any
}

func (s *stubEarningsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubEarningsRepo) Create(ctx context.Context, earning *models.VendorEarning) (*models.VendorEarning, error) {
	if earning.ID == uuid.Nil {
		earning.ID = uuid.New()
	}
	s.created = earning
	return earning, nil
}

func (s *stubEarningsRepo) FindByOrderLine(ctx context.Context, orderID uuid.UUID, orderLineID *uuid.UUID) (*models.VendorEarning, error) {
	return s.existing, nil
}

func (s *stubEarningsRepo) ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorEarning, error) {
	return s.pending, nil
}

func (s *stubEarningsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updates == nil {
		s.updates = map[uuid.UUID]map[string]any{}
	}
	s.updates[id] = updates
	return nil
}

func (s *stubEarningsRepo) MarkPaidOut(ctx context.Context, vendorID, payoutID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubEarningsRepo) List(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*EarningList, error) {
	return &EarningList{}, nil
}

type balanceMove struct {
	pending, available, paid int64
}

type stubVendorsRepo struct {
	vendor *models.Vendor
	moves  []balanceMove
	sales  int
}

func (s *stubVendorsRepo) WithTx(tx *gorm.DB) vendors.Repository { return s }

func (s *stubVendorsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	if s.vendor == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vendor, nil
}

func (s *stubVendorsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return s.FindByID(ctx, id)
}

func (s *stubVendorsRepo) AddBalances(ctx context.Context, id uuid.UUID, pendingDelta, availableDelta, paidDelta int64) error {
	s.moves = append(s.moves, balanceMove{pendingDelta, availableDelta, paidDelta})
	return nil
}

func (s *stubVendorsRepo) AddLifetimeSale(ctx context.Context, id uuid.UUID, amountCents int64) error {
	s.sales++
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo *stubEarningsRepo, vendorRepo *stubVendorsRepo, emitter *stubOutbox) Service {
	t.Helper()

	svc, err := NewService(
		repo,
		vendorRepo,
		stubTxRunner{},
		emitter,
		config.EarningsConfig{DefaultCommissionRateBps: 800},
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestRecordSaleCommissionDefaultRate(t *testing.T) {
	repo := &stubEarningsRepo{}
	vendorRepo := &stubVendorsRepo{vendor: &models.Vendor{ID: uuid.New(), OwnerUserID: uuid.New()}}
	emitter := &stubOutbox{}
	svc := newTestService(t, repo, vendorRepo, emitter)

	earning, err := svc.RecordSaleCommission(context.Background(), RecordSaleInput{
		OrderID:         uuid.New(),
		VendorID:        vendorRepo.vendor.ID,
		AmountCents:     10000,
		TransactionType: enums.TransactionTypeAuctionSale,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earning.PlatformFeeCents != 800 || earning.NetAmountCents != 9200 {
		t.Fatalf("unexpected split fee=%d net=%d", earning.PlatformFeeCents, earning.NetAmountCents)
	}
	if earning.PlatformFeeCents+earning.NetAmountCents != earning.AmountCents {
		t.Fatalf("fee and net must reassemble gross")
	}
	if len(vendorRepo.moves) != 1 || vendorRepo.moves[0].pending != 9200 {
		t.Fatalf("pending balance must be credited with net, got %+v", vendorRepo.moves)
	}
	if vendorRepo.sales != 1 {
		t.Fatalf("lifetime counters must be bumped once")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventEarningRecorded {
		t.Fatalf("expected earning recorded event got %+v", emitter.events)
	}
}

func TestRecordSaleCommissionVendorOverrideRate(t *testing.T) {
	rate := 1250
	vendorRepo := &stubVendorsRepo{vendor: &models.Vendor{
		ID:                uuid.New(),
		OwnerUserID:       uuid.New(),
		CommissionRateBps: &rate,
	}}
	svc := newTestService(t, &stubEarningsRepo{}, vendorRepo, &stubOutbox{})

	earning, err := svc.RecordSaleCommission(context.Background(), RecordSaleInput{
		OrderID:         uuid.New(),
		VendorID:        vendorRepo.vendor.ID,
		AmountCents:     10000,
		TransactionType: enums.TransactionTypeSale,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earning.PlatformFeeCents != 1250 {
		t.Fatalf("expected vendor rate applied got fee %d", earning.PlatformFeeCents)
	}
}

func TestRecordSaleCommissionRoundsToCents(t *testing.T) {
	vendorRepo := &stubVendorsRepo{vendor: &models.Vendor{ID: uuid.New(), OwnerUserID: uuid.New()}}
	svc := newTestService(t, &stubEarningsRepo{}, vendorRepo, &stubOutbox{})

	// 8% of 3333 cents is 266.64; half-up rounding gives 267.
	earning, err := svc.RecordSaleCommission(context.Background(), RecordSaleInput{
		OrderID:         uuid.New(),
		VendorID:        vendorRepo.vendor.ID,
		AmountCents:     3333,
		TransactionType: enums.TransactionTypeSale,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earning.PlatformFeeCents != 267 || earning.NetAmountCents != 3066 {
		t.Fatalf("unexpected split fee=%d net=%d", earning.PlatformFeeCents, earning.NetAmountCents)
	}
}

func TestRecordSaleCommissionReplayReturnsExisting(t *testing.T) {
	existing := &models.VendorEarning{
		ID:             uuid.New(),
		VendorID:       uuid.New(),
		OrderID:        uuid.New(),
		AmountCents:    10000,
		NetAmountCents: 9200,
	}
	repo := &stubEarningsRepo{existing: existing}
	vendorRepo := &stubVendorsRepo{vendor: &models.Vendor{ID: existing.VendorID}}
	emitter := &stubOutbox{}
	svc := newTestService(t, repo, vendorRepo, emitter)

	earning, err := svc.RecordSaleCommission(context.Background(), RecordSaleInput{
		OrderID:         existing.OrderID,
		VendorID:        existing.VendorID,
		AmountCents:     10000,
		TransactionType: enums.TransactionTypeSale,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if earning.ID != existing.ID {
		t.Fatalf("replay must return the original row")
	}
	if repo.created != nil || len(vendorRepo.moves) != 0 || len(emitter.events) != 0 {
		t.Fatalf("replay must not mutate anything")
	}
}

func TestSettleOnDeliveryMovesBalances(t *testing.T) {
	vendorID := uuid.New()
	orderID := uuid.New()
	repo := &stubEarningsRepo{pending: []models.VendorEarning{
		{ID: uuid.New(), VendorID: vendorID, OrderID: orderID, NetAmountCents: 9200, Status: enums.EarningStatusPending},
		{ID: uuid.New(), VendorID: vendorID, OrderID: orderID, NetAmountCents: 1800, Status: enums.EarningStatusPending},
	}}
	vendorRepo := &stubVendorsRepo{vendor: &models.Vendor{ID: vendorID}}
	emitter := &stubOutbox{}
	svc := newTestService(t, repo, vendorRepo, emitter)

	if err := svc.SettleOnDelivery(context.Background(), orderID); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(vendorRepo.moves) != 2 {
		t.Fatalf("expected one balance move per earning got %d", len(vendorRepo.moves))
	}
	for i, move := range vendorRepo.moves {
		if move.pending != -move.available {
			t.Fatalf("move %d must shift pending to available, got %+v", i, move)
		}
	}
	if len(repo.updates) != 2 {
		t.Fatalf("both earnings must be completed")
	}
	for _, updates := range repo.updates {
		if updates["status"] != enums.EarningStatusCompleted {
			t.Fatalf("unexpected status update %+v", updates)
		}
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected a settled event per earning got %d", len(emitter.events))
	}
}

func TestSettleOnDeliverySecondCallNoOp(t *testing.T) {
	repo := &stubEarningsRepo{}
	vendorRepo := &stubVendorsRepo{vendor: &models.Vendor{ID: uuid.New()}}
	emitter := &stubOutbox{}
	svc := newTestService(t, repo, vendorRepo, emitter)

	if err := svc.SettleOnDelivery(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected no-op success got %v", err)
	}
	if len(vendorRepo.moves) != 0 || len(emitter.events) != 0 {
		t.Fatalf("nothing may move when no earnings are pending")
	}
}

func TestRecordSaleCommissionRejectsBadInput(t *testing.T) {
	svc := newTestService(t, &stubEarningsRepo{}, &stubVendorsRepo{}, &stubOutbox{})

	_, err := svc.RecordSaleCommission(context.Background(), RecordSaleInput{
		OrderID:         uuid.New(),
		VendorID:        uuid.New(),
		AmountCents:     0,
		TransactionType: enums.TransactionTypeSale,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCommissionFeeZeroRate(t *testing.T) {
	if fee := commissionFee(10000, 0); fee != 0 {
		t.Fatalf("zero rate must yield zero fee, got %d", fee)
	}
	if fee := commissionFee(1, 800); fee != 0 {
		t.Fatalf("8%% of one cent rounds to zero, got %d", fee)
	}
}
