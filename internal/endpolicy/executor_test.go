package endpolicy

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/auctions"
	"github.com/bindery-hq/bindery-backend/internal/catalog"
	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAuctionsRepo struct {
	auction *models.Auction
	created *models.Auction
	updates map[string]any
}

func (s *stubAuctionsRepo) WithTx(tx *gorm.DB) auctions.Repository { return s }

func (s *stubAuctionsRepo) Create(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	if auction.ID == uuid.Nil {
		auction.ID = uuid.New()
	}
	s.created = auction
	return auction, nil
}

func (s *stubAuctionsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	if s.auction == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.auction, nil
}

func (s *stubAuctionsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	return s.FindByID(ctx, id)
}

func (s *stubAuctionsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updates == nil {
		s.updates = map[string]any{}
	}
	for key, value := range updates {
		s.updates[key] = value
	}
	return nil
}

func (s *stubAuctionsRepo) ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error) {
	panic("not implemented")
}

func (s *stubAuctionsRepo) ListPolicyDue(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error) {
	panic("not implemented")
}

type stubCatalogRepo struct {
	item           *catalog.Item
	publishedPrice *int64
	archived       bool
	lockedUntil    *time.Time
}

func (s *stubCatalogRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubCatalogRepo) Find(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID) (*catalog.Item, error) {
	if s.item == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func (s *stubCatalogRepo) PublishAtPrice(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, priceCents int64) error {
	s.publishedPrice = &priceCents
	return nil
}

func (s *stubCatalogRepo) Archive(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID) error {
	s.archived = true
	return nil
}

func (s *stubCatalogRepo) LockUntil(ctx context.Context, kind enums.AuctionableKind, id uuid.UUID, until time.Time) error {
	s.lockedUntil = &until
	return nil
}

type stubVendorsRepo struct {
	vendor *models.Vendor
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
	return nil
}

func (s *stubVendorsRepo) AddLifetimeSale(ctx context.Context, id uuid.UUID, amountCents int64) error {
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

func unsoldAuction(vendorID uuid.UUID) *models.Auction {
	now := time.Now().UTC()
	endedAt := now.Add(-time.Hour)
	return &models.Auction{
		ID:                 uuid.New(),
		AuctionableKind:    enums.AuctionableKindBook,
		AuctionableID:      uuid.New(),
		VendorID:           vendorID,
		StartingPriceCents: 5000,
		StartsAt:           now.Add(-72 * time.Hour),
		EndsAt:             endedAt,
		Status:             enums.AuctionStatusEndedNoBids,
		EndedAt:            &endedAt,
		PaymentWindowHours: 48,
	}
}

func sellableItem(auction *models.Auction) *catalog.Item {
	return &catalog.Item{
		Kind:          auction.AuctionableKind,
		ID:            auction.AuctionableID,
		VendorID:      auction.VendorID,
		Name:          "First edition",
		PriceCents:    9000,
		Quantity:      1,
		TrackQuantity: true,
		Status:        enums.CatalogItemStatusDraft,
	}
}

func newTestExecutor(t *testing.T, auctionRepo *stubAuctionsRepo, catalogRepo *stubCatalogRepo, vendorRepo *stubVendorsRepo, emitter *stubOutbox) *Executor {
	t.Helper()

	exec, err := NewExecutor(ExecutorParams{
		Auctions: auctionRepo,
		Catalog:  catalogRepo,
		Vendors:  vendorRepo,
		Tx:       stubTxRunner{},
		Outbox:   emitter,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("executor constructor failed: %v", err)
	}
	return exec
}

func TestRelistCreatesChainedRun(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	auctionRepo := &stubAuctionsRepo{auction: auction}
	catalogRepo := &stubCatalogRepo{item: sellableItem(auction)}
	emitter := &stubOutbox{}

	exec := newTestExecutor(t, auctionRepo, catalogRepo, &stubVendorsRepo{vendor: vendor}, emitter)

	created, err := exec.Relist(context.Background(), RelistInput{
		AuctionID:    auction.ID,
		Actor:        &Actor{UserID: owner, Role: enums.ActorRoleVendor},
		DurationDays: 3,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if created.RelistCount != 1 {
		t.Fatalf("expected relist count 1 got %d", created.RelistCount)
	}
	if created.ParentAuctionID == nil || *created.ParentAuctionID != auction.ID {
		t.Fatalf("new run must chain to the original auction")
	}
	if created.Status != enums.AuctionStatusActive {
		t.Fatalf("expected active status got %s", created.Status)
	}
	if got := created.EndsAt.Sub(created.StartsAt); got != 72*time.Hour {
		t.Fatalf("unexpected run duration %s", got)
	}
	if catalogRepo.lockedUntil == nil || !catalogRepo.lockedUntil.Equal(created.EndsAt) {
		t.Fatalf("item must stay locked until the new run ends")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAuctionRelisted {
		t.Fatalf("expected relisted event got %+v", emitter.events)
	}
}

func TestRelistPreservesParentChain(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	root := uuid.New()
	auction := unsoldAuction(vendor.ID)
	auction.ParentAuctionID = &root
	auction.RelistCount = 1
	auctionRepo := &stubAuctionsRepo{auction: auction}

	exec := newTestExecutor(t, auctionRepo, &stubCatalogRepo{item: sellableItem(auction)}, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	created, err := exec.Relist(context.Background(), RelistInput{
		AuctionID:    auction.ID,
		Actor:        &Actor{UserID: owner, Role: enums.ActorRoleVendor},
		DurationDays: 1,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if created.ParentAuctionID == nil || *created.ParentAuctionID != root {
		t.Fatalf("chain must keep pointing at the first run")
	}
	if created.RelistCount != 2 {
		t.Fatalf("expected relist count 2 got %d", created.RelistCount)
	}
}

func TestRelistLimitReached(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	auction.RelistMaxCount = 2
	auction.RelistCount = 2
	auctionRepo := &stubAuctionsRepo{auction: auction}

	exec := newTestExecutor(t, auctionRepo, &stubCatalogRepo{item: sellableItem(auction)}, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	_, err := exec.Relist(context.Background(), RelistInput{
		AuctionID:    auction.ID,
		Actor:        &Actor{UserID: owner, Role: enums.ActorRoleVendor},
		DurationDays: 3,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if auctionRepo.created != nil {
		t.Fatalf("no new auction may be created past the cap")
	}
}

func TestRelistOutOfStockRejected(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	item := sellableItem(auction)
	item.Quantity = 0

	exec := newTestExecutor(t, &stubAuctionsRepo{auction: auction}, &stubCatalogRepo{item: item}, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	_, err := exec.Relist(context.Background(), RelistInput{
		AuctionID:    auction.ID,
		Actor:        &Actor{UserID: owner, Role: enums.ActorRoleVendor},
		DurationDays: 3,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestConvertFixedFromReserveWithMarkup(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	reserve := int64(15000)
	auction.Status = enums.AuctionStatusEndedReserveNotMet
	auction.ReservePriceCents = &reserve
	auction.ConvertPriceSource = enums.ConvertPriceSourceReserve
	auction.ConvertMarkupBps = 1000
	auctionRepo := &stubAuctionsRepo{auction: auction}
	catalogRepo := &stubCatalogRepo{item: sellableItem(auction)}
	emitter := &stubOutbox{}

	exec := newTestExecutor(t, auctionRepo, catalogRepo, &stubVendorsRepo{vendor: vendor}, emitter)

	result, err := exec.ConvertFixed(context.Background(), ConvertInput{
		AuctionID: auction.ID,
		Actor:     &Actor{UserID: owner, Role: enums.ActorRoleVendor},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.PriceCents != 16500 {
		t.Fatalf("expected 16500 cents got %d", result.PriceCents)
	}
	if catalogRepo.publishedPrice == nil || *catalogRepo.publishedPrice != 16500 {
		t.Fatalf("item must be published at the marked-up price")
	}
	if auctionRepo.updates["status"] != enums.AuctionStatusCancelled {
		t.Fatalf("auction must be cancelled after conversion")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAuctionConverted {
		t.Fatalf("expected converted event got %+v", emitter.events)
	}
}

func TestConvertFixedManualRequiresPrice(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	auction.ConvertPriceSource = enums.ConvertPriceSourceManual

	exec := newTestExecutor(t, &stubAuctionsRepo{auction: auction}, &stubCatalogRepo{item: sellableItem(auction)}, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	_, err := exec.ConvertFixed(context.Background(), ConvertInput{
		AuctionID: auction.ID,
		Actor:     &Actor{UserID: owner, Role: enums.ActorRoleVendor},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestConvertFixedHighestBidFallsBackToStartingPrice(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	auction.ConvertPriceSource = enums.ConvertPriceSourceHighestBid
	catalogRepo := &stubCatalogRepo{item: sellableItem(auction)}

	exec := newTestExecutor(t, &stubAuctionsRepo{auction: auction}, catalogRepo, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	result, err := exec.ConvertFixed(context.Background(), ConvertInput{
		AuctionID: auction.ID,
		Actor:     &Actor{UserID: owner, Role: enums.ActorRoleVendor},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.PriceCents != auction.StartingPriceCents {
		t.Fatalf("expected starting price fallback got %d", result.PriceCents)
	}
}

func TestUnlistArchivesAndCancels(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	auctionRepo := &stubAuctionsRepo{auction: auction}
	catalogRepo := &stubCatalogRepo{item: sellableItem(auction)}
	emitter := &stubOutbox{}

	exec := newTestExecutor(t, auctionRepo, catalogRepo, &stubVendorsRepo{vendor: vendor}, emitter)

	result, err := exec.Unlist(context.Background(), UnlistInput{
		AuctionID: auction.ID,
		Actor:     &Actor{UserID: owner, Role: enums.ActorRoleVendor},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !catalogRepo.archived {
		t.Fatalf("item must be archived")
	}
	if auctionRepo.updates["status"] != enums.AuctionStatusCancelled {
		t.Fatalf("auction must be cancelled")
	}
	if result.ItemID != auction.AuctionableID {
		t.Fatalf("unexpected item in result")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAuctionUnlisted {
		t.Fatalf("expected unlisted event got %+v", emitter.events)
	}
}

func TestPolicyActionRejectsNonOwner(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: uuid.New()}
	auction := unsoldAuction(vendor.ID)

	exec := newTestExecutor(t, &stubAuctionsRepo{auction: auction}, &stubCatalogRepo{item: sellableItem(auction)}, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	_, err := exec.Unlist(context.Background(), UnlistInput{
		AuctionID: auction.ID,
		Actor:     &Actor{UserID: uuid.New(), Role: enums.ActorRoleVendor},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestPolicyActionRejectsActiveAuction(t *testing.T) {
	owner := uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: owner}
	auction := unsoldAuction(vendor.ID)
	auction.Status = enums.AuctionStatusActive

	exec := newTestExecutor(t, &stubAuctionsRepo{auction: auction}, &stubCatalogRepo{item: sellableItem(auction)}, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	_, err := exec.Unlist(context.Background(), UnlistInput{
		AuctionID: auction.ID,
		Actor:     &Actor{UserID: owner, Role: enums.ActorRoleVendor},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestRunAutomaticClearsScheduleOnDeadEnd(t *testing.T) {
	vendor := &models.Vendor{ID: uuid.New(), OwnerUserID: uuid.New()}
	auction := unsoldAuction(vendor.ID)
	auction.OnNoSale = enums.NoSaleActionRelist
	auctionRepo := &stubAuctionsRepo{auction: auction}
	// Item gone: the relist cannot ever succeed.
	catalogRepo := &stubCatalogRepo{}

	exec := newTestExecutor(t, auctionRepo, catalogRepo, &stubVendorsRepo{vendor: vendor}, &stubOutbox{})

	if err := exec.RunAutomatic(context.Background(), auction); err != nil {
		t.Fatalf("dead-end run must not surface an error, got %v", err)
	}
	cleared, ok := auctionRepo.updates["policy_run_after"]
	if !ok || cleared != nil {
		t.Fatalf("schedule must be cleared, got %+v", auctionRepo.updates)
	}
}
