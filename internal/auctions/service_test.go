package auctions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
)

type policyStubVendors struct {
	vendor *models.Vendor
}

func (s *policyStubVendors) WithTx(tx *gorm.DB) vendors.Repository { return s }

func (s *policyStubVendors) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	if s.vendor == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vendor, nil
}

func (s *policyStubVendors) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return s.FindByID(ctx, id)
}

func (s *policyStubVendors) AddBalances(ctx context.Context, id uuid.UUID, pendingDelta, availableDelta, paidDelta int64) error {
	panic("not implemented")
}

func (s *policyStubVendors) AddLifetimeSale(ctx context.Context, id uuid.UUID, amountCents int64) error {
	panic("not implemented")
}

func policyInput(auction *models.Auction, owner uuid.UUID) UpdateEndPolicyInput {
	return UpdateEndPolicyInput{
		AuctionID:          auction.ID,
		ActorUserID:        owner,
		ActorRole:          enums.ActorRoleVendor,
		OnNoSale:           enums.NoSaleActionConvertFixed,
		RelistDelayHours:   12,
		RelistMaxCount:     3,
		ConvertPriceSource: enums.ConvertPriceSourceHighestBid,
		ConvertMarkupBps:   500,
	}
}

func newPolicyService(t *testing.T, repo *resolverStubRepo, owner uuid.UUID, vendorID uuid.UUID) Service {
	t.Helper()

	svc, err := NewService(repo, &policyStubVendors{vendor: &models.Vendor{
		ID:          vendorID,
		OwnerUserID: owner,
	}}, resolverStubTx{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestUpdateEndPolicyActiveAuction(t *testing.T) {
	owner := uuid.New()
	auction := expiredAuction(0, nil, nil)
	auction.EndsAt = time.Now().Add(time.Hour)
	repo := &resolverStubRepo{auction: auction}
	svc := newPolicyService(t, repo, owner, auction.VendorID)

	if _, err := svc.UpdateEndPolicy(context.Background(), policyInput(auction, owner)); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updates["on_no_sale"] != enums.NoSaleActionConvertFixed {
		t.Fatalf("policy action not persisted: %v", repo.updates)
	}
	if repo.updates["convert_markup_bps"] != 500 {
		t.Fatalf("markup not persisted: %v", repo.updates)
	}
	if _, rescheduled := repo.updates["policy_run_after"]; rescheduled {
		t.Fatalf("active auctions have no pending run to reschedule")
	}
}

func TestUpdateEndPolicyReschedulesUnsoldRun(t *testing.T) {
	owner := uuid.New()
	endedAt := time.Now().UTC().Add(-time.Hour)
	auction := expiredAuction(0, nil, nil)
	auction.Status = enums.AuctionStatusEndedNoBids
	auction.EndedAt = &endedAt
	repo := &resolverStubRepo{auction: auction}
	svc := newPolicyService(t, repo, owner, auction.VendorID)

	if _, err := svc.UpdateEndPolicy(context.Background(), policyInput(auction, owner)); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	runAfter, ok := repo.updates["policy_run_after"].(time.Time)
	if !ok {
		t.Fatalf("unsold auction must get a rescheduled run")
	}
	if got := runAfter.Sub(endedAt); got != 12*time.Hour {
		t.Fatalf("run must be ended_at plus the new delay, got %s", got)
	}
}

func TestUpdateEndPolicyNoneCancelsPendingRun(t *testing.T) {
	owner := uuid.New()
	endedAt := time.Now().UTC().Add(-time.Hour)
	auction := expiredAuction(0, nil, nil)
	auction.Status = enums.AuctionStatusEndedNoBids
	auction.EndedAt = &endedAt
	repo := &resolverStubRepo{auction: auction}
	svc := newPolicyService(t, repo, owner, auction.VendorID)

	input := policyInput(auction, owner)
	input.OnNoSale = enums.NoSaleActionNone
	if _, err := svc.UpdateEndPolicy(context.Background(), input); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	runAfter, present := repo.updates["policy_run_after"]
	if !present || runAfter != nil {
		t.Fatalf("switching to none must clear the pending run, got %v", repo.updates)
	}
}

func TestUpdateEndPolicyRejectsNonOwner(t *testing.T) {
	auction := expiredAuction(0, nil, nil)
	repo := &resolverStubRepo{auction: auction}
	svc := newPolicyService(t, repo, uuid.New(), auction.VendorID)

	_, err := svc.UpdateEndPolicy(context.Background(), policyInput(auction, uuid.New()))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestUpdateEndPolicyRejectsSoldAuction(t *testing.T) {
	owner := uuid.New()
	auction := expiredAuction(2, nil, nil)
	auction.Status = enums.AuctionStatusEndedSold
	repo := &resolverStubRepo{auction: auction}
	svc := newPolicyService(t, repo, owner, auction.VendorID)

	_, err := svc.UpdateEndPolicy(context.Background(), policyInput(auction, owner))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestUpdateEndPolicyValidatesValues(t *testing.T) {
	owner := uuid.New()
	auction := expiredAuction(0, nil, nil)
	svc := newPolicyService(t, &resolverStubRepo{auction: auction}, owner, auction.VendorID)

	input := policyInput(auction, owner)
	input.RelistDelayHours = -1
	_, err := svc.UpdateEndPolicy(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}
