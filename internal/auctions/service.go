package auctions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/internal/vendors"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes auction reads and vendor-facing policy configuration.
type Service interface {
	Get(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error)
	UpdateEndPolicy(ctx context.Context, input UpdateEndPolicyInput) (*models.Auction, error)
}

type service struct {
	repo    Repository
	vendors vendors.Repository
	tx      txRunner
}

// NewService builds the auction service with the required dependencies.
func NewService(repo Repository, vendorRepo vendors.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auctions repository required")
	}
	if vendorRepo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, vendors: vendorRepo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	auction, err := s.repo.FindByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	return auction, nil
}

func (s *service) UpdateEndPolicy(ctx context.Context, input UpdateEndPolicyInput) (*models.Auction, error) {
	if input.AuctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.OnNoSale.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid on_no_sale action")
	}
	if !input.ConvertPriceSource.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid convert price source")
	}
	if input.RelistDelayHours < 0 || input.RelistMaxCount < 0 || input.ConvertMarkupBps < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "policy values must be non-negative")
	}

	var updated *models.Auction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		auction, err := repo.FindByIDForUpdate(ctx, input.AuctionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
		}

		if err := s.authorizeVendor(ctx, tx, auction.VendorID, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}

		switch auction.Status {
		case enums.AuctionStatusEndedSold, enums.AuctionStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "end policy cannot change after the auction is settled")
		}

		updates := map[string]any{
			"on_no_sale":           input.OnNoSale,
			"relist_delay_hours":   input.RelistDelayHours,
			"relist_max_count":     input.RelistMaxCount,
			"convert_price_source": input.ConvertPriceSource,
			"convert_markup_bps":   input.ConvertMarkupBps,
		}
		// Reconfiguring the policy on an already-unsold auction reschedules
		// or cancels the pending automatic run.
		if auction.Status.IsUnsold() {
			if input.OnNoSale == enums.NoSaleActionNone {
				updates["policy_run_after"] = nil
			} else if auction.EndedAt != nil {
				runAfter := auction.EndedAt.Add(time.Duration(input.RelistDelayHours) * time.Hour)
				updates["policy_run_after"] = runAfter
			}
		}

		if err := repo.Update(ctx, auction.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update end policy")
		}

		updated, err = repo.FindByID(ctx, auction.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload auction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) authorizeVendor(ctx context.Context, tx *gorm.DB, vendorID, actorUserID uuid.UUID, role enums.ActorRole) error {
	if role == enums.ActorRoleAdmin {
		return nil
	}
	vendor, err := s.vendors.WithTx(tx).FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor.OwnerUserID != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "auction does not belong to vendor")
	}
	return nil
}
