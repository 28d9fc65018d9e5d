package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
)

// Repository defines persistence operations for auction rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, auction *models.Auction) (*models.Auction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	// FindByIDForUpdate takes a row lock on the auction. Every write that
	// participates in the bid or resolution sequence goes through this lock
	// so check-then-act sequences serialize per auction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// ListExpiredActive returns active auctions whose ends_at has passed.
	ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error)
	// ListPolicyDue returns unsold auctions whose deferred end-policy run is due.
	ListPolicyDue(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error)
}
