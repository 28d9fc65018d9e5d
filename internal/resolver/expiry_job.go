package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

const defaultBatchSize = 100

type expiredAuctionReader interface {
	ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error)
}

type auctionResolver interface {
	Resolve(ctx context.Context, auctionID uuid.UUID) error
}

// ExpiryJobParams configure the expired-auction sweep.
type ExpiryJobParams struct {
	Logger    *logger.Logger
	Reader    expiredAuctionReader
	Resolver  auctionResolver
	BatchSize int
}

// NewExpiryJob builds the sweep that finalizes auctions past ends_at. Each
// auction resolves in its own transaction; one failure never blocks the rest
// of the batch.
func NewExpiryJob(params ExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("auction reader required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("auction resolver required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &expiryJob{
		logg:      params.Logger,
		reader:    params.Reader,
		resolver:  params.Resolver,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type expiryJob struct {
	logg      *logger.Logger
	reader    expiredAuctionReader
	resolver  auctionResolver
	batchSize int
	now       func() time.Time
}

func (j *expiryJob) Name() string { return "auction-expiry" }

func (j *expiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	auctions, err := j.reader.ListExpiredActive(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("list expired auctions: %w", err)
	}

	var errs []error
	resolved := 0
	for _, auction := range auctions {
		if err := j.resolver.Resolve(ctx, auction.ID); err != nil {
			errs = append(errs, fmt.Errorf("resolve auction %s: %w", auction.ID, err))
			continue
		}
		resolved++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":  len(auctions),
		"resolved": resolved,
		"failed":   len(errs),
	})
	j.logg.Info(logCtx, "auction expiry sweep complete")
	return multierr.Combine(errs...)
}
