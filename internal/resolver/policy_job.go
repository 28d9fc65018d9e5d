package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
)

type policyDueReader interface {
	ListPolicyDue(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error)
}

type policyRunner interface {
	RunAutomatic(ctx context.Context, auction *models.Auction) error
}

// PolicyJobParams configure the end-policy sweep.
type PolicyJobParams struct {
	Logger    *logger.Logger
	Reader    policyDueReader
	Executor  policyRunner
	BatchSize int
}

// NewPolicyJob builds the sweep that executes deferred end policies once
// policy_run_after passes. The executor clears the schedule on dead-end runs,
// so a row only reappears here while it is still actionable.
func NewPolicyJob(params PolicyJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("auction reader required")
	}
	if params.Executor == nil {
		return nil, fmt.Errorf("policy executor required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &policyJob{
		logg:      params.Logger,
		reader:    params.Reader,
		executor:  params.Executor,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type policyJob struct {
	logg      *logger.Logger
	reader    policyDueReader
	executor  policyRunner
	batchSize int
	now       func() time.Time
}

func (j *policyJob) Name() string { return "end-policy" }

func (j *policyJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	auctions, err := j.reader.ListPolicyDue(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("list policy-due auctions: %w", err)
	}

	var errs []error
	executed := 0
	for i := range auctions {
		auction := auctions[i]
		if err := j.executor.RunAutomatic(ctx, &auction); err != nil {
			errs = append(errs, fmt.Errorf("run end policy for auction %s: %w", auction.ID, err))
			continue
		}
		executed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":      len(auctions),
		"executed": executed,
		"failed":   len(errs),
	})
	j.logg.Info(logCtx, "end policy sweep complete")
	return multierr.Combine(errs...)
}
