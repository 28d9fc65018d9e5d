package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
)

type fakeAuctionReader struct {
	expired    []models.Auction
	due        []models.Auction
	lastCutoff time.Time
	lastLimit  int
	err        error
}

func (f *fakeAuctionReader) ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error) {
	f.lastCutoff = cutoff
	f.lastLimit = limit
	return f.expired, f.err
}

func (f *fakeAuctionReader) ListPolicyDue(ctx context.Context, cutoff time.Time, limit int) ([]models.Auction, error) {
	f.lastCutoff = cutoff
	f.lastLimit = limit
	return f.due, f.err
}

type fakeResolver struct {
	resolved []uuid.UUID
	failOn   uuid.UUID
}

func (f *fakeResolver) Resolve(ctx context.Context, auctionID uuid.UUID) error {
	if auctionID == f.failOn {
		return errors.New("resolution failed")
	}
	f.resolved = append(f.resolved, auctionID)
	return nil
}

func newExpiryJob(t *testing.T, reader *fakeAuctionReader, res *fakeResolver) *expiryJob {
	t.Helper()

	jobIface, err := NewExpiryJob(ExpiryJobParams{
		Logger:    testLogger(),
		Reader:    reader,
		Resolver:  res,
		BatchSize: 50,
	})
	if err != nil {
		t.Fatalf("NewExpiryJob: %v", err)
	}
	return jobIface.(*expiryJob)
}

func TestExpiryJobResolvesBatch(t *testing.T) {
	reader := &fakeAuctionReader{expired: []models.Auction{
		{ID: uuid.New()},
		{ID: uuid.New()},
	}}
	res := &fakeResolver{}
	job := newExpiryJob(t, reader, res)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.resolved) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(res.resolved))
	}
	if !reader.lastCutoff.Equal(now) {
		t.Fatalf("cutoff must be the sweep time, got %s", reader.lastCutoff)
	}
	if reader.lastLimit != 50 {
		t.Fatalf("expected batch size 50, got %d", reader.lastLimit)
	}
}

func TestExpiryJobContinuesPastFailures(t *testing.T) {
	bad := uuid.New()
	good := uuid.New()
	reader := &fakeAuctionReader{expired: []models.Auction{{ID: bad}, {ID: good}}}
	res := &fakeResolver{failOn: bad}
	job := newExpiryJob(t, reader, res)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if len(res.resolved) != 1 || res.resolved[0] != good {
		t.Fatalf("remaining auctions must still resolve, got %v", res.resolved)
	}
}

func TestExpiryJobPropagatesListError(t *testing.T) {
	reader := &fakeAuctionReader{err: errors.New("db down")}
	job := newExpiryJob(t, reader, &fakeResolver{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
