package outbox

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedOutboxEvent(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType, aggregateID uuid.UUID, createdAt time.Time) *models.OutboxEvent {
	t.Helper()

	event := &models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateAuction,
		AggregateID:   aggregateID,
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func TestRepositoryExistsTx(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	aggregateID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedOutboxEvent(t, db, enums.EventAuctionEnded, aggregateID, base)

	exists, err := repo.ExistsTx(db, enums.EventAuctionEnded, enums.AggregateAuction, aggregateID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsTx(db, enums.EventAuctionEnded, enums.AggregateAuction, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsTx(db, enums.EventAuctionWon, enums.AggregateAuction, aggregateID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.ExistsTx(nil, enums.EventAuctionEnded, enums.AggregateAuction, aggregateID)
	require.Error(t, err)
}

func TestRepositoryFetchUnpublishedForPublish(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Truncate(time.Second)

	second := seedOutboxEvent(t, db, enums.EventBidPlaced, uuid.New(), base)
	first := seedOutboxEvent(t, db, enums.EventAuctionEnded, uuid.New(), base.Add(-time.Minute))

	published := seedOutboxEvent(t, db, enums.EventAuctionWon, uuid.New(), base.Add(-2*time.Minute))
	require.NoError(t, db.Model(published).Update("published_at", base).Error)

	exhausted := seedOutboxEvent(t, db, enums.EventPayoutRequested, uuid.New(), base.Add(-3*time.Minute))
	require.NoError(t, db.Model(exhausted).Update("attempt_count", 10).Error)

	rows, err := repo.FetchUnpublishedForPublish(db, 50, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestRepositoryMarkPublishedTx(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Truncate(time.Second)

	event := seedOutboxEvent(t, db, enums.EventBidPlaced, uuid.New(), base)
	require.NoError(t, repo.MarkPublishedTx(db, event.ID))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	require.NotNil(t, row.PublishedAt)

	rows, err := repo.FetchUnpublishedForPublish(db, 50, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryMarkFailedTxIncrementsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Truncate(time.Second)

	event := seedOutboxEvent(t, db, enums.EventBidPlaced, uuid.New(), base)
	require.NoError(t, repo.MarkFailedTx(db, event.ID, errors.New("topic unavailable")))
	require.NoError(t, repo.MarkFailedTx(db, event.ID, errors.New("topic unavailable")))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, 2, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "topic unavailable", *row.LastError)
}

func TestRepositoryMarkTerminalTxStopsRedelivery(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Truncate(time.Second)

	event := seedOutboxEvent(t, db, enums.EventBidPlaced, uuid.New(), base)
	require.NoError(t, repo.MarkTerminalTx(db, event.ID, errors.New("unknown event type"), 10))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", event.ID).Error)
	assert.Equal(t, 10, row.AttemptCount)
	assert.Nil(t, row.PublishedAt)

	rows, err := repo.FetchUnpublishedForPublish(db, 50, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
