package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the durable dedupe record for provider webhook deliveries.
// Providers redeliver events out of order; a balance compensation is applied
// only after the (provider, event id) pair inserts here for the first time.
type WebhookEvent struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Provider    string     `gorm:"column:provider;type:text;not null;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	EventID     string     `gorm:"column:event_id;type:text;not null;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType   string     `gorm:"column:event_type;type:text;not null"`
	PayoutID    *uuid.UUID `gorm:"column:payout_id;type:uuid"`
	ProcessedAt time.Time  `gorm:"column:processed_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
