package earnings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/pkg/enums"
	"github.com/bindery-hq/bindery-backend/pkg/logger"
	"github.com/bindery-hq/bindery-backend/pkg/outbox"
	"github.com/bindery-hq/bindery-backend/pkg/outbox/payloads"
)

const earningsConsumerName = "earnings"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer feeds order lifecycle events from the orders subsystem into the
// earnings ledger while honoring Redis idempotency.
type Consumer struct {
	service Service
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds a new earnings consumer.
func NewConsumer(service Service, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, fmt.Errorf("earnings service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{service: service, manager: manager, logg: logg}, nil
}

// Process applies one order event. The ledger operations are idempotent on
// their own, so the Redis check is only a fast path; a lost marker is safe.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	switch eventType {
	case enums.EventOrderPaid, enums.EventOrderDelivered:
	default:
		c.logg.Info(logCtx, "event not handled by earnings consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, earningsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	switch eventType {
	case enums.EventOrderPaid:
		err = c.handleOrderPaid(ctx, envelope)
	case enums.EventOrderDelivered:
		err = c.handleOrderDelivered(ctx, envelope)
	}
	if err != nil {
		c.logg.Error(logCtx, "failed to apply order event", err)
		_ = c.manager.Delete(ctx, earningsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "order event applied to earnings ledger")
	return nil
}

func (c *Consumer) handleOrderPaid(ctx context.Context, envelope outbox.PayloadEnvelope) error {
	var payload payloads.OrderPaidEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return fmt.Errorf("decode order paid payload: %w", err)
	}

	transactionType := enums.TransactionTypeSale
	if payload.AuctionID != nil {
		transactionType = enums.TransactionTypeAuctionSale
	}

	_, err := c.service.RecordSaleCommission(ctx, RecordSaleInput{
		OrderID:         payload.OrderID,
		OrderLineID:     payload.OrderLineID,
		VendorID:        payload.VendorID,
		AmountCents:     payload.AmountCents,
		TransactionType: transactionType,
	})
	return err
}

func (c *Consumer) handleOrderDelivered(ctx context.Context, envelope outbox.PayloadEnvelope) error {
	var payload payloads.OrderDeliveredEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return fmt.Errorf("decode order delivered payload: %w", err)
	}
	return c.service.SettleOnDelivery(ctx, payload.OrderID)
}
