package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateAuction      OutboxAggregateType = "auction"
	AggregateBid          OutboxAggregateType = "auction_bid"
	AggregateEarning      OutboxAggregateType = "vendor_earning"
	AggregatePayout       OutboxAggregateType = "vendor_payout"
	AggregateCatalogItem  OutboxAggregateType = "catalog_item"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateAuction,
	AggregateBid,
	AggregateEarning,
	AggregatePayout,
	AggregateCatalogItem,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBidPlaced            OutboxEventType = "bid_placed"
	EventBidderOutbid         OutboxEventType = "bidder_outbid"
	EventAuctionEnded         OutboxEventType = "auction_ended"
	EventAuctionWon           OutboxEventType = "auction_won"
	EventAuctionRelisted      OutboxEventType = "auction_relisted"
	EventAuctionConverted     OutboxEventType = "auction_converted"
	EventAuctionUnlisted      OutboxEventType = "auction_unlisted"
	EventEarningRecorded      OutboxEventType = "earning_recorded"
	EventEarningSettled       OutboxEventType = "earning_settled"
	EventPayoutRequested      OutboxEventType = "payout_requested"
	EventPayoutPaid           OutboxEventType = "payout_paid"
	EventPayoutFailed         OutboxEventType = "payout_failed"
	EventOrderPaid            OutboxEventType = "order_paid"
	EventOrderDelivered       OutboxEventType = "order_delivered"
	EventNotificationRequired OutboxEventType = "notification_required"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBidPlaced,
	EventBidderOutbid,
	EventAuctionEnded,
	EventAuctionWon,
	EventAuctionRelisted,
	EventAuctionConverted,
	EventAuctionUnlisted,
	EventEarningRecorded,
	EventEarningSettled,
	EventPayoutRequested,
	EventPayoutPaid,
	EventPayoutFailed,
	EventOrderPaid,
	EventOrderDelivered,
	EventNotificationRequired,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
