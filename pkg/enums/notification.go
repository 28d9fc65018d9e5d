package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOutbid          NotificationType = "outbid"
	NotificationTypeAuctionWon      NotificationType = "auction_won"
	NotificationTypeAuctionEnded    NotificationType = "auction_ended"
	NotificationTypeEarningRecorded NotificationType = "earning_recorded"
	NotificationTypeEarningSettled  NotificationType = "earning_settled"
	NotificationTypePayoutPaid      NotificationType = "payout_paid"
	NotificationTypePayoutFailed    NotificationType = "payout_failed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOutbid,
	NotificationTypeAuctionWon,
	NotificationTypeAuctionEnded,
	NotificationTypeEarningRecorded,
	NotificationTypeEarningSettled,
	NotificationTypePayoutPaid,
	NotificationTypePayoutFailed,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
