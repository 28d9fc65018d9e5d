package enums

import "fmt"

// EarningStatus tracks whether a vendor earning has settled. Payout state is
// tracked separately by the paid_out flag on the earning row.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusCompleted EarningStatus = "completed"
	EarningStatusFailed    EarningStatus = "failed"
)

var validEarningStatuses = []EarningStatus{
	EarningStatusPending,
	EarningStatusCompleted,
	EarningStatusFailed,
}

// String implements fmt.Stringer.
func (e EarningStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EarningStatus.
func (e EarningStatus) IsValid() bool {
	for _, candidate := range validEarningStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEarningStatus converts raw input into an EarningStatus.
func ParseEarningStatus(value string) (EarningStatus, error) {
	for _, candidate := range validEarningStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earning status %q", value)
}

// TransactionType distinguishes how an earning was produced.
type TransactionType string

const (
	TransactionTypeSale        TransactionType = "sale"
	TransactionTypeAuctionSale TransactionType = "auction_sale"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeSale,
	TransactionTypeAuctionSale,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
