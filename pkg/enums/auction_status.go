package enums

import "fmt"

// AuctionStatus tracks the lifecycle of an auction.
type AuctionStatus string

const (
	AuctionStatusUpcoming           AuctionStatus = "upcoming"
	AuctionStatusActive             AuctionStatus = "active"
	AuctionStatusEndedNoBids        AuctionStatus = "ended_no_bids"
	AuctionStatusEndedReserveNotMet AuctionStatus = "ended_reserve_not_met"
	AuctionStatusEndedSold          AuctionStatus = "ended_sold"
	AuctionStatusCancelled          AuctionStatus = "cancelled"
)

var validAuctionStatuses = []AuctionStatus{
	AuctionStatusUpcoming,
	AuctionStatusActive,
	AuctionStatusEndedNoBids,
	AuctionStatusEndedReserveNotMet,
	AuctionStatusEndedSold,
	AuctionStatusCancelled,
}

// String implements fmt.Stringer.
func (a AuctionStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuctionStatus.
func (a AuctionStatus) IsValid() bool {
	for _, candidate := range validAuctionStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (a AuctionStatus) IsTerminal() bool {
	switch a {
	case AuctionStatusEndedNoBids, AuctionStatusEndedReserveNotMet, AuctionStatusEndedSold, AuctionStatusCancelled:
		return true
	}
	return false
}

// IsUnsold reports whether the auction terminated without a sale. End-of-auction
// policies (relist, convert, unlist) only apply to these states.
func (a AuctionStatus) IsUnsold() bool {
	switch a {
	case AuctionStatusEndedNoBids, AuctionStatusEndedReserveNotMet, AuctionStatusCancelled:
		return true
	}
	return false
}

// ParseAuctionStatus converts raw input into an AuctionStatus.
func ParseAuctionStatus(value string) (AuctionStatus, error) {
	for _, candidate := range validAuctionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auction status %q", value)
}
