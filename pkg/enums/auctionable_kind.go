package enums

import "fmt"

// AuctionableKind identifies which catalog table an auction targets. The
// reference is polymorphic: no foreign key, resolved by kind dispatch through
// the catalog service.
type AuctionableKind string

const (
	AuctionableKindBook    AuctionableKind = "book"
	AuctionableKindProduct AuctionableKind = "product"
)

var validAuctionableKinds = []AuctionableKind{
	AuctionableKindBook,
	AuctionableKindProduct,
}

// String implements fmt.Stringer.
func (k AuctionableKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known AuctionableKind.
func (k AuctionableKind) IsValid() bool {
	for _, candidate := range validAuctionableKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseAuctionableKind converts raw input into an AuctionableKind.
func ParseAuctionableKind(value string) (AuctionableKind, error) {
	for _, candidate := range validAuctionableKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auctionable kind %q", value)
}
