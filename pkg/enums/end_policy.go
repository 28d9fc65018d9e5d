package enums

import "fmt"

// NoSaleAction is the vendor-configured automatic action applied to an
// auction that ends unsold.
type NoSaleAction string

const (
	NoSaleActionNone         NoSaleAction = "none"
	NoSaleActionRelist       NoSaleAction = "relist_auction"
	NoSaleActionConvertFixed NoSaleAction = "convert_fixed"
	NoSaleActionUnlist       NoSaleAction = "unlist"
)

var validNoSaleActions = []NoSaleAction{
	NoSaleActionNone,
	NoSaleActionRelist,
	NoSaleActionConvertFixed,
	NoSaleActionUnlist,
}

// String implements fmt.Stringer.
func (a NoSaleAction) String() string {
	return string(a)
}

// HasAction reports whether the value names an automatic action. The zero
// value and "none" both mean no policy is configured.
func (a NoSaleAction) HasAction() bool {
	return a != "" && a != NoSaleActionNone
}

// IsValid reports whether the value is a known NoSaleAction.
func (a NoSaleAction) IsValid() bool {
	for _, candidate := range validNoSaleActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseNoSaleAction converts raw input into a NoSaleAction.
func ParseNoSaleAction(value string) (NoSaleAction, error) {
	for _, candidate := range validNoSaleActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid no-sale action %q", value)
}

// ConvertPriceSource selects where a convert-to-fixed-price action takes its
// target price from.
type ConvertPriceSource string

const (
	ConvertPriceSourceManual      ConvertPriceSource = "manual"
	ConvertPriceSourceReserve     ConvertPriceSource = "reserve"
	ConvertPriceSourceHighestBid  ConvertPriceSource = "highest_bid"
	ConvertPriceSourceStartingBid ConvertPriceSource = "starting_bid"
)

var validConvertPriceSources = []ConvertPriceSource{
	ConvertPriceSourceManual,
	ConvertPriceSourceReserve,
	ConvertPriceSourceHighestBid,
	ConvertPriceSourceStartingBid,
}

// String implements fmt.Stringer.
func (s ConvertPriceSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConvertPriceSource.
func (s ConvertPriceSource) IsValid() bool {
	for _, candidate := range validConvertPriceSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConvertPriceSource converts raw input into a ConvertPriceSource.
func ParseConvertPriceSource(value string) (ConvertPriceSource, error) {
	for _, candidate := range validConvertPriceSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid convert price source %q", value)
}
