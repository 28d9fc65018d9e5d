package enums

import "fmt"

// CatalogItemStatus tracks the marketplace visibility of a catalog item.
type CatalogItemStatus string

const (
	CatalogItemStatusDraft     CatalogItemStatus = "draft"
	CatalogItemStatusPublished CatalogItemStatus = "published"
	CatalogItemStatusArchived  CatalogItemStatus = "archived"
)

var validCatalogItemStatuses = []CatalogItemStatus{
	CatalogItemStatusDraft,
	CatalogItemStatusPublished,
	CatalogItemStatusArchived,
}

// String implements fmt.Stringer.
func (s CatalogItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CatalogItemStatus.
func (s CatalogItemStatus) IsValid() bool {
	for _, candidate := range validCatalogItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCatalogItemStatus converts raw input into a CatalogItemStatus.
func ParseCatalogItemStatus(value string) (CatalogItemStatus, error) {
	for _, candidate := range validCatalogItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog item status %q", value)
}
