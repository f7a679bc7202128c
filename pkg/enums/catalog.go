package enums

import "fmt"

// CatalogSort selects the ordering of catalog listings.
type CatalogSort string

const (
	CatalogSortNewest    CatalogSort = "newest"
	CatalogSortPriceLow  CatalogSort = "price_low"
	CatalogSortPriceHigh CatalogSort = "price_high"
	CatalogSortName      CatalogSort = "name"
	CatalogSortDiscount  CatalogSort = "discount"
)

var validCatalogSorts = []CatalogSort{
	CatalogSortNewest,
	CatalogSortPriceLow,
	CatalogSortPriceHigh,
	CatalogSortName,
	CatalogSortDiscount,
}

// String implements fmt.Stringer.
func (s CatalogSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CatalogSort.
func (s CatalogSort) IsValid() bool {
	for _, candidate := range validCatalogSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCatalogSort converts raw input into a CatalogSort.
func ParseCatalogSort(value string) (CatalogSort, error) {
	for _, candidate := range validCatalogSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog sort %q", value)
}

// StockFilter narrows listings by stock level.
type StockFilter string

const (
	StockFilterAll        StockFilter = "all"
	StockFilterInStock    StockFilter = "in_stock"
	StockFilterOutOfStock StockFilter = "out_of_stock"
)

var validStockFilters = []StockFilter{
	StockFilterAll,
	StockFilterInStock,
	StockFilterOutOfStock,
}

// String implements fmt.Stringer.
func (s StockFilter) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockFilter.
func (s StockFilter) IsValid() bool {
	for _, candidate := range validStockFilters {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockFilter converts raw input into a StockFilter.
func ParseStockFilter(value string) (StockFilter, error) {
	for _, candidate := range validStockFilters {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock filter %q", value)
}
