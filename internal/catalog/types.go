package catalog

import (
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// ListFilters narrow the catalog browse listing.
type ListFilters struct {
	Query string
	Stock enums.StockFilter
	Sort  enums.CatalogSort
}

// ListInput is a browse request. Non-admin callers only see active items.
type ListInput struct {
	Filters ListFilters
	IsAdmin bool
	Page    int
	Limit   int
}

// SaleFilters narrow the on-sale listing. Price bounds apply to the
// effective price.
type SaleFilters struct {
	Query         string
	Stock         enums.StockFilter
	Sort          enums.CatalogSort
	MinPriceCents *int
	MaxPriceCents *int
}

// SaleInput is an on-sale listing request.
type SaleInput struct {
	Filters SaleFilters
	Page    int
	Limit   int
}

// ListResult is one page of catalog items.
type ListResult struct {
	Items   []models.Item `json:"items"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	HasMore bool          `json:"has_more"`
}

// Detail is the item detail payload.
type Detail struct {
	Item     models.Item   `json:"item"`
	Metadata Metadata      `json:"metadata"`
	Related  []models.Item `json:"related"`
}

// listQuery is the repository-level form of a listing request.
type listQuery struct {
	query         string
	activeOnly    bool
	onSaleOnly    bool
	stock         enums.StockFilter
	sort          enums.CatalogSort
	minPriceCents *int
	maxPriceCents *int
	offset        int
	limit         int
}
