package controllers

import (
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

const (
	maxSearchLen   = 200
	maxPriceFilter = 10_000_000
)

// CatalogList returns a page of the browse listing. Admins also see inactive
// items.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog service"))
			return
		}

		page, limit, err := parsePage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		stock, err := validators.ParseQueryEnum(r, "stock", stockFilterValues()...)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sort, err := validators.ParseQueryEnum(r, "sort",
			string(enums.CatalogSortNewest), string(enums.CatalogSortPriceLow),
			string(enums.CatalogSortPriceHigh), string(enums.CatalogSortName))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, catalog.ListInput{
			Filters: catalog.ListFilters{
				Query: validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLen),
				Stock: enums.StockFilter(stock),
				Sort:  enums.CatalogSort(sort),
			},
			IsAdmin: middleware.IsAdmin(ctx),
			Page:    page,
			Limit:   limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CatalogSale returns a page of active on-sale items.
func CatalogSale(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog service"))
			return
		}

		page, limit, err := parsePage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		stock, err := validators.ParseQueryEnum(r, "stock", stockFilterValues()...)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sort, err := validators.ParseQueryEnum(r, "sort",
			string(enums.CatalogSortDiscount), string(enums.CatalogSortPriceLow), string(enums.CatalogSortPriceHigh))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		minPrice, err := validators.ParseOptionalQueryInt(r, "min_price_cents", maxPriceFilter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		maxPrice, err := validators.ParseOptionalQueryInt(r, "max_price_cents", maxPriceFilter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListOnSale(ctx, catalog.SaleInput{
			Filters: catalog.SaleFilters{
				Query:         validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLen),
				Stock:         enums.StockFilter(stock),
				Sort:          enums.CatalogSort(sort),
				MinPriceCents: minPrice,
				MaxPriceCents: maxPrice,
			},
			Page:  page,
			Limit: limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CatalogDetail returns one item with its generated metadata and related
// books.
func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog service"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		detail, err := svc.Get(ctx, itemID, middleware.IsAdmin(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func parsePage(r *http.Request) (int, int, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10_000)
	if err != nil {
		return 0, 0, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func stockFilterValues() []string {
	return []string{
		string(enums.StockFilterAll),
		string(enums.StockFilterInStock),
		string(enums.StockFilterOutOfStock),
	}
}
