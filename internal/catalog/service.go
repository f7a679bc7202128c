package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
	"github.com/angelmondragon/bookstore-backend/pkg/redis"
)

const (
	defaultRelatedWindow = 500
	defaultRelatedLimit  = 4
	defaultDetailTTL     = 5 * time.Minute
)

// Service exposes the read side of the catalog.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	ListOnSale(ctx context.Context, input SaleInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID, isAdmin bool) (*Detail, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// ServiceParams wires the catalog service dependencies. Cache is optional.
type ServiceParams struct {
	Repository    Repository
	Cache         redis.Cache
	Logger        *logger.Logger
	DetailTTL     time.Duration
	RelatedWindow int
	RelatedLimit  int
	Clock         func() time.Time
}

type service struct {
	repo          Repository
	cache         redis.Cache
	logg          *logger.Logger
	detailTTL     time.Duration
	relatedWindow int
	relatedLimit  int
	now           func() time.Time
	group         singleflight.Group
}

// NewService builds the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &service{
		repo:          params.Repository,
		cache:         params.Cache,
		logg:          params.Logger,
		detailTTL:     params.DetailTTL,
		relatedWindow: params.RelatedWindow,
		relatedLimit:  params.RelatedLimit,
		now:           params.Clock,
	}
	if svc.detailTTL <= 0 {
		svc.detailTTL = defaultDetailTTL
	}
	if svc.relatedWindow <= 0 {
		svc.relatedWindow = defaultRelatedWindow
	}
	if svc.relatedLimit <= 0 {
		svc.relatedLimit = defaultRelatedLimit
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	stock := input.Filters.Stock
	if stock == "" {
		stock = enums.StockFilterAll
	}
	sort := input.Filters.Sort
	if sort == "" {
		sort = enums.CatalogSortNewest
	}
	if err := validateFilters(stock, sort, enums.CatalogSortDiscount); err != nil {
		return nil, err
	}

	return s.page(ctx, listQuery{
		query:      input.Filters.Query,
		activeOnly: !input.IsAdmin,
		stock:      stock,
		sort:       sort,
	}, pagination.Page{Number: input.Page, Limit: input.Limit})
}

// ListOnSale lists active on-sale items. Stock defaults to in-stock and sort
// to the largest discount first.
func (s *service) ListOnSale(ctx context.Context, input SaleInput) (*ListResult, error) {
	f := input.Filters
	stock := f.Stock
	if stock == "" {
		stock = enums.StockFilterInStock
	}
	sort := f.Sort
	if sort == "" {
		sort = enums.CatalogSortDiscount
	}
	if err := validateFilters(stock, sort, enums.CatalogSortName, enums.CatalogSortNewest); err != nil {
		return nil, err
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min price cannot exceed max price")
	}

	return s.page(ctx, listQuery{
		query:         f.Query,
		activeOnly:    true,
		onSaleOnly:    true,
		stock:         stock,
		sort:          sort,
		minPriceCents: f.MinPriceCents,
		maxPriceCents: f.MaxPriceCents,
	}, pagination.Page{Number: input.Page, Limit: input.Limit})
}

func (s *service) page(ctx context.Context, q listQuery, page pagination.Page) (*ListResult, error) {
	page = page.Normalize()
	q.offset = page.Offset()
	q.limit = pagination.LimitWithBuffer(page.Limit)

	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog items")
	}
	result := &ListResult{Page: page.Number, Limit: page.Limit}
	if len(items) > page.Limit {
		items = items[:page.Limit]
		result.HasMore = true
	}
	result.Items = items
	return result, nil
}

// Get loads an item with its generated metadata and related books. Inactive
// items are hidden from non-admins. Active item details are cached.
func (s *service) Get(ctx context.Context, id uuid.UUID, isAdmin bool) (*Detail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	if cached, ok := s.readCache(ctx, id); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(id.String(), func() (any, error) {
		return s.loadDetail(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	detail := v.(*Detail)
	if !detail.Item.Active && !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return detail, nil
}

// Invalidate drops the cached detail for id.
func (s *service) Invalidate(ctx context.Context, id uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, s.cacheKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate catalog cache")
	}
	return nil
}

func (s *service) loadDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	related, err := s.repo.Related(ctx, *item, s.relatedWindow, s.relatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related items")
	}

	meta := GenerateMetadata(item.Name, s.now().UTC())
	if item.Author != nil && *item.Author != "" {
		meta.Author = *item.Author
	}
	if item.Description != nil && *item.Description != "" {
		meta.Description = *item.Description
	}

	detail := &Detail{Item: *item, Metadata: meta, Related: related}
	if item.Active {
		s.writeCache(ctx, detail)
	}
	return detail, nil
}

func (s *service) readCache(ctx context.Context, id uuid.UUID) (*Detail, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		if !redis.IsNil(err) {
			s.logg.Warn(s.logg.WithField(ctx, "item_id", id.String()), "catalog.cache_read_failed")
		}
		return nil, false
	}
	var detail Detail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "item_id", id.String()), "catalog.cache_decode_failed")
		return nil, false
	}
	return &detail, true
}

func (s *service) writeCache(ctx context.Context, detail *Detail) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(detail.Item.ID), payload, s.detailTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "item_id", detail.Item.ID.String()), "catalog.cache_write_failed")
	}
}

func (s *service) cacheKey(id uuid.UUID) string {
	return s.cache.CacheKey("catalog", "item", id.String())
}

func validateFilters(stock enums.StockFilter, sort enums.CatalogSort, disallowed ...enums.CatalogSort) error {
	if !stock.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid stock filter").
			WithDetails(map[string]string{"stock": stock.String()})
	}
	valid := sort.IsValid()
	for _, d := range disallowed {
		if sort == d {
			valid = false
		}
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").
			WithDetails(map[string]string{"sort": sort.String()})
	}
	return nil
}
