package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

type stubCatalogService struct {
	listInput catalog.ListInput
	saleInput catalog.SaleInput
	isAdmin   bool
	err       error
}

func (s *stubCatalogService) List(ctx context.Context, input catalog.ListInput) (*catalog.ListResult, error) {
	s.listInput = input
	return &catalog.ListResult{Page: input.Page, Limit: input.Limit}, s.err
}

func (s *stubCatalogService) ListOnSale(ctx context.Context, input catalog.SaleInput) (*catalog.ListResult, error) {
	s.saleInput = input
	return &catalog.ListResult{}, s.err
}

func (s *stubCatalogService) Get(ctx context.Context, id uuid.UUID, isAdmin bool) (*catalog.Detail, error) {
	s.isAdmin = isAdmin
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.Detail{Item: models.Item{ID: id, Name: "Dune"}}, nil
}

func (s *stubCatalogService) Invalidate(ctx context.Context, id uuid.UUID) error { return nil }

func TestCatalogListParsesFilters(t *testing.T) {
	svc := &stubCatalogService{}
	req := newRequest(http.MethodGet, "/api/v1/catalog?q=%20dune%20&stock=in_stock&sort=price_low&page=2&limit=10", nil, nil)
	resp := httptest.NewRecorder()
	CatalogList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	f := svc.listInput.Filters
	if f.Query != "dune" || f.Stock != enums.StockFilterInStock || f.Sort != enums.CatalogSortPriceLow {
		t.Fatalf("unexpected filters %+v", f)
	}
	if svc.listInput.Page != 2 || svc.listInput.Limit != 10 || svc.listInput.IsAdmin {
		t.Fatalf("unexpected paging %+v", svc.listInput)
	}
}

func TestCatalogListAdminSeesInactive(t *testing.T) {
	svc := &stubCatalogService{}
	req := asUser(newRequest(http.MethodGet, "/api/v1/catalog", nil, nil), uuid.New(), enums.ProfileRoleAdmin)
	CatalogList(svc, nil).ServeHTTP(httptest.NewRecorder(), req)
	if !svc.listInput.IsAdmin {
		t.Fatal("expected admin listing")
	}
}

func TestCatalogListRejectsUnknownSort(t *testing.T) {
	resp := httptest.NewRecorder()
	CatalogList(&stubCatalogService{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/catalog?sort=discount", nil, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCatalogSalePriceWindow(t *testing.T) {
	svc := &stubCatalogService{}
	req := newRequest(http.MethodGet, "/api/v1/catalog/sale?min_price_cents=500&max_price_cents=2000&sort=discount", nil, nil)
	resp := httptest.NewRecorder()
	CatalogSale(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	f := svc.saleInput.Filters
	if f.MinPriceCents == nil || *f.MinPriceCents != 500 || f.MaxPriceCents == nil || *f.MaxPriceCents != 2000 {
		t.Fatalf("unexpected price window %+v", f)
	}
}

func TestCatalogDetail(t *testing.T) {
	id := uuid.New()
	svc := &stubCatalogService{}
	resp := httptest.NewRecorder()
	CatalogDetail(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", nil, map[string]string{"itemId": id.String()}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var detail catalog.Detail
	decodeData(t, resp, &detail)
	if detail.Item.ID != id {
		t.Fatalf("unexpected item %s", detail.Item.ID)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	resp = httptest.NewRecorder()
	CatalogDetail(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", nil, map[string]string{"itemId": id.String()}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
