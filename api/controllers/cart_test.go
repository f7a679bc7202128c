package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

type stubCartService struct {
	view      *cartsvc.View
	quote     *cartsvc.Quote
	err       error
	gotUser   uuid.UUID
	gotItem   uuid.UUID
	gotQty    int
	gotCode   string
	countResp int
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	s.gotUser = userID
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.gotUser, s.gotItem, s.gotQty = userID, itemID, qty
	return s.view, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.gotUser, s.gotItem, s.gotQty = userID, itemID, qty
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.View, error) {
	s.gotUser, s.gotItem = userID, itemID
	return s.view, s.err
}

func (s *stubCartService) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.countResp, s.err
}

func (s *stubCartService) Quote(ctx context.Context, userID uuid.UUID, code string) (*cartsvc.Quote, error) {
	s.gotCode = code
	return s.quote, s.err
}

func TestCartGetRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	CartGet(&stubCartService{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cart", nil, nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartGetSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{view: &cartsvc.View{Units: 3, SubtotalCents: 4500}}

	resp := httptest.NewRecorder()
	req := asUser(newRequest(http.MethodGet, "/api/v1/cart", nil, nil), userID, enums.ProfileRoleCustomer)
	CartGet(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view cartsvc.View
	decodeData(t, resp, &view)
	if view.SubtotalCents != 4500 || svc.gotUser != userID {
		t.Fatalf("unexpected view %+v for user %s", view, svc.gotUser)
	}
}

func TestCartAddItem(t *testing.T) {
	userID, itemID := uuid.New(), uuid.New()
	svc := &stubCartService{view: &cartsvc.View{Units: 2}}

	body := strings.NewReader(`{"item_id":"` + itemID.String() + `","qty":2}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart/items", body, nil), userID, enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.gotItem != itemID || svc.gotQty != 2 {
		t.Fatalf("unexpected call item=%s qty=%d", svc.gotItem, svc.gotQty)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	body := strings.NewReader(`{"item_id":"` + uuid.NewString() + `","qty":0}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart/items", body, nil), uuid.New(), enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartAddItem(&stubCartService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemZeroQtyIsAccepted(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{view: &cartsvc.View{}}
	req := asUser(newRequest(http.MethodPatch, "/api/v1/cart/items/"+itemID.String(), strings.NewReader(`{"qty":0}`), map[string]string{"itemId": itemID.String()}), uuid.New(), enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotQty != 0 || svc.gotItem != itemID {
		t.Fatalf("unexpected call item=%s qty=%d", svc.gotItem, svc.gotQty)
	}
}

func TestCartUpdateItemMissingQty(t *testing.T) {
	itemID := uuid.New()
	req := asUser(newRequest(http.MethodPatch, "/", strings.NewReader(`{}`), map[string]string{"itemId": itemID.String()}), uuid.New(), enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartUpdateItem(&stubCartService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemNotFound(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")}
	req := asUser(newRequest(http.MethodDelete, "/", nil, map[string]string{"itemId": itemID.String()}), uuid.New(), enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartQuote(t *testing.T) {
	svc := &stubCartService{quote: &cartsvc.Quote{TaxRate: "0.0825"}}
	req := asUser(newRequest(http.MethodPost, "/api/v1/cart/quote", strings.NewReader(`{"discount_code":"save10"}`), nil), uuid.New(), enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartQuote(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotCode != "save10" {
		t.Fatalf("expected code forwarded, got %q", svc.gotCode)
	}

	svc = &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "discount code expired").WithDetails(pkgerrors.Reason("expired"))}
	req = asUser(newRequest(http.MethodPost, "/api/v1/cart/quote", strings.NewReader(`{"discount_code":"old"}`), nil), uuid.New(), enums.ProfileRoleCustomer)
	resp = httptest.NewRecorder()
	CartQuote(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCartCount(t *testing.T) {
	req := asUser(newRequest(http.MethodGet, "/api/v1/cart/count", nil, nil), uuid.New(), enums.ProfileRoleCustomer)
	resp := httptest.NewRecorder()
	CartCount(&stubCartService{countResp: 5}, nil).ServeHTTP(resp, req)
	var body map[string]int
	decodeData(t, resp, &body)
	if body["count"] != 5 {
		t.Fatalf("expected count 5, got %v", body)
	}
}
