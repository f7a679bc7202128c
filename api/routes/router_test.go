package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/pkg/auth/authtest"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubProfiles struct {
	roles map[uuid.UUID]enums.ProfileRole
}

func (s stubProfiles) RoleFor(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error) {
	if role, ok := s.roles[userID]; ok {
		return role, nil
	}
	return enums.ProfileRoleCustomer, nil
}

func (s stubProfiles) Touch(ctx context.Context, userID uuid.UUID, email string) error { return nil }

type stubCatalog struct {
	catalog.Service
	lastAdmin bool
}

func (s *stubCatalog) List(ctx context.Context, input catalog.ListInput) (*catalog.ListResult, error) {
	s.lastAdmin = input.IsAdmin
	return &catalog.ListResult{Items: nil, Page: 1, Limit: 25}, nil
}

type stubCart struct {
	cart.Service
}

func (stubCart) Get(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return &cart.View{}, nil
}

type stubFulfillment struct {
	fulfillment.Service
}

func (stubFulfillment) Stats(ctx context.Context) (*fulfillment.Stats, error) {
	return &fulfillment.Stats{Pending: 1}, nil
}

type routerFixture struct {
	handler http.Handler
	cfg     *config.Config
	catalog *stubCatalog
	admin   uuid.UUID
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{JWTSecret: "router-secret", Audience: "authenticated", Leeway: time.Second},
		RateLimit: config.RateLimitConfig{
			DiscountWindow: time.Minute,
			DiscountLimit:  10,
		},
	}
	reg := prometheus.NewRegistry()
	fm := metrics.NewFulfillmentMetrics(reg)
	fm.ObserveTransition(enums.FulfillmentStatusShipped, 1)

	admin := uuid.New()
	cat := &stubCatalog{}
	handler := NewRouter(cfg, logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}), Infra{
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Gatherer: reg,
	}, Services{
		Catalog:     cat,
		Cart:        stubCart{},
		Fulfillment: stubFulfillment{},
		Profiles:    stubProfiles{roles: map[uuid.UUID]enums.ProfileRole{admin: enums.ProfileRoleAdmin}},
	})
	return &routerFixture{handler: handler, cfg: cfg, catalog: cat, admin: admin}
}

func (f *routerFixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return authtest.Token(t, f.cfg.Auth, userID, "reader@example.com")
}

func (f *routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	f := newRouterFixture(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		if resp := f.do(http.MethodGet, path, ""); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.do(http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "bookstore_fulfillment_transitions_total") {
		t.Fatalf("expected fulfillment metrics in exposition")
	}
}

func TestCatalogIsPublic(t *testing.T) {
	f := newRouterFixture(t)
	if resp := f.do(http.MethodGet, "/api/v1/catalog", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if f.catalog.lastAdmin {
		t.Fatal("anonymous browse must not be admin")
	}

	if resp := f.do(http.MethodGet, "/api/v1/catalog", f.token(t, f.admin)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !f.catalog.lastAdmin {
		t.Fatal("admin token should widen the listing")
	}
}

func TestCartRequiresAuth(t *testing.T) {
	f := newRouterFixture(t)
	if resp := f.do(http.MethodGet, "/api/v1/cart", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if resp := f.do(http.MethodGet, "/api/v1/cart", f.token(t, uuid.New())); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newRouterFixture(t)
	if resp := f.do(http.MethodGet, "/api/admin/v1/fulfillments/stats", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if resp := f.do(http.MethodGet, "/api/admin/v1/fulfillments/stats", f.token(t, uuid.New())); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if resp := f.do(http.MethodGet, "/api/admin/v1/fulfillments/stats", f.token(t, f.admin)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.do(http.MethodGet, "/health/live", "")
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}
