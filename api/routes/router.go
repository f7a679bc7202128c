package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bookstore-backend/api/controllers"
	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/internal/discounts"
	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/internal/orders"
	"github.com/angelmondragon/bookstore-backend/internal/profiles"
	"github.com/angelmondragon/bookstore-backend/internal/wishlist"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/redis"
)

// Services groups the domain services the HTTP surface dispatches to.
type Services struct {
	Catalog     catalog.Service
	Cart        cart.Service
	Discounts   discounts.Service
	Wishlist    wishlist.Service
	Orders      orders.Service
	Fulfillment fulfillment.Service
	Profiles    profiles.Service
}

// Infra groups the shared infrastructure the router needs. Nil Redis
// collaborators disable idempotency replay and rate limiting.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})

	if infra.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	var roles middleware.RoleResolver
	var toucher controllers.ProfileToucher
	if svc.Profiles != nil {
		roles = svc.Profiles
		toucher = svc.Profiles
	}
	idempotent := middleware.Idempotency(cfg.Idempotency, infra.Idempotency, logg)
	discountLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("discount-validate", cfg.RateLimit.DiscountWindow, cfg.RateLimit.DiscountLimit).
			WithTrustedProxy(cfg.RateLimit.TrustProxy),
		infra.RateLimiter,
		logg,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.Auth, roles, logg))
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", controllers.CatalogList(svc.Catalog, logg))
				r.Get("/sale", controllers.CatalogSale(svc.Catalog, logg))
				r.Get("/{itemId}", controllers.CatalogDetail(svc.Catalog, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, roles, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(svc.Cart, logg))
				r.Get("/count", controllers.CartCount(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
				r.With(discountLimit).Post("/quote", controllers.CartQuote(svc.Cart, logg))
			})

			r.With(discountLimit).Post("/discounts/validate", controllers.DiscountValidate(svc.Discounts, logg))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(svc.Wishlist, logg))
				r.Get("/ids", controllers.WishlistIDs(svc.Wishlist, logg))
				r.Post("/", controllers.WishlistAddItem(svc.Wishlist, logg))
				r.Delete("/{itemId}", controllers.WishlistRemoveItem(svc.Wishlist, logg))
			})

			r.With(idempotent).Post("/checkout", controllers.Checkout(svc.Orders, toucher, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
				r.Get("/{orderId}/cancellable", controllers.OrderCancellable(svc.Orders, logg))
				r.With(idempotent).Post("/{orderId}/cancel", controllers.OrderCancel(svc.Orders, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, roles, logg))
		r.Use(middleware.RequireRole(enums.ProfileRoleAdmin, logg))

		r.Route("/fulfillments", func(r chi.Router) {
			r.Get("/pending", controllers.AdminPendingFulfillments(svc.Fulfillment, logg))
			r.Get("/stats", controllers.AdminFulfillmentStats(svc.Fulfillment, logg))
			r.Patch("/{fulfillmentId}", controllers.AdminUpdateFulfillment(svc.Fulfillment, logg))
			r.Post("/{fulfillmentId}/ship", controllers.AdminShipFulfillment(svc.Fulfillment, logg))
			r.Post("/{fulfillmentId}/deliver", controllers.AdminDeliverFulfillment(svc.Fulfillment, logg))
			r.Post("/{fulfillmentId}/cancel", controllers.AdminCancelFulfillment(svc.Fulfillment, logg))
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/fulfillments", controllers.AdminOrderFulfillments(svc.Fulfillment, logg))
			r.With(idempotent).Post("/fulfillments", controllers.AdminCreateOrderFulfillments(svc.Fulfillment, logg))
			r.With(idempotent).Post("/cancel", controllers.OrderCancel(svc.Orders, logg))
		})
	})

	return r
}
