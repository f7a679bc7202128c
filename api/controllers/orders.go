package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/orders"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

// ProfileToucher records a first-seen user before their first order.
type ProfileToucher interface {
	Touch(ctx context.Context, userID uuid.UUID, email string) error
}

type checkoutRequest struct {
	DiscountCode string `json:"discount_code" validate:"omitempty,discount_code"`
}

// Checkout converts the caller's cart into an order.
func Checkout(svc orders.Service, profiles ProfileToucher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders service"))
			return
		}
		userID, err := requireUser(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload checkoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		email := middleware.EmailFromContext(ctx)
		if profiles != nil {
			if err := profiles.Touch(ctx, userID, email); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		result, err := svc.Checkout(ctx, orders.CheckoutInput{
			UserID:       userID,
			Email:        email,
			DiscountCode: payload.DiscountCode,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, result.Order.ID.String()), "checkout.complete")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrdersList returns the caller's orders, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders service"))
			return
		}
		userID, err := requireUser(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.ListForUser(ctx, userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns an order with its fulfillments and cancellation state.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders service"))
			return
		}
		actor, orderID, err := orderActor(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		detail, err := svc.Get(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrderCancellable reports whether the order can still be cancelled.
func OrderCancellable(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders service"))
			return
		}
		actor, orderID, err := orderActor(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		eligibility, err := svc.CanCancel(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, eligibility)
	}
}

// OrderCancel cancels every fulfillment of the order. Admin routes reuse it
// with the admin role already enforced.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders service"))
			return
		}
		actor, orderID, err := orderActor(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Cancel(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func orderActor(r *http.Request) (orders.Actor, uuid.UUID, error) {
	userID, err := requireUser(r.Context())
	if err != nil {
		return orders.Actor{}, uuid.Nil, err
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return orders.Actor{}, uuid.Nil, err
	}
	return orders.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(r.Context())}, orderID, nil
}
