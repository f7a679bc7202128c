package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

type updateFulfillmentRequest struct {
	Status         *string    `json:"status"`
	ShippedQty     *int       `json:"shipped_qty" validate:"omitempty,min=0"`
	TrackingNumber *string    `json:"tracking_number" validate:"omitempty,max=128"`
	FulfilledBy    *string    `json:"fulfilled_by" validate:"omitempty,max=128"`
	FulfilledAt    *time.Time `json:"fulfilled_at"`
	ShippedAt      *time.Time `json:"shipped_at"`
}

func (req updateFulfillmentRequest) toInput() (fulfillment.UpdateInput, error) {
	input := fulfillment.UpdateInput{
		ShippedQty:     req.ShippedQty,
		TrackingNumber: req.TrackingNumber,
		FulfilledBy:    req.FulfilledBy,
		FulfilledAt:    req.FulfilledAt,
		ShippedAt:      req.ShippedAt,
	}
	if req.Status != nil {
		status, err := enums.ParseFulfillmentStatus(*req.Status)
		if err != nil {
			return fulfillment.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	return input, nil
}

type shipFulfillmentRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,max=128"`
	ShippedQty     *int   `json:"shipped_qty" validate:"omitempty,min=0"`
}

// AdminPendingFulfillments lists the pending queue with order and item context.
func AdminPendingFulfillments(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		rows, err := svc.ListPending(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminFulfillmentStats returns row counts per status.
func AdminFulfillmentStats(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		stats, err := svc.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminUpdateFulfillment applies a partial update.
func AdminUpdateFulfillment(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "fulfillmentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateFulfillmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		row, err := svc.Update(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdminShipFulfillment marks a fulfillment shipped with its tracking number.
func AdminShipFulfillment(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "fulfillmentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload shipFulfillmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		row, err := svc.MarkAsShipped(ctx, id, payload.TrackingNumber, payload.ShippedQty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdminDeliverFulfillment marks a fulfillment delivered.
func AdminDeliverFulfillment(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "fulfillmentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		row, err := svc.MarkAsDelivered(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdminCancelFulfillment cancels a single fulfillment.
func AdminCancelFulfillment(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "fulfillmentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		row, err := svc.CancelFulfillment(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AdminOrderFulfillments lists an order's fulfillments.
func AdminOrderFulfillments(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rows, err := svc.ListByOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminCreateOrderFulfillments creates any missing fulfillments for an order.
func AdminCreateOrderFulfillments(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("fulfillment service"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.CreateForOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created > 0 {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
