package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/discounts"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

type validateDiscountRequest struct {
	Code string `json:"code" validate:"required,discount_code"`
}

type discountResponse struct {
	Code      string     `json:"code"`
	PctOff    int        `json:"pct_off"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// DiscountValidate reports whether a code can be applied right now.
func DiscountValidate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("discount service"))
			return
		}
		var payload validateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		discount, err := svc.Validate(ctx, payload.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, discountResponse{
			Code:      discount.Code,
			PctOff:    discount.PctOff,
			ExpiresAt: discount.ExpiresAt,
		})
	}
}
