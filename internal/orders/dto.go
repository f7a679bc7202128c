package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// CheckoutInput captures the data needed to place an order.
type CheckoutInput struct {
	UserID       uuid.UUID
	Email        string
	DiscountCode string
}

// CheckoutResult is the placed order plus its fulfillment bootstrap outcome.
type CheckoutResult struct {
	Order        models.Order                     `json:"order"`
	Fulfillments fulfillment.CreateForOrderResult `json:"fulfillments"`
}

// OrderSummary is one row of a customer's order history.
type OrderSummary struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	TotalCents    int       `json:"total_cents"`
	DiscountCents int       `json:"discount_cents"`
	TotalItems    int       `json:"total_items"`
}

// OrderList is a cursor page of order summaries, newest first.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is an order with its fulfillment rows and whether the customer
// may still cancel it.
type OrderDetail struct {
	Order        models.Order                   `json:"order"`
	Fulfillments []models.OrderFulfillment      `json:"fulfillments"`
	Cancellation *fulfillment.CancelEligibility `json:"cancellation"`
}

// Actor identifies the caller of an order read or mutation.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}
