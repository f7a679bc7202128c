package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// CreateInput describes a single fulfillment row to insert.
type CreateInput struct {
	OrderID        uuid.UUID
	ItemID         uuid.UUID
	Status         enums.FulfillmentStatus
	ShippedQty     int
	TrackingNumber *string
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Status         *enums.FulfillmentStatus
	ShippedQty     *int
	TrackingNumber *string
	FulfilledBy    *string
	FulfilledAt    *time.Time
	ShippedAt      *time.Time
}

// CancelReason explains why an order is not cancellable.
type CancelReason string

const (
	CancelReasonNone             CancelReason = ""
	CancelReasonNoFulfillments   CancelReason = "no_fulfillments"
	CancelReasonNotPending       CancelReason = "not_pending"
	CancelReasonUnitsShipped     CancelReason = "units_shipped"
	CancelReasonConcurrentChange CancelReason = "concurrent_change"
)

// CancelEligibility is the outcome of the order cancellation check.
type CancelEligibility struct {
	OrderID      uuid.UUID    `json:"order_id"`
	Cancellable  bool         `json:"cancellable"`
	Reason       CancelReason `json:"reason,omitempty"`
	Fulfillments int          `json:"fulfillments"`
}

// CreateForOrderResult reports how many rows an order expects and how many
// were inserted by this call. Rows that already existed are not re-created.
type CreateForOrderResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderItems int       `json:"order_items"`
	Created    int       `json:"created"`
}

// CancelOrderResult reports the rows moved to cancelled.
type CancelOrderResult struct {
	OrderID   uuid.UUID `json:"order_id"`
	Cancelled int       `json:"cancelled"`
}

// OrderSummary is the order context shown on the pending queue.
type OrderSummary struct {
	ID            uuid.UUID `json:"id"`
	CustomerEmail string    `json:"customer_email"`
	CreatedAt     time.Time `json:"created_at"`
}

// ItemSummary is the item context shown on the pending queue.
type ItemSummary struct {
	Name   string  `json:"name"`
	ImgURL *string `json:"img_url,omitempty"`
	Author *string `json:"author,omitempty"`
}

// PendingFulfillment is a pending row with its order and item context. Order
// or Item is nil when the referenced row could not be found.
type PendingFulfillment struct {
	models.OrderFulfillment
	Order *OrderSummary `json:"order"`
	Item  *ItemSummary  `json:"item"`
}

// Stats counts fulfillment rows per status.
type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Shipped    int64 `json:"shipped"`
	Delivered  int64 `json:"delivered"`
	Cancelled  int64 `json:"cancelled"`
}

// add folds n rows of status into the stats. Unknown statuses are ignored.
func (s *Stats) add(status string, n int64) {
	switch enums.FulfillmentStatus(status) {
	case enums.FulfillmentStatusPending:
		s.Pending += n
	case enums.FulfillmentStatusProcessing:
		s.Processing += n
	case enums.FulfillmentStatusShipped:
		s.Shipped += n
	case enums.FulfillmentStatusDelivered:
		s.Delivered += n
	case enums.FulfillmentStatusCancelled:
		s.Cancelled += n
	}
}

// ByStatus returns the counts keyed by status.
func (s Stats) ByStatus() map[enums.FulfillmentStatus]int64 {
	return map[enums.FulfillmentStatus]int64{
		enums.FulfillmentStatusPending:    s.Pending,
		enums.FulfillmentStatusProcessing: s.Processing,
		enums.FulfillmentStatusShipped:    s.Shipped,
		enums.FulfillmentStatusDelivered:  s.Delivered,
		enums.FulfillmentStatusCancelled:  s.Cancelled,
	}
}

// StatusCount is one row of the grouped status query.
type StatusCount struct {
	Status string
	Count  int64
}
