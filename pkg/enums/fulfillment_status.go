package enums

import "fmt"

// FulfillmentStatus tracks shipment progress for one line item of an order.
type FulfillmentStatus string

const (
	FulfillmentStatusPending    FulfillmentStatus = "pending"
	FulfillmentStatusProcessing FulfillmentStatus = "processing"
	FulfillmentStatusShipped    FulfillmentStatus = "shipped"
	FulfillmentStatusDelivered  FulfillmentStatus = "delivered"
	FulfillmentStatusCancelled  FulfillmentStatus = "cancelled"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusProcessing,
	FulfillmentStatusShipped,
	FulfillmentStatusDelivered,
	FulfillmentStatusCancelled,
}

// FulfillmentStatuses returns every known status in lifecycle order.
func FulfillmentStatuses() []FulfillmentStatus {
	out := make([]FulfillmentStatus, len(validFulfillmentStatuses))
	copy(out, validFulfillmentStatuses)
	return out
}

// String implements fmt.Stringer.
func (s FulfillmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (s FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is expected.
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentStatusDelivered || s == FulfillmentStatusCancelled
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
