package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

// StockValidationInput describes the data required to verify a cart line.
type StockValidationInput struct {
	ItemID   uuid.UUID
	ItemName string
	Active   bool
	Stock    int
	Quantity int
}

// StockViolationDetail exposes the data returned to callers when a validation fails.
type StockViolationDetail struct {
	ItemID       uuid.UUID `json:"item_id"`
	ItemName     string    `json:"item_name,omitempty"`
	Available    int       `json:"available"`
	RequestedQty int       `json:"requested_qty"`
	Unavailable  bool      `json:"unavailable,omitempty"`
}

// ValidateStock ensures every line is purchasable and within the item's stock.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Active && item.Quantity <= item.Stock {
			continue
		}
		violations = append(violations, StockViolationDetail{
			ItemID:       item.ItemID,
			ItemName:     item.ItemName,
			Available:    item.Stock,
			RequestedQty: item.Quantity,
			Unavailable:  !item.Active,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
