package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/checkout"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Line is one priced cart line.
type Line struct {
	ItemID         uuid.UUID    `json:"item_id"`
	Qty            int          `json:"qty"`
	UnitPriceCents int          `json:"unit_price_cents"`
	LineCents      int          `json:"line_cents"`
	Item           *models.Item `json:"item,omitempty"`
}

// View is the user's cart with derived totals. CartID is nil until the first
// item is added.
type View struct {
	CartID        *uuid.UUID `json:"cart_id"`
	Lines         []Line     `json:"lines"`
	Units         int        `json:"units"`
	SubtotalCents int        `json:"subtotal_cents"`
}

// Quote is a priced cart with an optional applied discount.
type Quote struct {
	View
	checkout.Totals
	DiscountCode *string `json:"discount_code,omitempty"`
	DiscountPct  int     `json:"discount_pct"`
	TaxRate      string  `json:"tax_rate"`
}
