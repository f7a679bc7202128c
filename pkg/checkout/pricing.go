package checkout

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is a priced cart in cents.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	DiscountCents int `json:"discount_cents"`
	TaxCents      int `json:"tax_cents"`
	TotalCents    int `json:"total_cents"`
}

// ComputeTotals prices a subtotal. The discount and the tax are each floored
// to whole cents, and tax applies after the discount.
func ComputeTotals(subtotalCents, pctOff int, taxRate decimal.Decimal) Totals {
	subtotal := decimal.NewFromInt(int64(subtotalCents))
	discount := decimal.Zero
	if pctOff > 0 {
		discount = subtotal.Mul(decimal.NewFromInt(int64(pctOff))).Div(hundred).Floor()
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Floor()

	return Totals{
		SubtotalCents: subtotalCents,
		DiscountCents: int(discount.IntPart()),
		TaxCents:      int(tax.IntPart()),
		TotalCents:    int(taxable.Add(tax).IntPart()),
	}
}
