package pricing

import (
	"math"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
)

// Line is one priced cart row. Amounts are minor currency units.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice int64
}

func (l Line) Total() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

type DiscountType string

const (
	DiscountNone    DiscountType = ""
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percent"
)

type Discount struct {
	Type  DiscountType
	Value float64
}

// Totals is an immutable snapshot derived from the cart. It is never
// persisted on its own, only as columns of the sale it settles.
type Totals struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	TaxAmount      int64 `json:"tax_amount"`
	TotalAmount    int64 `json:"total_amount"`
}

// ComputeTotals prices a cart. Pure and deterministic: the client
// preview and the server-side re-validation must agree byte for byte.
// The discount is clamped to [0, subtotal] and tax applies to the
// discounted base, never the raw subtotal.
func ComputeTotals(lines []Line, discount Discount, taxRatePercent float64, applyTax bool) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, domainErrors.ErrEmptyCart
	}

	var subtotal int64
	for _, line := range lines {
		if line.Quantity < 1 {
			return Totals{}, domainErrors.ErrInvalidQuantity
		}
		if line.UnitPrice < 0 {
			return Totals{}, domainErrors.ErrInvalidUnitPrice
		}
		subtotal += line.Total()
	}

	var discountAmount int64
	switch discount.Type {
	case DiscountFixed:
		discountAmount = int64(math.Round(discount.Value))
	case DiscountPercent:
		discountAmount = roundPercent(subtotal, discount.Value)
	}

	if discountAmount < 0 {
		discountAmount = 0
	}
	if discountAmount > subtotal {
		discountAmount = subtotal
	}

	taxable := subtotal - discountAmount

	var taxAmount int64
	if applyTax && taxRatePercent > 0 {
		taxAmount = roundPercent(taxable, taxRatePercent)
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		TotalAmount:    taxable + taxAmount,
	}, nil
}

func roundPercent(amount int64, percent float64) int64 {
	return int64(math.Round(float64(amount) * percent / 100))
}
