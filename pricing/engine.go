// Package pricing holds the price and total recomputation rule for order lines.
// A line's TotalPrice is always Quantity * PriceDistribution; every function
// that changes either operand returns a line with the total recomputed.
package pricing

import (
	"github.com/shopspring/decimal"

	"orderdesk/models"
	"orderdesk/utils"
)

// ResolvePrice returns the price a new line takes for a product: the
// distribution price when non-zero, else the retail price, else zero.
func ResolvePrice(p models.Product) decimal.Decimal {
	if !p.PriceDistribution.IsZero() {
		return p.PriceDistribution
	}
	if !p.PriceRetail.IsZero() {
		return p.PriceRetail
	}
	return decimal.Zero
}

// LineTotal is quantity times unit price. Negative quantities count as zero.
func LineTotal(qty int, price decimal.Decimal) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// Recompute applies the catalog price when one is given, keeps the line's own
// price otherwise, and recomputes the total. The input is not modified.
func Recompute(item models.SalesItem, catalogPrice *decimal.Decimal) models.SalesItem {
	if catalogPrice != nil {
		item.PriceDistribution = *catalogPrice
	}
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	item.TotalPrice = LineTotal(item.Quantity, item.PriceDistribution)
	return item
}

// WithQuantity sets the quantity and recomputes the total
func WithQuantity(item models.SalesItem, qty int) models.SalesItem {
	item.Quantity = qty
	return Recompute(item, nil)
}

// WithPrice sets the unit price and recomputes the total
func WithPrice(item models.SalesItem, price decimal.Decimal) models.SalesItem {
	return Recompute(item, &price)
}

// WithQuantityInput parses a raw quantity field. Malformed input is zero.
func WithQuantityInput(item models.SalesItem, raw string) models.SalesItem {
	return WithQuantity(item, utils.ParseQuantity(raw))
}

// WithPriceInput parses a raw price field. Malformed input is zero.
func WithPriceInput(item models.SalesItem, raw string) models.SalesItem {
	return WithPrice(item, utils.ParseAmount(raw))
}

// Totals sums quantities and line totals
func Totals(items []models.SalesItem) (qty int, amount decimal.Decimal) {
	amount = decimal.Zero
	for _, item := range items {
		qty += item.Quantity
		amount = amount.Add(item.TotalPrice)
	}
	return qty, amount
}

// Calculate returns the per-line pricing breakdown of a draft or order.
// Line totals are recomputed from quantity and price rather than trusted.
func Calculate(items []models.SalesItem) *models.PricingBreakdown {
	breakdown := &models.PricingBreakdown{
		Total: decimal.Zero,
		Lines: make([]models.PricingLine, 0, len(items)),
	}
	for _, item := range items {
		qty := item.Quantity
		if qty < 0 {
			qty = 0
		}
		lineTotal := LineTotal(qty, item.PriceDistribution)
		breakdown.Total = breakdown.Total.Add(lineTotal)
		breakdown.TotalQuantity += qty
		breakdown.Lines = append(breakdown.Lines, models.PricingLine{
			LineID:    item.LineID,
			Code:      item.Code,
			Qty:       qty,
			UnitPrice: item.PriceDistribution,
			LineTotal: lineTotal,
			Free:      item.PriceDistribution.IsZero(),
		})
	}
	breakdown.LineCount = len(breakdown.Lines)
	return breakdown
}
