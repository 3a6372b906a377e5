package cart

import (
	"github.com/shopspring/decimal"

	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db/models"
)

// Totals is the derived money summary of a cart or order.
type Totals struct {
	Subtotal       int
	Tax            int
	DeliveryFee    int
	DiscountAmount int
	Total          int
	ItemCount      int
}

// LineTotal prices one cart line: base price plus extra cheese plus each
// selected topping, all multiplied by quantity.
func LineTotal(item *models.CartItem, cfg config.PricingConfig) int {
	perUnit := item.UnitPrice
	if item.ExtraCheese {
		perUnit += cfg.ExtraCheesePrice
	}
	perUnit += item.ExtraToppings.TotalPrice()
	return perUnit * item.Quantity
}

// ComputeTotals derives the full money summary from the cart lines. The
// discount amount is applied last and the grand total never drops below zero.
func ComputeTotals(items []models.CartItem, discountAmount int, cfg config.PricingConfig) Totals {
	totals := Totals{DiscountAmount: discountAmount}
	for i := range items {
		totals.Subtotal += items[i].TotalPrice
		totals.ItemCount += items[i].Quantity
	}

	totals.Tax = taxAmount(totals.Subtotal, cfg.TaxRatePercent)

	if totals.Subtotal > 0 && totals.Subtotal < cfg.FreeDeliveryMin {
		totals.DeliveryFee = cfg.DeliveryFee
	}

	totals.Total = totals.Subtotal + totals.Tax + totals.DeliveryFee - discountAmount
	if totals.Total < 0 {
		totals.Total = 0
	}
	return totals
}

// taxAmount rounds half-up on the exact decimal product, so 5% of 1990 is 100
// rather than the 99 a float truncation would give.
func taxAmount(subtotal, ratePercent int) int {
	if subtotal <= 0 || ratePercent <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(ratePercent)).Div(decimal.NewFromInt(100))
	return int(decimal.NewFromInt(int64(subtotal)).Mul(rate).Round(0).IntPart())
}
