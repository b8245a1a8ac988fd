package cart

import (
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
)

var hundred = decimal.NewFromInt(100)

// unitPricer resolves the current effective unit price for a product.
// Flash-sale overrides are already folded in by the resolver.
type unitPricer func(productID string) decimal.Decimal

// recomputePricing derives the pricing snapshot from the cart's items and
// applied coupon. All monetary values round to 2 decimal places here, at the
// point of storage, not before.
func recomputePricing(c *Cart, priceOf unitPricer) {
	subtotal := decimal.Zero
	for _, it := range c.Items {
		line := priceOf(it.ProductID).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
	}

	discount := decimal.Zero
	if c.Coupon != nil {
		switch c.Coupon.DiscountType {
		case coupon.DiscountPercentage:
			discount = subtotal.Mul(c.Coupon.DiscountValue).Div(hundred)
		case coupon.DiscountFixed:
			discount = decimal.Min(subtotal, c.Coupon.DiscountValue)
		}
	}

	// Round before deriving the total so the stored snapshot always satisfies
	// total == max(0, subtotal - discount) exactly.
	subtotal = subtotal.Round(2)
	discount = discount.Round(2)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	c.Pricing = Pricing{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
	}
}
