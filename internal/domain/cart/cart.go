// Package cart implements the per-user cart aggregate: line items, an
// optional applied-coupon snapshot, and the derived pricing snapshot that is
// recomputed from live product prices on every mutation.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

var (
	// ErrNotFound is returned when a user has no cart yet.
	ErrNotFound = apperr.NotFound("cart not found")
	// ErrItemNotFound is returned when a product is not a line item.
	ErrItemNotFound = apperr.NotFound("item not in cart")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = apperr.Invalid("quantity must be at least 1")
	// ErrNoCoupon is returned when removing a coupon from a cart without one.
	ErrNoCoupon = apperr.Invalid("no coupon applied to cart")
	// ErrInsufficientStock is returned when the requested quantity exceeds
	// available stock.
	ErrInsufficientStock = apperr.InsufficientInventory("requested quantity exceeds available stock")
)

// Item is one cart line. Quantity is always >= 1; decrementing to zero
// removes the line entirely.
type Item struct {
	ProductID string
	Quantity  int
}

// CouponSnapshot is the applied coupon frozen onto the cart. Pricing uses
// the snapshot, not a live coupon lookup, so admin edits to a coupon do not
// silently reprice carts that already hold it.
type CouponSnapshot struct {
	CouponID      string
	Code          string
	DiscountValue decimal.Decimal
	DiscountType  coupon.DiscountType
}

// Pricing is the derived {subtotal, discount, total} snapshot. It is never
// set by a caller, only recomputed.
type Pricing struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Cart is the per-user aggregate. One cart exists per user.
type Cart struct {
	ID        string
	UserID    string
	Items     []Item
	Coupon    *CouponSnapshot
	Pricing   Pricing
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Find returns the index of the line for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Repository defines persistence operations for carts.
type Repository interface {
	// FindByUser returns the user's cart or ErrNotFound.
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	// Save upserts the whole cart document keyed by user.
	Save(ctx context.Context, c *Cart) error
	// Delete removes the user's cart.
	Delete(ctx context.Context, userID string) error
}
