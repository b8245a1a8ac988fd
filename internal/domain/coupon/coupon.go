// Package coupon implements cart-level coupon records and their validation
// against a live cart subtotal.
package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when a coupon code is unknown.
	ErrNotFound = apperr.NotFound("coupon not found")
	// ErrInactive is returned when a coupon exists but is disabled.
	ErrInactive = apperr.Invalid("coupon is not active")
	// ErrExpired is returned when a coupon's expiry date has passed.
	ErrExpired = apperr.Invalid("coupon has expired")
	// ErrInsufficientCartValue is returned when the cart subtotal is below
	// the coupon's minimum purchase amount.
	ErrInsufficientCartValue = apperr.Invalid("cart subtotal below coupon minimum purchase amount")
	// ErrCodeTaken is returned when creating a coupon whose code exists.
	ErrCodeTaken = apperr.Conflict("coupon code already exists")
)

// Coupon is a cart-level discount record.
type Coupon struct {
	ID                    string
	Code                  string
	DiscountValue         decimal.Decimal
	DiscountType          DiscountType
	MinimumPurchaseAmount decimal.Decimal
	ExpiryDate            time.Time
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Repository defines persistence operations for coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
}
