// Package product models the wine catalog consumed by cart pricing and
// order placement. Default price and quantity derive from the supplier list
// when not set explicitly, and an active flash sale is denormalized onto the
// product record so pricing never needs a second lookup.
package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = apperr.NotFound("product not found")

// Supplier is one source offering for a product.
type Supplier struct {
	Name        string
	Price       decimal.Decimal
	Quantity    int
	Discount    decimal.Decimal
	RestockDate *time.Time
}

// FlashOverride is the flash-sale price substitution denormalized onto a
// product record. It is written by the flash-sale service and read during
// cart and order pricing.
type FlashOverride struct {
	SaleID       string
	SpecialPrice decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	Active       bool
}

// InWindow reports whether the override applies at the given instant.
func (o *FlashOverride) InWindow(now time.Time) bool {
	return o.Active && !now.Before(o.StartDate) && !now.After(o.EndDate)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID              string
	Name            string
	Description     string
	Category        string
	Image           string
	DefaultPrice    decimal.Decimal
	DefaultQuantity int
	DefaultDiscount decimal.Decimal
	Suppliers       []Supplier
	FlashSale       *FlashOverride
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectivePrice returns the unit price to use for pricing at the given
// instant: the flash-sale special price while the override window is open,
// otherwise the default price.
func (p *Product) EffectivePrice(now time.Time) decimal.Decimal {
	if p.FlashSale != nil && p.FlashSale.InWindow(now) {
		return p.FlashSale.SpecialPrice
	}
	return p.Price()
}

// Price returns the default price, deriving it from the cheapest supplier
// offering when not explicitly set.
func (p *Product) Price() decimal.Decimal {
	if !p.DefaultPrice.IsZero() || len(p.Suppliers) == 0 {
		return p.DefaultPrice
	}
	lowest := p.Suppliers[0].Price
	for _, s := range p.Suppliers[1:] {
		if s.Price.LessThan(lowest) {
			lowest = s.Price
		}
	}
	return lowest
}

// Available returns the purchasable stock, deriving it from the summed
// supplier quantities when not explicitly set.
func (p *Product) Available() int {
	if p.DefaultQuantity > 0 || len(p.Suppliers) == 0 {
		return p.DefaultQuantity
	}
	total := 0
	for _, s := range p.Suppliers {
		total += s.Quantity
	}
	return total
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	// DecrementStock atomically decrements available stock, failing with
	// apperr.InsufficientInventory when fewer than qty units remain. A single
	// conditional write, not a read-then-write pair.
	DecrementStock(ctx context.Context, id string, qty int) error

	// ApplyFlashOverride denormalizes the override onto every listed product.
	ApplyFlashOverride(ctx context.Context, ids []string, o FlashOverride) error
	// ReleaseFlashOverride removes the override from every listed product
	// linked to the given sale.
	ReleaseFlashOverride(ctx context.Context, ids []string, saleID string) error
	// FindLinkedToOtherSale returns the subset of ids already carrying an
	// override from a different sale whose window has not yet closed.
	FindLinkedToOtherSale(ctx context.Context, ids []string, excludeSaleID string, now time.Time) ([]string, error)
}
