// Package promotion implements the richer promotion records: eligibility
// gates over user purchase history, capped discount calculation, and
// deterministic selection among competing non-stackable promotions.
package promotion

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// DiscountType enumerates promotion discount strategies.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "freeShipping"
)

var (
	// ErrNotFound is returned when a promotion is unknown.
	ErrNotFound = apperr.NotFound("promotion not found")
	// ErrInUse is returned when deleting or re-coding a promotion that has
	// already been used. Used promotions can only be deactivated.
	ErrInUse = apperr.Conflict("promotion has recorded uses and cannot be deleted or re-coded")
	// ErrUsageExhausted is returned when the total usage limit is reached
	// during an atomic usage increment.
	ErrUsageExhausted = apperr.Conflict("promotion total usage limit reached")
	// ErrNotApplicable is returned for inactive or out-of-window promotions.
	ErrNotApplicable = apperr.Invalid("promotion is not active or outside its window")
	// ErrNotEligible is returned when the user fails an eligibility gate.
	ErrNotEligible = apperr.Invalid("user is not eligible for this promotion")
	// ErrBelowMinimum is returned when the order subtotal is below the
	// promotion's minimum purchase amount.
	ErrBelowMinimum = apperr.Invalid("order subtotal below promotion minimum purchase amount")
)

// Promotion is a time-boxed, usage-limited discount rule.
type Promotion struct {
	ID                   string
	Code                 string
	Description          string
	DiscountType         DiscountType
	DiscountValue        decimal.Decimal
	StartDate            time.Time
	EndDate              time.Time
	MinimumPurchase      decimal.Decimal
	MaximumDiscount      decimal.Decimal // zero means uncapped
	IsFirstPurchaseOnly  bool
	UsageLimitPerUser    int // zero means unlimited
	TotalUsageLimit      int // zero means unlimited
	CurrentUsageCount    int
	ApplicableProducts   []string
	ApplicableCategories []string
	Stackable            bool
	Priority             int
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// InWindow reports whether the promotion's applicability window contains now.
func (p *Promotion) InWindow(now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// AppliesTo reports whether the promotion covers a product. Empty product and
// category restrictions mean the promotion applies to everything.
func (p *Promotion) AppliesTo(productID, category string) bool {
	if len(p.ApplicableProducts) == 0 && len(p.ApplicableCategories) == 0 {
		return true
	}
	for _, id := range p.ApplicableProducts {
		if id == productID {
			return true
		}
	}
	for _, c := range p.ApplicableCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Repository defines persistence operations for promotions.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Promotion, error)
	FindByID(ctx context.Context, id string) (*Promotion, error)
	List(ctx context.Context) ([]Promotion, error)
	Create(ctx context.Context, p *Promotion) error
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id string) error

	// IncrementUsage atomically increments currentUsageCount, failing with
	// ErrUsageExhausted when a total usage limit is set and already reached.
	IncrementUsage(ctx context.Context, id string) error
}

// UserHistory exposes the slices of order history that eligibility checks
// need. Implemented by the order store.
type UserHistory interface {
	// CompletedOrderCount counts a user's completed (delivered) orders.
	CompletedOrderCount(ctx context.Context, userID string) (int, error)
	// PromotionUsageCount counts a user's past orders referencing the
	// given promotion.
	PromotionUsageCount(ctx context.Context, userID, promotionID string) (int, error)
}
