package promotion

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluator runs eligibility checks for promotions against user history.
type Evaluator struct {
	history UserHistory
	now     func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given order history source.
func NewEvaluator(history UserHistory) *Evaluator {
	return &Evaluator{history: history, now: time.Now}
}

// Eligible reports whether the user may apply the promotion. Checks run in
// order: first-purchase-only, per-user usage limit, total usage limit,
// applicability window. The first failing check short-circuits; there is no
// partial-eligibility state.
func (e *Evaluator) Eligible(ctx context.Context, p *Promotion, userID string) (bool, error) {
	if p.IsFirstPurchaseOnly {
		n, err := e.history.CompletedOrderCount(ctx, userID)
		if err != nil {
			return false, errors.Wrap(err, "count completed orders")
		}
		if n > 0 {
			return false, nil
		}
	}

	if p.UsageLimitPerUser > 0 {
		n, err := e.history.PromotionUsageCount(ctx, userID, p.ID)
		if err != nil {
			return false, errors.Wrap(err, "count promotion usage")
		}
		if n >= p.UsageLimitPerUser {
			return false, nil
		}
	}

	if p.TotalUsageLimit > 0 && p.CurrentUsageCount >= p.TotalUsageLimit {
		return false, nil
	}

	if !p.InWindow(e.now()) {
		return false, nil
	}

	return true, nil
}

// DiscountedPrice returns the unit price after applying the promotion.
// Percentage discounts are capped so the computed discount never exceeds
// MaximumDiscount when one is set; fixed discounts floor at zero;
// freeShipping leaves the unit price untouched, the waiver is applied at the
// order-total level.
func DiscountedPrice(p *Promotion, originalPrice decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case DiscountPercentage:
		discount := originalPrice.Mul(p.DiscountValue).Div(hundred)
		if p.MaximumDiscount.IsPositive() && discount.GreaterThan(p.MaximumDiscount) {
			discount = p.MaximumDiscount
		}
		return originalPrice.Sub(discount).Round(2)
	case DiscountFixed:
		price := originalPrice.Sub(p.DiscountValue)
		if price.IsNegative() {
			price = decimal.Zero
		}
		return price.Round(2)
	case DiscountFreeShipping:
		return originalPrice
	default:
		return originalPrice
	}
}

// SelectBest picks the winning promotion among eligible, non-stackable
// candidates: highest priority wins, ties resolve to the earliest created.
// Returns nil for an empty slice.
func SelectBest(candidates []Promotion) *Promotion {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]Promotion, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return &sorted[0]
}
