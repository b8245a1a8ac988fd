package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a coupon code against the current cart subtotal and
// returns the matching coupon record on success.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, error)
}

// RepoValidator implements Validator by looking up coupon records from a
// Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon for the given code and checks, in order, that
// it is active, unexpired, and that the subtotal meets the minimum purchase
// amount. The subtotal passed in must come from a live recomputation, never
// from a cached pricing snapshot.
func (v *RepoValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.IsActive {
		return nil, ErrInactive
	}
	if !v.now().Before(c.ExpiryDate) {
		return nil, ErrExpired
	}
	if subtotal.LessThan(c.MinimumPurchaseAmount) {
		return nil, ErrInsufficientCartValue
	}

	return c, nil
}
