package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Applier resolves which promotion applies at checkout. An explicit code
// must name a usable promotion; without one the best qualifying candidate
// wins per SelectBest, or none at all.
type Applier struct {
	repo      Repository
	evaluator *Evaluator
	now       func() time.Time
}

// NewApplier creates an Applier over the promotion store and eligibility
// evaluator.
func NewApplier(repo Repository, evaluator *Evaluator) *Applier {
	return &Applier{repo: repo, evaluator: evaluator, now: time.Now}
}

// Resolve returns the promotion to apply to an order with the given
// subtotal, or nil when no code was given and nothing qualifies.
func (a *Applier) Resolve(ctx context.Context, userID, code string, subtotal decimal.Decimal) (*Promotion, error) {
	if code != "" {
		p, err := a.repo.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if err := a.check(ctx, p, userID, subtotal); err != nil {
			return nil, err
		}
		return p, nil
	}

	all, err := a.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list promotions")
	}
	candidates := make([]Promotion, 0, len(all))
	for i := range all {
		if a.check(ctx, &all[i], userID, subtotal) == nil {
			candidates = append(candidates, all[i])
		}
	}
	return SelectBest(candidates), nil
}

func (a *Applier) check(ctx context.Context, p *Promotion, userID string, subtotal decimal.Decimal) error {
	if !p.IsActive || !p.InWindow(a.now()) {
		return ErrNotApplicable
	}
	if subtotal.LessThan(p.MinimumPurchase) {
		return ErrBelowMinimum
	}
	ok, err := a.evaluator.Eligible(ctx, p, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEligible
	}
	return nil
}

// RecordUse consumes one use once the order has persisted.
func (a *Applier) RecordUse(ctx context.Context, id string) error {
	return a.repo.IncrementUsage(ctx, id)
}
