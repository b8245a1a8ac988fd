package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPromotions struct {
	Repository

	byCode     map[string]*Promotion
	increments map[string]int
}

func newMemPromotions(promos ...*Promotion) *memPromotions {
	m := &memPromotions{byCode: make(map[string]*Promotion), increments: make(map[string]int)}
	for _, p := range promos {
		m.byCode[p.Code] = p
	}
	return m
}

func (m *memPromotions) FindByCode(_ context.Context, code string) (*Promotion, error) {
	p, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *memPromotions) List(_ context.Context) ([]Promotion, error) {
	out := make([]Promotion, 0, len(m.byCode))
	for _, p := range m.byCode {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPromotions) IncrementUsage(_ context.Context, id string) error {
	m.increments[id]++
	return nil
}

func applierFixture(promos ...*Promotion) (*Applier, *memPromotions) {
	repo := newMemPromotions(promos...)
	a := NewApplier(repo, NewEvaluator(&mockHistory{}))
	return a, repo
}

func openPromo(id, code string, priority int) *Promotion {
	now := time.Now()
	return &Promotion{
		ID:            id,
		Code:          code,
		DiscountType:  DiscountPercentage,
		DiscountValue: d("10"),
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(time.Hour),
		Priority:      priority,
		IsActive:      true,
		CreatedAt:     now.Add(-time.Duration(priority) * time.Minute),
	}
}

func TestApplierResolveByCode(t *testing.T) {
	ctx := context.Background()
	a, _ := applierFixture(openPromo("p1", "SUMMER", 1))

	p, err := a.Resolve(ctx, "user1", "SUMMER", d("50"))
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = a.Resolve(ctx, "user1", "NOPE", d("50"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplierResolveRejectsUnusable(t *testing.T) {
	ctx := context.Background()

	inactive := openPromo("p1", "OFF", 1)
	inactive.IsActive = false
	a, _ := applierFixture(inactive)
	_, err := a.Resolve(ctx, "user1", "OFF", d("50"))
	assert.ErrorIs(t, err, ErrNotApplicable)

	pricey := openPromo("p2", "BIGSPEND", 1)
	pricey.MinimumPurchase = d("100")
	a, _ = applierFixture(pricey)
	_, err = a.Resolve(ctx, "user1", "BIGSPEND", d("50"))
	assert.ErrorIs(t, err, ErrBelowMinimum)

	gated := openPromo("p3", "FIRST", 1)
	gated.IsFirstPurchaseOnly = true
	repo := newMemPromotions(gated)
	a = NewApplier(repo, NewEvaluator(&mockHistory{completed: 3}))
	_, err = a.Resolve(ctx, "user1", "FIRST", d("50"))
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestApplierAutoPicksBestCandidate(t *testing.T) {
	ctx := context.Background()

	low := openPromo("p-low", "LOW", 1)
	high := openPromo("p-high", "HIGH", 5)
	closed := openPromo("p-closed", "CLOSED", 9)
	closed.EndDate = time.Now().Add(-time.Minute)

	a, _ := applierFixture(low, high, closed)

	p, err := a.Resolve(ctx, "user1", "", d("50"))
	require.NoError(t, err)
	assert.Equal(t, "p-high", p.ID, "highest priority qualifying candidate wins")
}

func TestApplierAutoPickNoneQualifies(t *testing.T) {
	ctx := context.Background()
	stale := openPromo("p1", "STALE", 1)
	stale.EndDate = time.Now().Add(-time.Minute)

	a, _ := applierFixture(stale)
	p, err := a.Resolve(ctx, "user1", "", d("50"))
	require.NoError(t, err)
	assert.Nil(t, p, "no promotion applies")
}

func TestApplierRecordUse(t *testing.T) {
	a, repo := applierFixture(openPromo("p1", "SUMMER", 1))
	require.NoError(t, a.RecordUse(context.Background(), "p1"))
	assert.Equal(t, 1, repo.increments["p1"])
}
