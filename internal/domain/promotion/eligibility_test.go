package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHistory struct {
	completed int
	usage     int
}

func (m *mockHistory) CompletedOrderCount(_ context.Context, _ string) (int, error) {
	return m.completed, nil
}

func (m *mockHistory) PromotionUsageCount(_ context.Context, _, _ string) (int, error) {
	return m.usage, nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestEvaluator_Eligible(t *testing.T) {
	fixedNow := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	open := Promotion{
		ID:        "promo1",
		StartDate: fixedNow.Add(-time.Hour),
		EndDate:   fixedNow.Add(time.Hour),
	}

	tests := []struct {
		name    string
		promo   Promotion
		history mockHistory
		want    bool
	}{
		{
			name:  "all gates open",
			promo: open,
			want:  true,
		},
		{
			name: "first purchase only with prior orders",
			promo: func() Promotion {
				p := open
				p.IsFirstPurchaseOnly = true
				return p
			}(),
			history: mockHistory{completed: 2},
			want:    false,
		},
		{
			name: "first purchase only with no prior orders",
			promo: func() Promotion {
				p := open
				p.IsFirstPurchaseOnly = true
				return p
			}(),
			want: true,
		},
		{
			name: "per-user limit reached",
			promo: func() Promotion {
				p := open
				p.UsageLimitPerUser = 1
				return p
			}(),
			history: mockHistory{usage: 1},
			want:    false,
		},
		{
			name: "total usage limit exhausted overrides everything else",
			promo: func() Promotion {
				p := open
				p.TotalUsageLimit = 1
				p.CurrentUsageCount = 1
				return p
			}(),
			want: false,
		},
		{
			name: "outside window",
			promo: Promotion{
				ID:        "promo2",
				StartDate: fixedNow.Add(time.Hour),
				EndDate:   fixedNow.Add(2 * time.Hour),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(&tt.history)
			e.now = func() time.Time { return fixedNow }

			got, err := e.Eligible(context.Background(), &tt.promo, "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name  string
		promo Promotion
		price decimal.Decimal
		want  decimal.Decimal
	}{
		{
			name:  "percentage",
			promo: Promotion{DiscountType: DiscountPercentage, DiscountValue: d("25")},
			price: d("40"),
			want:  d("30"),
		},
		{
			name: "percentage capped by maximum discount",
			promo: Promotion{
				DiscountType:    DiscountPercentage,
				DiscountValue:   d("50"),
				MaximumDiscount: d("5"),
			},
			price: d("40"),
			want:  d("35"),
		},
		{
			name:  "fixed",
			promo: Promotion{DiscountType: DiscountFixed, DiscountValue: d("7.50")},
			price: d("20"),
			want:  d("12.50"),
		},
		{
			name:  "fixed floors at zero",
			promo: Promotion{DiscountType: DiscountFixed, DiscountValue: d("30")},
			price: d("20"),
			want:  d("0"),
		},
		{
			name:  "free shipping leaves unit price untouched",
			promo: Promotion{DiscountType: DiscountFreeShipping, DiscountValue: d("100")},
			price: d("20"),
			want:  d("20"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountedPrice(&tt.promo, tt.price)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestSelectBest(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	t.Run("highest priority wins", func(t *testing.T) {
		got := SelectBest([]Promotion{
			{ID: "low", Priority: 1},
			{ID: "high", Priority: 5},
		})
		require.NotNil(t, got)
		assert.Equal(t, "high", got.ID)
	})

	t.Run("equal priority resolves to earliest created", func(t *testing.T) {
		got := SelectBest([]Promotion{
			{ID: "later", Priority: 3, CreatedAt: late},
			{ID: "earlier", Priority: 3, CreatedAt: early},
		})
		require.NotNil(t, got)
		assert.Equal(t, "earlier", got.ID)
	})

	t.Run("empty slice yields nil", func(t *testing.T) {
		assert.Nil(t, SelectBest(nil))
	})
}

func TestAppliesTo(t *testing.T) {
	p := Promotion{ApplicableProducts: []string{"p1"}, ApplicableCategories: []string{"red"}}
	assert.True(t, p.AppliesTo("p1", "white"))
	assert.True(t, p.AppliesTo("p9", "red"))
	assert.False(t, p.AppliesTo("p9", "white"))

	unrestricted := Promotion{}
	assert.True(t, unrestricted.AppliesTo("anything", "anywhere"))
}
