package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type memCarts struct {
	carts map[string]*Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[string]*Cart)}
}

func (m *memCarts) FindByUser(_ context.Context, userID string) (*Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone, nil
}

func (m *memCarts) Save(_ context.Context, c *Cart) error {
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	m.carts[c.UserID] = &clone
	return nil
}

func (m *memCarts) Delete(_ context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type memProducts struct {
	product.Repository

	products map[string]product.Product
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubValidator struct {
	coupon *coupon.Coupon
	err    error
}

func (s *stubValidator) Validate(_ context.Context, _ string, _ decimal.Decimal) (*coupon.Coupon, error) {
	return s.coupon, s.err
}

func fixture(t *testing.T) (*Service, *memCarts, *memProducts, *stubValidator) {
	t.Helper()
	carts := newMemCarts()
	products := &memProducts{products: map[string]product.Product{
		"merlot": {ID: "merlot", DefaultPrice: d("20.00"), DefaultQuantity: 10},
		"shiraz": {ID: "shiraz", DefaultPrice: d("35.50"), DefaultQuantity: 2},
	}}
	val := &stubValidator{}
	svc := NewService(carts, products, val, nil)
	return svc, carts, products, val
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("creates cart on first add and prices it", func(t *testing.T) {
		svc, _, _, _ := fixture(t)
		c, err := svc.AddItem(ctx, "u1", "merlot", 2)
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		assert.True(t, c.Pricing.Subtotal.Equal(d("40.00")))
		assert.True(t, c.Pricing.Total.Equal(d("40.00")))
	})

	t.Run("sums quantities for an existing line", func(t *testing.T) {
		svc, _, _, _ := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "merlot", 2)
		require.NoError(t, err)
		c, err := svc.AddItem(ctx, "u1", "merlot", 3)
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 5, c.Items[0].Quantity)
	})

	t.Run("unknown product fails NotFound", func(t *testing.T) {
		svc, _, _, _ := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "nope", 1)
		assert.ErrorIs(t, err, product.ErrNotFound)
	})

	t.Run("summed quantity over stock fails", func(t *testing.T) {
		svc, _, _, _ := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "shiraz", 2)
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "u1", "shiraz", 1)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		svc, _, _, _ := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "merlot", 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestUpdateItemQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := fixture(t)
	_, err := svc.AddItem(ctx, "u1", "merlot", 1)
	require.NoError(t, err)

	t.Run("updates and reprices", func(t *testing.T) {
		c, err := svc.UpdateItemQuantity(ctx, "u1", "merlot", 4)
		require.NoError(t, err)
		assert.Equal(t, 4, c.Items[0].Quantity)
		assert.True(t, c.Pricing.Subtotal.Equal(d("80.00")))
	})

	t.Run("quantity below one rejected", func(t *testing.T) {
		_, err := svc.UpdateItemQuantity(ctx, "u1", "merlot", 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("absent line fails", func(t *testing.T) {
		_, err := svc.UpdateItemQuantity(ctx, "u1", "shiraz", 1)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("over stock fails", func(t *testing.T) {
		_, err := svc.UpdateItemQuantity(ctx, "u1", "merlot", 11)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestIncrementDecrement(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := fixture(t)
	_, err := svc.AddItem(ctx, "u1", "merlot", 1)
	require.NoError(t, err)

	c, err := svc.IncrementItem(ctx, "u1", "merlot")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Items[0].Quantity)

	c, err = svc.DecrementItem(ctx, "u1", "merlot")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)

	// Decrementing a quantity-one line removes it; no zero-quantity lines.
	c, err = svc.DecrementItem(ctx, "u1", "merlot")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.Pricing.Total.IsZero())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, _, _, val := fixture(t)
	_, err := svc.AddItem(ctx, "u1", "merlot", 2)
	require.NoError(t, err)
	val.coupon = &coupon.Coupon{ID: "c1", Code: "WINE10", DiscountType: coupon.DiscountPercentage, DiscountValue: d("10")}
	_, err = svc.ApplyCoupon(ctx, "u1", "WINE10")
	require.NoError(t, err)

	c, err := svc.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Nil(t, c.Coupon)
	assert.True(t, c.Pricing.Subtotal.IsZero())
	assert.True(t, c.Pricing.Discount.IsZero())
	assert.True(t, c.Pricing.Total.IsZero())
}

func TestApplyCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("percentage coupon example from the pricing contract", func(t *testing.T) {
		svc, _, _, val := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "merlot", 2) // 2 x 20.00 = 40.00
		require.NoError(t, err)

		val.coupon = &coupon.Coupon{ID: "c1", Code: "WINE10", DiscountType: coupon.DiscountPercentage, DiscountValue: d("10")}
		c, err := svc.ApplyCoupon(ctx, "u1", "WINE10")
		require.NoError(t, err)
		assert.True(t, c.Pricing.Subtotal.Equal(d("40.00")))
		assert.True(t, c.Pricing.Discount.Equal(d("4.00")))
		assert.True(t, c.Pricing.Total.Equal(d("36.00")))

		// Removing restores undiscounted totals.
		c, err = svc.RemoveCoupon(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, c.Pricing.Discount.IsZero())
		assert.True(t, c.Pricing.Total.Equal(d("40.00")))
	})

	t.Run("failed validation leaves pricing unchanged", func(t *testing.T) {
		svc, carts, _, val := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "merlot", 2)
		require.NoError(t, err)

		val.err = coupon.ErrInsufficientCartValue
		_, err = svc.ApplyCoupon(ctx, "u1", "BIG50")
		require.ErrorIs(t, err, coupon.ErrInsufficientCartValue)

		stored, err := carts.FindByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, stored.Coupon)
		assert.True(t, stored.Pricing.Subtotal.Equal(d("40.00")))
		assert.True(t, stored.Pricing.Discount.IsZero())
		assert.True(t, stored.Pricing.Total.Equal(d("40.00")))
	})

	t.Run("reapplying replaces the previous coupon", func(t *testing.T) {
		svc, _, _, val := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "merlot", 2)
		require.NoError(t, err)

		val.coupon = &coupon.Coupon{ID: "c1", Code: "WINE10", DiscountType: coupon.DiscountPercentage, DiscountValue: d("10")}
		_, err = svc.ApplyCoupon(ctx, "u1", "WINE10")
		require.NoError(t, err)

		val.coupon = &coupon.Coupon{ID: "c2", Code: "FLAT5", DiscountType: coupon.DiscountFixed, DiscountValue: d("5")}
		c, err := svc.ApplyCoupon(ctx, "u1", "FLAT5")
		require.NoError(t, err)
		require.NotNil(t, c.Coupon)
		assert.Equal(t, "FLAT5", c.Coupon.Code)
		assert.True(t, c.Pricing.Discount.Equal(d("5.00")))
	})

	t.Run("removing when none applied fails", func(t *testing.T) {
		svc, _, _, _ := fixture(t)
		_, err := svc.AddItem(ctx, "u1", "merlot", 1)
		require.NoError(t, err)
		_, err = svc.RemoveCoupon(ctx, "u1")
		assert.ErrorIs(t, err, ErrNoCoupon)
	})
}

func TestFlashSalePriceFeedsCartPricing(t *testing.T) {
	ctx := context.Background()
	svc, _, products, _ := fixture(t)

	now := time.Now()
	p := products.products["merlot"]
	p.FlashSale = &product.FlashOverride{
		SaleID:       "sale1",
		SpecialPrice: d("15.00"),
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		Active:       true,
	}
	products.products["merlot"] = p

	c, err := svc.AddItem(ctx, "u1", "merlot", 1)
	require.NoError(t, err)
	assert.True(t, c.Pricing.Subtotal.Equal(d("15.00")), "active override price used")

	// Expired sale falls back to the default price.
	p.FlashSale.EndDate = now.Add(-time.Minute)
	products.products["merlot"] = p
	c, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.Pricing.Subtotal.Equal(d("20.00")), "expired override ignored")
}

func TestMutationCallback(t *testing.T) {
	ctx := context.Background()
	carts := newMemCarts()
	products := &memProducts{products: map[string]product.Product{
		"merlot": {ID: "merlot", DefaultPrice: d("20.00"), DefaultQuantity: 10},
	}}

	var calls int
	svc := NewService(carts, products, &stubValidator{}, func(userID, _ string) {
		calls++
		assert.Equal(t, "u1", userID)
	})

	_, err := svc.AddItem(ctx, "u1", "merlot", 1)
	require.NoError(t, err)
	_, err = svc.IncrementItem(ctx, "u1", "merlot")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
