package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
)

// Mutated is called after every successful cart mutation, letting the
// abandonment-reminder scheduler reset its timer for the cart.
type Mutated func(userID, cartID string)

// Service implements the cart operations. Every mutating operation ends with
// a pricing recomputation from live product prices before the cart is saved.
type Service struct {
	carts    Repository
	products product.Repository
	coupons  coupon.Validator
	onMutate Mutated
	now      func() time.Time
}

// NewService creates a cart Service. onMutate may be nil.
func NewService(carts Repository, products product.Repository, coupons coupon.Validator, onMutate Mutated) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		onMutate: onMutate,
		now:      time.Now,
	}
}

// Get returns the user's cart with a freshly recomputed pricing snapshot.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.reprice(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds quantity units of a product, summing with an existing line.
// The product must exist and carry enough stock for the resulting quantity.
// The cart is created on first add.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		c = &Cart{UserID: userID, CreatedAt: s.now()}
	} else if err != nil {
		return nil, err
	}

	want := quantity
	if i := c.Find(productID); i >= 0 {
		want += c.Items[i].Quantity
	}
	if want > p.Available() {
		return nil, ErrInsufficientStock
	}

	if i := c.Find(productID); i >= 0 {
		c.Items[i].Quantity = want
	} else {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	}

	return c, s.saveRepriced(ctx, c)
}

// UpdateItemQuantity replaces the quantity of an existing line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Available() {
		return nil, ErrInsufficientStock
	}

	c.Items[i].Quantity = quantity
	return c, s.saveRepriced(ctx, c)
}

// RemoveItem drops a line entirely.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return c, s.saveRepriced(ctx, c)
}

// IncrementItem adds one unit to an existing line, stock permitting.
func (s *Service) IncrementItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if c.Items[i].Quantity+1 > p.Available() {
		return nil, ErrInsufficientStock
	}
	c.Items[i].Quantity++
	return c, s.saveRepriced(ctx, c)
}

// DecrementItem removes one unit from an existing line. Decrementing a
// quantity-one line removes the line; a zero-quantity line never persists.
func (s *Service) DecrementItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	if c.Items[i].Quantity <= 1 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity--
	}
	return c, s.saveRepriced(ctx, c)
}

// Clear empties the cart's items, drops any applied coupon, and resets the
// pricing snapshot to zero.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Items = nil
	c.Coupon = nil
	return c, s.saveRepriced(ctx, c)
}

// ApplyCoupon validates the code against the live subtotal and freezes a
// coupon snapshot onto the cart. A cart holds at most one coupon; reapplying
// replaces the previous one. A failed validation leaves pricing unchanged.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Validate against the live subtotal, ignoring any coupon currently held.
	prices, err := s.priceMap(ctx, c)
	if err != nil {
		return nil, err
	}
	probe := *c
	probe.Coupon = nil
	recomputePricing(&probe, prices)

	cp, err := s.coupons.Validate(ctx, code, probe.Pricing.Subtotal)
	if err != nil {
		return nil, err
	}

	c.Coupon = &CouponSnapshot{
		CouponID:      cp.ID,
		Code:          cp.Code,
		DiscountValue: cp.DiscountValue,
		DiscountType:  cp.DiscountType,
	}
	recomputePricing(c, prices)
	c.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	s.notifyMutated(c)
	return c, nil
}

// RemoveCoupon clears the coupon snapshot and restores undiscounted totals.
func (s *Service) RemoveCoupon(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.Coupon == nil {
		return nil, ErrNoCoupon
	}
	c.Coupon = nil
	return c, s.saveRepriced(ctx, c)
}

// reprice recomputes the pricing snapshot in place without persisting.
func (s *Service) reprice(ctx context.Context, c *Cart) error {
	prices, err := s.priceMap(ctx, c)
	if err != nil {
		return err
	}
	recomputePricing(c, prices)
	return nil
}

func (s *Service) saveRepriced(ctx context.Context, c *Cart) error {
	if err := s.reprice(ctx, c); err != nil {
		return err
	}
	c.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, c); err != nil {
		return errors.Wrap(err, "save cart")
	}
	s.notifyMutated(c)
	return nil
}

// priceMap batch-fetches the cart's products and returns an effective-price
// resolver. Products that vanished from the catalog price at zero rather
// than failing the whole cart.
func (s *Service) priceMap(ctx context.Context, c *Cart) (unitPricer, error) {
	if len(c.Items) == 0 {
		return func(string) decimal.Decimal { return decimal.Zero }, nil
	}
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get cart products")
	}
	now := s.now()
	prices := make(map[string]decimal.Decimal, len(fetched))
	for i := range fetched {
		prices[fetched[i].ID] = fetched[i].EffectivePrice(now)
	}
	return func(id string) decimal.Decimal { return prices[id] }, nil
}

func (s *Service) notifyMutated(c *Cart) {
	if s.onMutate != nil {
		s.onMutate(c.UserID, c.ID)
	}
}
