package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/cart"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/promotion"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/shipment"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// FlashSaleRecorder consumes flash-sale stock for purchased override-priced
// lines. Satisfied by the flashsale service.
type FlashSaleRecorder interface {
	RecordSale(ctx context.Context, saleID string, qty int) error
}

// PromotionResolver picks the promotion applying to an order and consumes
// its usage once the order persists. Satisfied by promotion.Applier.
type PromotionResolver interface {
	Resolve(ctx context.Context, userID, code string, subtotal decimal.Decimal) (*promotion.Promotion, error)
	RecordUse(ctx context.Context, id string) error
}

// Service materializes orders and drives their lifecycle.
type Service struct {
	orders     Repository
	carts      cart.Repository
	products   product.Repository
	shipments  shipment.Repository
	flashSales FlashSaleRecorder
	promotions PromotionResolver
	gateway    Gateway
	broadcast  Broadcaster
	now        func() time.Time
}

// NewService creates an order Service. The broadcaster is injected
// explicitly; there is no process-wide singleton.
func NewService(
	orders Repository,
	carts cart.Repository,
	products product.Repository,
	shipments shipment.Repository,
	flashSales FlashSaleRecorder,
	promotions PromotionResolver,
	gateway Gateway,
	broadcast Broadcaster,
) *Service {
	return &Service{
		orders:     orders,
		carts:      carts,
		products:   products,
		shipments:  shipments,
		flashSales: flashSales,
		promotions: promotions,
		gateway:    gateway,
		broadcast:  broadcast,
		now:        time.Now,
	}
}

// Create materializes the user's cart into an immutable order. Items are
// snapshotted by value with their current effective unit prices; totalCost is
// the discounted subtotal plus the shipment's delivery cost. Stock is
// consumed with atomic decrement-if-sufficient writes, and the cart is
// emptied on success. The order-created event fires only after persistence.
//
// The cart's coupon discount is recomputed against the live subtotal rather
// than taken from the stored snapshot, since effective prices may have moved
// since the cart was last written. When promoCode names a promotion it must
// resolve and pass eligibility; when empty, the best applicable promotion is
// applied automatically.
func (s *Service) Create(ctx context.Context, userID, shipmentID, promoCode, note string) (*Order, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if shipmentID == "" {
		return nil, ErrNoShipment
	}
	ship, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, shipment.ErrNotFound) {
			return nil, ErrNoShipment
		}
		return nil, err
	}

	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	now := s.now()
	items := make([]Item, 0, len(c.Items))
	subtotal := decimal.Zero
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, product.ErrNotFound.WithCause(errors.Errorf("product %s", it.ProductID))
		}
		unit := p.EffectivePrice(now)
		item := Item{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: unit,
			Quantity:  it.Quantity,
		}
		if p.FlashSale != nil && p.FlashSale.InWindow(now) {
			item.FlashSaleID = p.FlashSale.SaleID
		}
		items = append(items, item)
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	discount := couponDiscount(c.Coupon, subtotal)

	var promo *promotion.Promotion
	if s.promotions != nil {
		promo, err = s.promotions.Resolve(ctx, userID, promoCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	shippingCost := ship.DeliveryCost
	if promo != nil {
		if promo.DiscountType == promotion.DiscountFreeShipping {
			shippingCost = decimal.Zero
		} else {
			discount = discount.Add(subtotal.Sub(promotion.DiscountedPrice(promo, subtotal)))
		}
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discountedSubtotal := subtotal.Sub(discount)

	// Consume stock with conditional decrements, one write per line.
	for _, item := range items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	couponCode := ""
	if c.Coupon != nil {
		couponCode = c.Coupon.Code
	}
	promotionID := ""
	if promo != nil {
		promotionID = promo.ID
	}

	o := &Order{
		UserID:       userID,
		Items:        items,
		SubTotal:     subtotal.Round(2),
		Discount:     discount.Round(2),
		ShippingCost: shippingCost.Round(2),
		TotalCost:    discountedSubtotal.Add(shippingCost).Round(2),
		CouponCode:   couponCode,
		PromotionID:  promotionID,
		ShipmentID:   ship.ID,
		Note:         note,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Flash-sale stock bookkeeping happens after the order exists; a failure
	// here is logged by the caller, it does not undo the order.
	if s.flashSales != nil {
		for _, item := range items {
			if item.FlashSaleID == "" {
				continue
			}
			if err := s.flashSales.RecordSale(ctx, item.FlashSaleID, item.Quantity); err != nil {
				return o, errors.Wrap(err, "record flash sale")
			}
		}
	}

	// Promotion usage follows the same rule: the order stands even if the
	// usage counter fails to advance.
	if promo != nil {
		if err := s.promotions.RecordUse(ctx, promo.ID); err != nil {
			return o, errors.Wrap(err, "record promotion use")
		}
	}

	if err := s.carts.Delete(ctx, userID); err != nil {
		return o, errors.Wrap(err, "clear cart")
	}

	s.emit(EventOrderCreated, o)
	return o, nil
}

// CapturePayment creates a payment intent for the order's total. Gateway
// failures surface without mutating the order. On success the gateway
// reference is stored, the status moves to paid, and a deterministic
// tracking number is assigned.
func (s *Service) CapturePayment(ctx context.Context, orderID, method, description, currency string) (*Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amountMinor := o.TotalCost.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.gateway.CreatePaymentIntent(ctx, amountMinor, currency, description)
	if err != nil {
		return nil, apperr.Internal("payment gateway failure").WithCause(err)
	}

	p := Payment{
		Reference:    intent.Reference,
		ClientSecret: intent.ClientSecret,
		Method:       method,
		Currency:     currency,
		CapturedAt:   s.now(),
	}
	tracking := TrackingNumber(o.UserID, o.ID, o.CreatedAt)
	if err := s.orders.SetPayment(ctx, o.ID, p, StatusPaid, tracking); err != nil {
		return nil, errors.Wrap(err, "store payment")
	}

	o.Payment = &p
	o.Status = StatusPaid
	o.TrackingNumber = tracking
	s.emit(EventOrderUpdated, o)
	return o, nil
}

// UpdateStatus overwrites the order status unconditionally and broadcasts
// the change after persistence. There is deliberately no transition guard.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	o.Status = status
	s.emit(EventOrderUpdated, o)
	return o, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListByUser returns a user's orders.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// TrackingNumber derives the deterministic tracking identifier from the last
// four characters of the user ID, the tail of the order ID, and the order
// creation date, truncated to ten characters.
func TrackingNumber(userID, orderID string, createdAt time.Time) string {
	tn := strings.ToUpper(tail(userID, 4) + tail(orderID, 4) + createdAt.Format("20060102"))
	if len(tn) > 10 {
		tn = tn[:10]
	}
	return tn
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func (s *Service) emit(event string, o *Order) {
	if s.broadcast != nil {
		s.broadcast.Emit(event, o)
	}
}

var hundred = decimal.NewFromInt(100)

// couponDiscount applies the cart's coupon snapshot to the given subtotal,
// mirroring the cart's own pricing rules.
func couponDiscount(snap *cart.CouponSnapshot, subtotal decimal.Decimal) decimal.Decimal {
	if snap == nil {
		return decimal.Zero
	}
	switch snap.DiscountType {
	case coupon.DiscountPercentage:
		return subtotal.Mul(snap.DiscountValue).Div(hundred)
	case coupon.DiscountFixed:
		return decimal.Min(subtotal, snap.DiscountValue)
	}
	return decimal.Zero
}
