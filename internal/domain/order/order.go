// Package order materializes priced carts into immutable order records,
// captures payment through an external gateway, and notifies connected
// observers of every state change.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// Status is an order's lifecycle state. Paid is distinct from Pending:
// Pending means awaiting payment, Paid means captured and awaiting
// fulfillment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = apperr.NotFound("order not found")
	// ErrEmptyCart is returned when materializing from an empty or missing cart.
	ErrEmptyCart = apperr.Invalid("cart is empty")
	// ErrNoShipment is returned when the shipment address is missing.
	ErrNoShipment = apperr.Invalid("shipment address is required")
)

// Item is a line frozen into the order by value. Unit prices are captured at
// creation and never recomputed from live product prices.
type Item struct {
	ProductID   string
	Name        string
	UnitPrice   decimal.Decimal
	Quantity    int
	FlashSaleID string // sale that priced this line, when any
}

// Payment holds the gateway capture details.
type Payment struct {
	Reference    string
	ClientSecret string
	Method       string
	Currency     string
	CapturedAt   time.Time
}

// Order is immutable after creation except for status, payment, and
// tracking fields.
type Order struct {
	ID             string
	UserID         string
	Items          []Item
	SubTotal       decimal.Decimal
	Discount       decimal.Decimal
	ShippingCost   decimal.Decimal
	TotalCost      decimal.Decimal
	CouponCode     string
	PromotionID    string
	ShipmentID     string
	Note           string
	Status         Status
	Payment        *Payment
	TrackingNumber string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetPayment(ctx context.Context, id string, p Payment, status Status, trackingNumber string) error

	// CompletedOrderCount and PromotionUsageCount back promotion
	// eligibility checks (promotion.UserHistory).
	CompletedOrderCount(ctx context.Context, userID string) (int, error)
	PromotionUsageCount(ctx context.Context, userID, promotionID string) (int, error)
}

// Broadcaster fans out order events to connected listeners. Delivery is
// fire-and-forget: a failed or missed delivery never rolls back state.
type Broadcaster interface {
	Emit(event string, payload any)
}

// Gateway is the external payment collaborator. Amounts are in minor units.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, description string) (PaymentIntent, error)
}

// PaymentIntent is the gateway's handle for a capture attempt.
type PaymentIntent struct {
	Reference    string
	ClientSecret string
}

// Event names broadcast to listeners.
const (
	EventOrderCreated = "order:created"
	EventOrderUpdated = "order:updated"
)
