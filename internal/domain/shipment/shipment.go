// Package shipment holds delivery addresses and their delivery cost,
// referenced by orders at materialization time.
package shipment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// ErrNotFound is returned when a shipment address does not exist.
var ErrNotFound = apperr.NotFound("shipment address not found")

// Shipment is a delivery address plus its delivery cost.
type Shipment struct {
	ID           string
	UserID       string
	Recipient    string
	Phone        string
	Street       string
	City         string
	Country      string
	DeliveryCost decimal.Decimal
	IsDefault    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence operations for shipment addresses.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Shipment, error)
	ListByUser(ctx context.Context, userID string) ([]Shipment, error)
	Create(ctx context.Context, s *Shipment) error
	Update(ctx context.Context, s *Shipment) error
	Delete(ctx context.Context, id string) error
}
