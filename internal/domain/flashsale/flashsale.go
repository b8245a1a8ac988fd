// Package flashsale implements time-windowed per-product price overrides.
// The override is denormalized onto product records when a sale is created or
// updated and released when products leave the sale, the sale is deleted, or
// its stock runs out.
package flashsale

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

var (
	// ErrNotFound is returned when a flash sale does not exist.
	ErrNotFound = apperr.NotFound("flash sale not found")
	// ErrProductConflict is returned when a target product is already linked
	// to a different active-or-pending flash sale.
	ErrProductConflict = apperr.Conflict("product already linked to another flash sale")
	// ErrInvalidWindow is returned when startDate is not before endDate.
	ErrInvalidWindow = apperr.Invalid("flash sale start date must be before end date")
)

// SaleItem links one product to its special price within a sale.
type SaleItem struct {
	ProductID    string
	SpecialPrice decimal.Decimal
}

// FlashSale is a time-boxed price override covering a set of products.
type FlashSale struct {
	ID                 string
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	DiscountPercentage decimal.Decimal
	Items              []SaleItem
	IsActive           bool
	TotalStock         *int
	StockRemaining     *int
	SoldCount          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ActiveAt reports whether the sale is currently in effect: flagged active,
// inside its window, and not sold out (nil StockRemaining means unlimited).
func (s *FlashSale) ActiveAt(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if now.Before(s.StartDate) || now.After(s.EndDate) {
		return false
	}
	if s.StockRemaining != nil && *s.StockRemaining <= 0 {
		return false
	}
	return true
}

// TimeRemaining formats endDate − now as HH:MM:SS. A closed or expired
// window yields "00:00:00", never a negative duration.
func (s *FlashSale) TimeRemaining(now time.Time) string {
	left := s.EndDate.Sub(now)
	if left < 0 {
		left = 0
	}
	left = left.Truncate(time.Second)
	h := int(left.Hours())
	m := int(left.Minutes()) % 60
	sec := int(left.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// ProductIDs returns the IDs of all linked products.
func (s *FlashSale) ProductIDs() []string {
	ids := make([]string, len(s.Items))
	for i, it := range s.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// Repository defines persistence operations for flash sales.
type Repository interface {
	FindByID(ctx context.Context, id string) (*FlashSale, error)
	FindActive(ctx context.Context, now time.Time) ([]FlashSale, error)
	List(ctx context.Context) ([]FlashSale, error)
	Create(ctx context.Context, s *FlashSale) error
	Update(ctx context.Context, s *FlashSale) error
	Delete(ctx context.Context, id string) error

	// RecordSale atomically increments soldCount and, when stock is tracked,
	// decrements stockRemaining. Returns the post-update remaining stock, or
	// nil when the sale tracks no stock.
	RecordSale(ctx context.Context, id string, qty int) (*int, error)
}
