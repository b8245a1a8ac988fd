package flashsale

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
)

// Service coordinates flash-sale lifecycle with the denormalized price
// override carried on product records.
type Service struct {
	sales    Repository
	products product.Repository
	now      func() time.Time
}

// NewService creates a flash-sale Service.
func NewService(sales Repository, products product.Repository) *Service {
	return &Service{sales: sales, products: products, now: time.Now}
}

// Create validates the window, checks that no target product is linked to a
// different active-or-pending sale, persists the sale, and applies the price
// override to every linked product.
func (s *Service) Create(ctx context.Context, sale *FlashSale) error {
	if !sale.StartDate.Before(sale.EndDate) {
		return ErrInvalidWindow
	}

	now := s.now()
	conflicts, err := s.products.FindLinkedToOtherSale(ctx, sale.ProductIDs(), sale.ID, now)
	if err != nil {
		return errors.Wrap(err, "check sale conflicts")
	}
	if len(conflicts) > 0 {
		return ErrProductConflict.WithCause(errors.Errorf("products %v", conflicts))
	}

	sale.CreatedAt = now
	sale.UpdatedAt = now
	sale.SoldCount = 0
	if sale.TotalStock != nil {
		remaining := *sale.TotalStock
		sale.StockRemaining = &remaining
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return errors.Wrap(err, "create flash sale")
	}

	return s.applyOverrides(ctx, sale)
}

// Update reconciles the product list: overrides are released on removed
// products and applied to added ones, with conflicts re-checked only for the
// newly added products. Price or window changes re-apply to all products.
func (s *Service) Update(ctx context.Context, sale *FlashSale) error {
	if !sale.StartDate.Before(sale.EndDate) {
		return ErrInvalidWindow
	}

	current, err := s.sales.FindByID(ctx, sale.ID)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(sale.Items))
	for _, it := range sale.Items {
		keep[it.ProductID] = true
	}
	var removed []string
	for _, it := range current.Items {
		if !keep[it.ProductID] {
			removed = append(removed, it.ProductID)
		}
	}
	existing := make(map[string]bool, len(current.Items))
	for _, it := range current.Items {
		existing[it.ProductID] = true
	}
	var added []string
	for _, it := range sale.Items {
		if !existing[it.ProductID] {
			added = append(added, it.ProductID)
		}
	}

	if len(added) > 0 {
		conflicts, err := s.products.FindLinkedToOtherSale(ctx, added, sale.ID, s.now())
		if err != nil {
			return errors.Wrap(err, "check sale conflicts")
		}
		if len(conflicts) > 0 {
			return ErrProductConflict.WithCause(errors.Errorf("products %v", conflicts))
		}
	}

	sale.CreatedAt = current.CreatedAt
	sale.SoldCount = current.SoldCount
	sale.StockRemaining = current.StockRemaining
	sale.UpdatedAt = s.now()
	if err := s.sales.Update(ctx, sale); err != nil {
		return errors.Wrap(err, "update flash sale")
	}

	if len(removed) > 0 {
		if err := s.products.ReleaseFlashOverride(ctx, removed, sale.ID); err != nil {
			return errors.Wrap(err, "release overrides")
		}
	}
	return s.applyOverrides(ctx, sale)
}

// Delete removes the sale and releases the override on every linked product.
func (s *Service) Delete(ctx context.Context, id string) error {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete flash sale")
	}
	if err := s.products.ReleaseFlashOverride(ctx, sale.ProductIDs(), id); err != nil {
		return errors.Wrap(err, "release overrides")
	}
	return nil
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, id string) (*FlashSale, error) {
	return s.sales.FindByID(ctx, id)
}

// List returns all sales.
func (s *Service) List(ctx context.Context) ([]FlashSale, error) {
	return s.sales.List(ctx)
}

// Active returns the sales currently in effect. Expired or sold-out sales
// are filtered even when the store has not yet caught up.
func (s *Service) Active(ctx context.Context) ([]FlashSale, error) {
	now := s.now()
	sales, err := s.sales.FindActive(ctx, now)
	if err != nil {
		return nil, err
	}
	out := sales[:0]
	for _, sale := range sales {
		if sale.ActiveAt(now) {
			out = append(out, sale)
		}
	}
	return out, nil
}

// RecordSale consumes flash-sale stock for a purchase. When the last unit
// sells, the override is released from every linked product so regular
// pricing resumes immediately.
func (s *Service) RecordSale(ctx context.Context, id string, qty int) error {
	remaining, err := s.sales.RecordSale(ctx, id, qty)
	if err != nil {
		return err
	}
	if remaining != nil && *remaining <= 0 {
		sale, err := s.sales.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.products.ReleaseFlashOverride(ctx, sale.ProductIDs(), id); err != nil {
			return errors.Wrap(err, "release overrides after sellout")
		}
	}
	return nil
}

func (s *Service) applyOverrides(ctx context.Context, sale *FlashSale) error {
	for _, it := range sale.Items {
		o := product.FlashOverride{
			SaleID:       sale.ID,
			SpecialPrice: it.SpecialPrice,
			StartDate:    sale.StartDate,
			EndDate:      sale.EndDate,
			Active:       sale.IsActive,
		}
		if err := s.products.ApplyFlashOverride(ctx, []string{it.ProductID}, o); err != nil {
			return errors.Wrap(err, "apply override")
		}
	}
	return nil
}
