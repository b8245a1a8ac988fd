package flashsale

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
)

type memSales struct {
	Repository

	sales map[string]*FlashSale
}

func newMemSales() *memSales {
	return &memSales{sales: make(map[string]*FlashSale)}
}

func (m *memSales) FindByID(_ context.Context, id string) (*FlashSale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *memSales) Create(_ context.Context, s *FlashSale) error {
	clone := *s
	m.sales[s.ID] = &clone
	return nil
}

func (m *memSales) Update(_ context.Context, s *FlashSale) error {
	clone := *s
	m.sales[s.ID] = &clone
	return nil
}

func (m *memSales) Delete(_ context.Context, id string) error {
	delete(m.sales, id)
	return nil
}

func (m *memSales) RecordSale(_ context.Context, id string, qty int) (*int, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.SoldCount += qty
	if s.StockRemaining == nil {
		return nil, nil
	}
	*s.StockRemaining -= qty
	remaining := *s.StockRemaining
	return &remaining, nil
}

type memProducts struct {
	product.Repository

	linked    map[string]string // productID -> saleID carrying the override
	overrides map[string]product.FlashOverride
	released  []string
}

func newMemProducts() *memProducts {
	return &memProducts{
		linked:    make(map[string]string),
		overrides: make(map[string]product.FlashOverride),
	}
}

func (m *memProducts) ApplyFlashOverride(_ context.Context, ids []string, o product.FlashOverride) error {
	for _, id := range ids {
		m.linked[id] = o.SaleID
		m.overrides[id] = o
	}
	return nil
}

func (m *memProducts) ReleaseFlashOverride(_ context.Context, ids []string, saleID string) error {
	for _, id := range ids {
		if m.linked[id] == saleID {
			delete(m.linked, id)
			delete(m.overrides, id)
			m.released = append(m.released, id)
		}
	}
	return nil
}

func (m *memProducts) FindLinkedToOtherSale(_ context.Context, ids []string, exclude string, _ time.Time) ([]string, error) {
	var out []string
	for _, id := range ids {
		if sale, ok := m.linked[id]; ok && sale != exclude {
			out = append(out, id)
		}
	}
	return out, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestServiceCreate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sale := &FlashSale{
		ID:        "sale1",
		Name:      "Summer reds",
		StartDate: now,
		EndDate:   now.Add(2 * time.Hour),
		IsActive:  true,
		Items: []SaleItem{
			{ProductID: "p1", SpecialPrice: decimal.RequireFromString("15.00")},
		},
	}

	t.Run("applies override to linked products", func(t *testing.T) {
		sales, products := newMemSales(), newMemProducts()
		svc := NewService(sales, products)
		svc.now = fixedClock(now)

		require.NoError(t, svc.Create(context.Background(), sale))
		o, ok := products.overrides["p1"]
		require.True(t, ok)
		assert.Equal(t, "sale1", o.SaleID)
		assert.True(t, o.SpecialPrice.Equal(decimal.RequireFromString("15.00")))
	})

	t.Run("conflicting product fails with Conflict", func(t *testing.T) {
		sales, products := newMemSales(), newMemProducts()
		products.linked["p1"] = "other-sale"
		svc := NewService(sales, products)
		svc.now = fixedClock(now)

		err := svc.Create(context.Background(), sale)
		assert.ErrorIs(t, err, ErrProductConflict)
	})

	t.Run("inverted window rejected", func(t *testing.T) {
		svc := NewService(newMemSales(), newMemProducts())
		bad := *sale
		bad.StartDate, bad.EndDate = bad.EndDate, bad.StartDate
		assert.ErrorIs(t, svc.Create(context.Background(), &bad), ErrInvalidWindow)
	})
}

func TestServiceUpdateReconcilesProducts(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales, products := newMemSales(), newMemProducts()
	svc := NewService(sales, products)
	svc.now = fixedClock(now)

	orig := &FlashSale{
		ID:        "sale1",
		StartDate: now,
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
		Items: []SaleItem{
			{ProductID: "p1", SpecialPrice: decimal.RequireFromString("15")},
			{ProductID: "p2", SpecialPrice: decimal.RequireFromString("12")},
		},
	}
	require.NoError(t, svc.Create(context.Background(), orig))

	// p2 leaves, p3 joins.
	updated := *orig
	updated.Items = []SaleItem{
		{ProductID: "p1", SpecialPrice: decimal.RequireFromString("15")},
		{ProductID: "p3", SpecialPrice: decimal.RequireFromString("18")},
	}
	require.NoError(t, svc.Update(context.Background(), &updated))

	assert.Contains(t, products.released, "p2")
	assert.Contains(t, products.linked, "p1")
	assert.Contains(t, products.linked, "p3")
	assert.NotContains(t, products.linked, "p2")
}

func TestServiceDeleteReleasesAll(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales, products := newMemSales(), newMemProducts()
	svc := NewService(sales, products)
	svc.now = fixedClock(now)

	sale := &FlashSale{
		ID:        "sale1",
		StartDate: now,
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
		Items:     []SaleItem{{ProductID: "p1"}, {ProductID: "p2"}},
	}
	require.NoError(t, svc.Create(context.Background(), sale))
	require.NoError(t, svc.Delete(context.Background(), "sale1"))

	assert.Empty(t, products.linked)
}

func TestServiceRecordSaleReleasesOnSellout(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sales, products := newMemSales(), newMemProducts()
	svc := NewService(sales, products)
	svc.now = fixedClock(now)

	total := 2
	sale := &FlashSale{
		ID:         "sale1",
		StartDate:  now,
		EndDate:    now.Add(time.Hour),
		IsActive:   true,
		TotalStock: &total,
		Items:      []SaleItem{{ProductID: "p1"}},
	}
	require.NoError(t, svc.Create(context.Background(), sale))

	require.NoError(t, svc.RecordSale(context.Background(), "sale1", 1))
	assert.Contains(t, products.linked, "p1", "override stays while stock remains")

	require.NoError(t, svc.RecordSale(context.Background(), "sale1", 1))
	assert.NotContains(t, products.linked, "p1", "override released on sellout")
}
