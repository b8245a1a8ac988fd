// Package analytics reports sales performance over order history.
//
// Aggregation itself runs inside the store; this package defines the
// report shapes and derives growth figures by comparing a window
// against the equally sized window immediately before it.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

var ErrInvalidRange = apperr.Invalid("range end must be after range start")

const DefaultTopLimit = 10

// Totals are the raw aggregates for one time window. Cancelled orders
// are excluded.
type Totals struct {
	OrderCount int
	ItemsSold  int
	Revenue    decimal.Decimal
}

// Summary compares a window's totals against the preceding window of
// the same length. Growth values are percentages rounded to 2dp.
type Summary struct {
	From          time.Time
	To            time.Time
	Totals        Totals
	RevenueGrowth decimal.Decimal
	OrderGrowth   decimal.Decimal
}

type ProductSales struct {
	ProductID string
	Name      string
	UnitsSold int
	Revenue   decimal.Decimal
}

type StatusCount struct {
	Status order.Status
	Count  int
}

type FlashSaleStats struct {
	SaleID    string
	UnitsSold int
	Revenue   decimal.Decimal
}

type Repository interface {
	Totals(ctx context.Context, from, to time.Time) (Totals, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
	StatusBreakdown(ctx context.Context, from, to time.Time) ([]StatusCount, error)
	FlashSalePerformance(ctx context.Context, from, to time.Time) ([]FlashSaleStats, error)
}

type Service struct {
	reports Repository
}

func NewService(reports Repository) *Service {
	return &Service{reports: reports}
}

// SalesSummary aggregates [from, to) and reports growth against the
// window of equal length ending at from.
func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) (*Summary, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	curr, err := s.reports.Totals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	prevFrom := from.Add(-to.Sub(from))
	prev, err := s.reports.Totals(ctx, prevFrom, from)
	if err != nil {
		return nil, err
	}
	return &Summary{
		From:          from,
		To:            to,
		Totals:        curr,
		RevenueGrowth: growth(curr.Revenue, prev.Revenue),
		OrderGrowth:   growth(decimal.NewFromInt(int64(curr.OrderCount)), decimal.NewFromInt(int64(prev.OrderCount))),
	}, nil
}

func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return s.reports.TopProducts(ctx, from, to, limit)
}

func (s *Service) StatusBreakdown(ctx context.Context, from, to time.Time) ([]StatusCount, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	return s.reports.StatusBreakdown(ctx, from, to)
}

func (s *Service) FlashSalePerformance(ctx context.Context, from, to time.Time) ([]FlashSaleStats, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	return s.reports.FlashSalePerformance(ctx, from, to)
}

// growth returns the percentage change from prev to curr. A zero
// previous window reports 100% when anything was sold and 0% when
// nothing was, so dashboards never divide by zero.
func growth(curr, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		if curr.IsPositive() {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return curr.Sub(prev).Div(prev).Mul(hundred).Round(2)
}
