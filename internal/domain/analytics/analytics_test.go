package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReports struct {
	Repository
	totals map[time.Time]Totals
}

func (s *stubReports) Totals(_ context.Context, from, _ time.Time) (Totals, error) {
	return s.totals[from], nil
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestSalesSummaryGrowth(t *testing.T) {
	tests := []struct {
		name          string
		curr, prev    Totals
		revenueGrowth string
		orderGrowth   string
	}{
		{
			name:          "growth against previous window",
			curr:          Totals{OrderCount: 30, Revenue: decimal.NewFromInt(1500)},
			prev:          Totals{OrderCount: 20, Revenue: decimal.NewFromInt(1000)},
			revenueGrowth: "50",
			orderGrowth:   "50",
		},
		{
			name:          "decline",
			curr:          Totals{OrderCount: 10, Revenue: decimal.NewFromInt(750)},
			prev:          Totals{OrderCount: 20, Revenue: decimal.NewFromInt(1000)},
			revenueGrowth: "-25",
			orderGrowth:   "-50",
		},
		{
			name:          "empty previous window with sales reports 100",
			curr:          Totals{OrderCount: 5, Revenue: decimal.NewFromInt(200)},
			prev:          Totals{Revenue: decimal.Zero},
			revenueGrowth: "100",
			orderGrowth:   "100",
		},
		{
			name:          "two empty windows report 0",
			curr:          Totals{Revenue: decimal.Zero},
			prev:          Totals{Revenue: decimal.Zero},
			revenueGrowth: "0",
			orderGrowth:   "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Window is [day 8, day 15); the previous window starts on day 1.
			repo := &stubReports{totals: map[time.Time]Totals{
				day(8): tt.curr,
				day(1): tt.prev,
			}}
			sum, err := NewService(repo).SalesSummary(context.Background(), day(8), day(15))
			require.NoError(t, err)
			assert.True(t, sum.RevenueGrowth.Equal(decimal.RequireFromString(tt.revenueGrowth)),
				"revenue growth %s", sum.RevenueGrowth)
			assert.True(t, sum.OrderGrowth.Equal(decimal.RequireFromString(tt.orderGrowth)),
				"order growth %s", sum.OrderGrowth)
		})
	}
}

func TestSalesSummaryRejectsInvertedRange(t *testing.T) {
	_, err := NewService(&stubReports{}).SalesSummary(context.Background(), day(15), day(8))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewService(&stubReports{}).SalesSummary(context.Background(), day(8), day(8))
	assert.ErrorIs(t, err, ErrInvalidRange)
}
