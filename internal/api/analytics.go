package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// parseWindow reads the from/to query parameters (RFC 3339). When absent,
// the window defaults to the last 30 days.
func parseWindow(c *gin.Context) (from, to time.Time, ok bool) {
	to = time.Now()
	from = to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondInvalid(c, "from must be RFC 3339")
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondInvalid(c, "to must be RFC 3339")
			return from, to, false
		}
		to = t
	}
	return from, to, true
}

func (s *Server) salesSummary(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	sum, err := s.reports.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"from":          sum.From,
		"to":            sum.To,
		"orderCount":    sum.Totals.OrderCount,
		"itemsSold":     sum.Totals.ItemsSold,
		"revenue":       sum.Totals.Revenue,
		"revenueGrowth": sum.RevenueGrowth,
		"orderGrowth":   sum.OrderGrowth,
	})
}

func (s *Server) topProducts(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondInvalid(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	rows, err := s.reports.TopProducts(c.Request.Context(), from, to, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	type row struct {
		ProductID string          `json:"productId"`
		Name      string          `json:"name"`
		UnitsSold int             `json:"unitsSold"`
		Revenue   decimal.Decimal `json:"revenue"`
	}
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row{ProductID: r.ProductID, Name: r.Name, UnitsSold: r.UnitsSold, Revenue: r.Revenue})
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) statusBreakdown(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	rows, err := s.reports.StatusBreakdown(c.Request.Context(), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	breakdown := make(map[string]int, len(rows))
	for _, r := range rows {
		breakdown[string(r.Status)] = r.Count
	}
	respond(c, http.StatusOK, breakdown)
}

func (s *Server) flashSalePerformance(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	rows, err := s.reports.FlashSalePerformance(c.Request.Context(), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	type row struct {
		SaleID    string          `json:"saleId"`
		UnitsSold int             `json:"unitsSold"`
		Revenue   decimal.Decimal `json:"revenue"`
	}
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row{SaleID: r.SaleID, UnitsSold: r.UnitsSold, Revenue: r.Revenue})
	}
	respond(c, http.StatusOK, out)
}
