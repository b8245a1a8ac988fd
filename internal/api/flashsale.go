package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/flashsale"
)

type saleItemPayload struct {
	ProductID    string          `json:"productId"`
	SpecialPrice decimal.Decimal `json:"specialPrice"`
}

type flashSaleRequest struct {
	Name               string            `json:"name" binding:"required"`
	StartDate          time.Time         `json:"startDate" binding:"required"`
	EndDate            time.Time         `json:"endDate" binding:"required"`
	DiscountPercentage decimal.Decimal   `json:"discountPercentage"`
	Items              []saleItemPayload `json:"items" binding:"required"`
	IsActive           bool              `json:"isActive"`
	TotalStock         *int              `json:"totalStock"`
}

type flashSaleResponse struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	StartDate          time.Time         `json:"startDate"`
	EndDate            time.Time         `json:"endDate"`
	DiscountPercentage decimal.Decimal   `json:"discountPercentage"`
	Items              []saleItemPayload `json:"items"`
	IsActive           bool              `json:"isActive"`
	TotalStock         *int              `json:"totalStock,omitempty"`
	StockRemaining     *int              `json:"stockRemaining,omitempty"`
	SoldCount          int               `json:"soldCount"`
	TimeRemaining      string            `json:"timeRemaining"`
}

func toFlashSaleResponse(fs *flashsale.FlashSale, now time.Time) flashSaleResponse {
	resp := flashSaleResponse{
		ID:                 fs.ID,
		Name:               fs.Name,
		StartDate:          fs.StartDate,
		EndDate:            fs.EndDate,
		DiscountPercentage: fs.DiscountPercentage,
		Items:              make([]saleItemPayload, 0, len(fs.Items)),
		IsActive:           fs.IsActive,
		TotalStock:         fs.TotalStock,
		StockRemaining:     fs.StockRemaining,
		SoldCount:          fs.SoldCount,
		TimeRemaining:      fs.TimeRemaining(now),
	}
	for _, it := range fs.Items {
		resp.Items = append(resp.Items, saleItemPayload{ProductID: it.ProductID, SpecialPrice: it.SpecialPrice})
	}
	return resp
}

// countdown renders endDate − now as HH:MM:SS, clamped at zero. Hours run
// past 24 for multi-day windows.
func countdown(endDate, now time.Time) string {
	left := endDate.Sub(now)
	if left < 0 {
		left = 0
	}
	left = left.Truncate(time.Second)
	h := int(left.Hours())
	m := int(left.Minutes()) % 60
	sec := int(left.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func (req *flashSaleRequest) toDomain(now time.Time) *flashsale.FlashSale {
	fs := &flashsale.FlashSale{
		Name:               req.Name,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive,
		TotalStock:         req.TotalStock,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.TotalStock != nil {
		remaining := *req.TotalStock
		fs.StockRemaining = &remaining
	}
	for _, it := range req.Items {
		fs.Items = append(fs.Items, flashsale.SaleItem{ProductID: it.ProductID, SpecialPrice: it.SpecialPrice})
	}
	return fs
}

func (s *Server) activeFlashSales(c *gin.Context) {
	sales, err := s.flashSales.Active(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	now := time.Now()
	out := make([]flashSaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, toFlashSaleResponse(&sales[i], now))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) listFlashSales(c *gin.Context) {
	sales, err := s.flashSales.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	now := time.Now()
	out := make([]flashSaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, toFlashSaleResponse(&sales[i], now))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) getFlashSale(c *gin.Context) {
	fs, err := s.flashSales.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toFlashSaleResponse(fs, time.Now()))
}

func (s *Server) createFlashSale(c *gin.Context) {
	var req flashSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid flash sale payload")
		return
	}
	fs := req.toDomain(time.Now())
	if err := s.flashSales.Create(c.Request.Context(), fs); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toFlashSaleResponse(fs, time.Now()))
}

func (s *Server) updateFlashSale(c *gin.Context) {
	var req flashSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid flash sale payload")
		return
	}
	fs := req.toDomain(time.Now())
	fs.ID = c.Param("id")
	if err := s.flashSales.Update(c.Request.Context(), fs); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toFlashSaleResponse(fs, time.Now()))
}

func (s *Server) deleteFlashSale(c *gin.Context) {
	if err := s.flashSales.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
