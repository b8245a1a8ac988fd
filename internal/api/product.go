package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
)

type supplierPayload struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
	RestockDate *time.Time      `json:"restockDate,omitempty"`
}

type flashInfo struct {
	SaleID        string          `json:"saleId"`
	SpecialPrice  decimal.Decimal `json:"specialPrice"`
	EndDate       time.Time       `json:"endDate"`
	TimeRemaining string          `json:"timeRemaining"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Image       string            `json:"image,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Available   int               `json:"available"`
	Discount    decimal.Decimal   `json:"discount"`
	Suppliers   []supplierPayload `json:"suppliers,omitempty"`
	FlashSale   *flashInfo        `json:"flashSale,omitempty"`
}

func toProductResponse(p *product.Product, now time.Time) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.EffectivePrice(now),
		Available:   p.Available(),
		Discount:    p.DefaultDiscount,
	}
	for _, s := range p.Suppliers {
		resp.Suppliers = append(resp.Suppliers, supplierPayload{
			Name:        s.Name,
			Price:       s.Price,
			Quantity:    s.Quantity,
			Discount:    s.Discount,
			RestockDate: s.RestockDate,
		})
	}
	if p.FlashSale != nil && p.FlashSale.InWindow(now) {
		resp.FlashSale = &flashInfo{
			SaleID:        p.FlashSale.SaleID,
			SpecialPrice:  p.FlashSale.SpecialPrice,
			EndDate:       p.FlashSale.EndDate,
			TimeRemaining: countdown(p.FlashSale.EndDate, now),
		}
	}
	return resp
}

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.products.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	now := time.Now()
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i], now))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toProductResponse(p, time.Now()))
}

type productRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Image       string            `json:"image"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int               `json:"quantity"`
	Discount    decimal.Decimal   `json:"discount"`
	Suppliers   []supplierPayload `json:"suppliers"`
}

func (req *productRequest) toDomain(now time.Time) *product.Product {
	p := &product.Product{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Image:           req.Image,
		DefaultPrice:    req.Price,
		DefaultQuantity: req.Quantity,
		DefaultDiscount: req.Discount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, s := range req.Suppliers {
		p.Suppliers = append(p.Suppliers, product.Supplier{
			Name:        s.Name,
			Price:       s.Price,
			Quantity:    s.Quantity,
			Discount:    s.Discount,
			RestockDate: s.RestockDate,
		})
	}
	return p
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid product payload")
		return
	}
	p := req.toDomain(time.Now())
	if err := s.products.Create(c.Request.Context(), p); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toProductResponse(p, time.Now()))
}

func (s *Server) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid product payload")
		return
	}
	existing, err := s.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	p := req.toDomain(time.Now())
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.FlashSale = existing.FlashSale
	if err := s.products.Update(c.Request.Context(), p); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toProductResponse(p, time.Now()))
}
