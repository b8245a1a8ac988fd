package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
)

type couponRequest struct {
	Code                  string          `json:"code" binding:"required"`
	DiscountValue         decimal.Decimal `json:"discountValue" binding:"required"`
	DiscountType          string          `json:"discountType" binding:"required"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimumPurchaseAmount"`
	ExpiryDate            time.Time       `json:"expiryDate" binding:"required"`
	IsActive              bool            `json:"isActive"`
}

type couponResponse struct {
	ID                    string          `json:"id"`
	Code                  string          `json:"code"`
	DiscountValue         decimal.Decimal `json:"discountValue"`
	DiscountType          string          `json:"discountType"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimumPurchaseAmount"`
	ExpiryDate            time.Time       `json:"expiryDate"`
	IsActive              bool            `json:"isActive"`
	CreatedAt             time.Time       `json:"createdAt"`
}

func toCouponResponse(cp *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:                    cp.ID,
		Code:                  cp.Code,
		DiscountValue:         cp.DiscountValue,
		DiscountType:          string(cp.DiscountType),
		MinimumPurchaseAmount: cp.MinimumPurchaseAmount,
		ExpiryDate:            cp.ExpiryDate,
		IsActive:              cp.IsActive,
		CreatedAt:             cp.CreatedAt,
	}
}

func validCouponType(t string) bool {
	switch coupon.DiscountType(t) {
	case coupon.DiscountPercentage, coupon.DiscountFixed:
		return true
	}
	return false
}

func (s *Server) listCoupons(c *gin.Context) {
	coupons, err := s.coupons.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]couponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, toCouponResponse(&coupons[i]))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) getCoupon(c *gin.Context) {
	cp, err := s.coupons.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCouponResponse(cp))
}

func (s *Server) createCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid coupon payload")
		return
	}
	if !validCouponType(req.DiscountType) {
		respondInvalid(c, "discountType must be percentage or fixed")
		return
	}
	now := time.Now()
	cp := &coupon.Coupon{
		Code:                  req.Code,
		DiscountValue:         req.DiscountValue,
		DiscountType:          coupon.DiscountType(req.DiscountType),
		MinimumPurchaseAmount: req.MinimumPurchaseAmount,
		ExpiryDate:            req.ExpiryDate,
		IsActive:              req.IsActive,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.coupons.Create(c.Request.Context(), cp); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toCouponResponse(cp))
}

func (s *Server) updateCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid coupon payload")
		return
	}
	if !validCouponType(req.DiscountType) {
		respondInvalid(c, "discountType must be percentage or fixed")
		return
	}
	existing, err := s.coupons.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	existing.Code = req.Code
	existing.DiscountValue = req.DiscountValue
	existing.DiscountType = coupon.DiscountType(req.DiscountType)
	existing.MinimumPurchaseAmount = req.MinimumPurchaseAmount
	existing.ExpiryDate = req.ExpiryDate
	existing.IsActive = req.IsActive
	existing.UpdatedAt = time.Now()
	if err := s.coupons.Update(c.Request.Context(), existing); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCouponResponse(existing))
}

func (s *Server) deleteCoupon(c *gin.Context) {
	if err := s.coupons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
