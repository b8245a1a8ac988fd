package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/promotion"
)

type promotionRequest struct {
	Code                 string          `json:"code" binding:"required"`
	Description          string          `json:"description"`
	DiscountType         string          `json:"discountType" binding:"required"`
	DiscountValue        decimal.Decimal `json:"discountValue"`
	StartDate            time.Time       `json:"startDate" binding:"required"`
	EndDate              time.Time       `json:"endDate" binding:"required"`
	MinimumPurchase      decimal.Decimal `json:"minimumPurchase"`
	MaximumDiscount      decimal.Decimal `json:"maximumDiscount"`
	IsFirstPurchaseOnly  bool            `json:"isFirstPurchaseOnly"`
	UsageLimitPerUser    int             `json:"usageLimitPerUser"`
	TotalUsageLimit      int             `json:"totalUsageLimit"`
	ApplicableProducts   []string        `json:"applicableProducts"`
	ApplicableCategories []string        `json:"applicableCategories"`
	Stackable            bool            `json:"stackable"`
	Priority             int             `json:"priority"`
	IsActive             bool            `json:"isActive"`
}

type promotionResponse struct {
	promotionRequest
	ID                string    `json:"id"`
	CurrentUsageCount int       `json:"currentUsageCount"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toPromotionResponse(p *promotion.Promotion) promotionResponse {
	return promotionResponse{
		promotionRequest: promotionRequest{
			Code:                 p.Code,
			Description:          p.Description,
			DiscountType:         string(p.DiscountType),
			DiscountValue:        p.DiscountValue,
			StartDate:            p.StartDate,
			EndDate:              p.EndDate,
			MinimumPurchase:      p.MinimumPurchase,
			MaximumDiscount:      p.MaximumDiscount,
			IsFirstPurchaseOnly:  p.IsFirstPurchaseOnly,
			UsageLimitPerUser:    p.UsageLimitPerUser,
			TotalUsageLimit:      p.TotalUsageLimit,
			ApplicableProducts:   p.ApplicableProducts,
			ApplicableCategories: p.ApplicableCategories,
			Stackable:            p.Stackable,
			Priority:             p.Priority,
			IsActive:             p.IsActive,
		},
		ID:                p.ID,
		CurrentUsageCount: p.CurrentUsageCount,
		CreatedAt:         p.CreatedAt,
	}
}

func validPromotionType(t string) bool {
	switch promotion.DiscountType(t) {
	case promotion.DiscountPercentage, promotion.DiscountFixed, promotion.DiscountFreeShipping:
		return true
	}
	return false
}

func (req *promotionRequest) toDomain(now time.Time) *promotion.Promotion {
	return &promotion.Promotion{
		Code:                 req.Code,
		Description:          req.Description,
		DiscountType:         promotion.DiscountType(req.DiscountType),
		DiscountValue:        req.DiscountValue,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		MinimumPurchase:      req.MinimumPurchase,
		MaximumDiscount:      req.MaximumDiscount,
		IsFirstPurchaseOnly:  req.IsFirstPurchaseOnly,
		UsageLimitPerUser:    req.UsageLimitPerUser,
		TotalUsageLimit:      req.TotalUsageLimit,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
		Stackable:            req.Stackable,
		Priority:             req.Priority,
		IsActive:             req.IsActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (s *Server) listPromotions(c *gin.Context) {
	promos, err := s.promotions.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]promotionResponse, 0, len(promos))
	for i := range promos {
		out = append(out, toPromotionResponse(&promos[i]))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) getPromotion(c *gin.Context) {
	p, err := s.promotions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toPromotionResponse(p))
}

func (s *Server) createPromotion(c *gin.Context) {
	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid promotion payload")
		return
	}
	if !validPromotionType(req.DiscountType) {
		respondInvalid(c, "discountType must be percentage, fixed or freeShipping")
		return
	}
	p := req.toDomain(time.Now())
	if err := s.promotions.Create(c.Request.Context(), p); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toPromotionResponse(p))
}

func (s *Server) updatePromotion(c *gin.Context) {
	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid promotion payload")
		return
	}
	if !validPromotionType(req.DiscountType) {
		respondInvalid(c, "discountType must be percentage, fixed or freeShipping")
		return
	}
	p := req.toDomain(time.Now())
	p.ID = c.Param("id")
	if err := s.promotions.Update(c.Request.Context(), p); err != nil {
		respondErr(c, err)
		return
	}
	updated, err := s.promotions.Get(c.Request.Context(), p.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toPromotionResponse(updated))
}

func (s *Server) deletePromotion(c *gin.Context) {
	if err := s.promotions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}

// validatePromotion checks a code for the calling user and previews the
// discounted price: active, in window, eligible per usage history, and the
// best candidate when several share the code's products.
func (s *Server) validatePromotion(c *gin.Context) {
	var req struct {
		Code  string          `json:"code" binding:"required"`
		Price decimal.Decimal `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "promotion code is required")
		return
	}
	p, err := s.promotions.GetByCode(c.Request.Context(), req.Code)
	if err != nil {
		respondErr(c, err)
		return
	}
	now := time.Now()
	eligible := p.IsActive && p.InWindow(now)
	if eligible {
		eligible, err = s.evaluator.Eligible(c.Request.Context(), p, userID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
	}
	resp := gin.H{"eligible": eligible}
	if eligible {
		resp["discountedPrice"] = promotion.DiscountedPrice(p, req.Price)
	}
	respond(c, http.StatusOK, resp)
}

func (s *Server) deactivatePromotion(c *gin.Context) {
	if err := s.promotions.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	p, err := s.promotions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toPromotionResponse(p))
}
