package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/cart"
)

type cartItemPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartCouponPayload struct {
	Code          string          `json:"code"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	DiscountType  string          `json:"discountType"`
}

type cartResponse struct {
	ID       string             `json:"id"`
	Items    []cartItemPayload  `json:"items"`
	Coupon   *cartCouponPayload `json:"coupon,omitempty"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Discount decimal.Decimal    `json:"discount"`
	Total    decimal.Decimal    `json:"total"`
}

func toCartResponse(ct *cart.Cart) cartResponse {
	resp := cartResponse{
		ID:       ct.ID,
		Items:    make([]cartItemPayload, 0, len(ct.Items)),
		Subtotal: ct.Pricing.Subtotal,
		Discount: ct.Pricing.Discount,
		Total:    ct.Pricing.Total,
	}
	for _, it := range ct.Items {
		resp.Items = append(resp.Items, cartItemPayload{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if ct.Coupon != nil {
		resp.Coupon = &cartCouponPayload{
			Code:          ct.Coupon.Code,
			DiscountValue: ct.Coupon.DiscountValue,
			DiscountType:  string(ct.Coupon.DiscountType),
		}
	}
	return resp
}

func (s *Server) getCart(c *gin.Context) {
	ct, err := s.carts.Get(c.Request.Context(), userID(c))
	if errors.Is(err, cart.ErrNotFound) {
		// A user who never added anything has an empty cart, not a 404.
		respond(c, http.StatusOK, toCartResponse(&cart.Cart{}))
		return
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) addCartItem(c *gin.Context) {
	var req cartItemPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		respondInvalid(c, "productId and quantity are required")
		return
	}
	ct, err := s.carts.AddItem(c.Request.Context(), userID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "quantity is required")
		return
	}
	ct, err := s.carts.UpdateItemQuantity(c.Request.Context(), userID(c), c.Param("productId"), req.Quantity)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) removeCartItem(c *gin.Context) {
	ct, err := s.carts.RemoveItem(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) incrementCartItem(c *gin.Context) {
	ct, err := s.carts.IncrementItem(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) decrementCartItem(c *gin.Context) {
	ct, err := s.carts.DecrementItem(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) clearCart(c *gin.Context) {
	ct, err := s.carts.Clear(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) applyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "coupon code is required")
		return
	}
	ct, err := s.carts.ApplyCoupon(c.Request.Context(), userID(c), req.Code)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}

func (s *Server) removeCoupon(c *gin.Context) {
	ct, err := s.carts.RemoveCoupon(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toCartResponse(ct))
}
