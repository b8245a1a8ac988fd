package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

type orderItemPayload struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	FlashSaleID string          `json:"flashSaleId,omitempty"`
}

type paymentPayload struct {
	Reference    string    `json:"reference"`
	ClientSecret string    `json:"clientSecret"`
	Method       string    `json:"method"`
	Currency     string    `json:"currency"`
	CapturedAt   time.Time `json:"capturedAt"`
}

type orderResponse struct {
	ID             string             `json:"id"`
	Items          []orderItemPayload `json:"items"`
	SubTotal       decimal.Decimal    `json:"subTotal"`
	Discount       decimal.Decimal    `json:"discount"`
	ShippingCost   decimal.Decimal    `json:"shippingCost"`
	TotalCost      decimal.Decimal    `json:"totalCost"`
	CouponCode     string             `json:"couponCode,omitempty"`
	PromotionID    string             `json:"promotionId,omitempty"`
	ShipmentID     string             `json:"shipmentId"`
	Note           string             `json:"note,omitempty"`
	Status         string             `json:"status"`
	Payment        *paymentPayload    `json:"payment,omitempty"`
	TrackingNumber string             `json:"trackingNumber,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		Items:          make([]orderItemPayload, 0, len(o.Items)),
		SubTotal:       o.SubTotal,
		Discount:       o.Discount,
		ShippingCost:   o.ShippingCost,
		TotalCost:      o.TotalCost,
		CouponCode:     o.CouponCode,
		PromotionID:    o.PromotionID,
		ShipmentID:     o.ShipmentID,
		Note:           o.Note,
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemPayload{
			ProductID:   it.ProductID,
			Name:        it.Name,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			FlashSaleID: it.FlashSaleID,
		})
	}
	if o.Payment != nil {
		resp.Payment = &paymentPayload{
			Reference:    o.Payment.Reference,
			ClientSecret: o.Payment.ClientSecret,
			Method:       o.Payment.Method,
			Currency:     o.Payment.Currency,
			CapturedAt:   o.Payment.CapturedAt,
		}
	}
	return resp
}

func (s *Server) createOrder(c *gin.Context) {
	var req struct {
		ShipmentID    string `json:"shipmentId" binding:"required"`
		PromotionCode string `json:"promotionCode"`
		Note          string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "shipmentId is required")
		return
	}
	o, err := s.orders.Create(c.Request.Context(), userID(c), req.ShipmentID, req.PromotionCode, req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toOrderResponse(o))
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.orders.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	respond(c, http.StatusOK, out)
}

// getOrder rejects access to other users' orders with the same status a
// nonexistent order gets, so order IDs cannot be probed.
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if o.UserID != userID(c) {
		respondErr(c, order.ErrNotFound)
		return
	}
	respond(c, http.StatusOK, toOrderResponse(o))
}

func (s *Server) purchaseOrder(c *gin.Context) {
	var req struct {
		Method   string `json:"method"`
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid purchase payload")
		return
	}
	if req.Method == "" {
		req.Method = "card"
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}

	o, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if o.UserID != userID(c) {
		respondErr(c, order.ErrNotFound)
		return
	}

	captured, err := s.orders.CapturePayment(c.Request.Context(), o.ID, req.Method, "Wine order "+o.ID, req.Currency)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponse(captured))
}

func validStatus(st order.Status) bool {
	switch st {
	case order.StatusPending, order.StatusPaid, order.StatusProcessing,
		order.StatusShipped, order.StatusDelivered, order.StatusCancelled:
		return true
	}
	return false
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "status is required")
		return
	}
	st := order.Status(req.Status)
	if !validStatus(st) {
		respondErr(c, apperr.Invalid("unknown order status %q", req.Status))
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), c.Param("id"), st)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponse(o))
}
