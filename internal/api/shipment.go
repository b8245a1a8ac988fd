package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/shipment"
)

type shipmentRequest struct {
	Recipient    string          `json:"recipient" binding:"required"`
	Phone        string          `json:"phone"`
	Street       string          `json:"street" binding:"required"`
	City         string          `json:"city" binding:"required"`
	Country      string          `json:"country" binding:"required"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	IsDefault    bool            `json:"isDefault"`
}

type shipmentResponse struct {
	shipmentRequest
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func toShipmentResponse(sh *shipment.Shipment) shipmentResponse {
	return shipmentResponse{
		shipmentRequest: shipmentRequest{
			Recipient:    sh.Recipient,
			Phone:        sh.Phone,
			Street:       sh.Street,
			City:         sh.City,
			Country:      sh.Country,
			DeliveryCost: sh.DeliveryCost,
			IsDefault:    sh.IsDefault,
		},
		ID:        sh.ID,
		CreatedAt: sh.CreatedAt,
	}
}

func (s *Server) listShipments(c *gin.Context) {
	shipments, err := s.shipments.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]shipmentResponse, 0, len(shipments))
	for i := range shipments {
		out = append(out, toShipmentResponse(&shipments[i]))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) createShipment(c *gin.Context) {
	var req shipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid shipment payload")
		return
	}
	now := time.Now()
	sh := &shipment.Shipment{
		UserID:       userID(c),
		Recipient:    req.Recipient,
		Phone:        req.Phone,
		Street:       req.Street,
		City:         req.City,
		Country:      req.Country,
		DeliveryCost: req.DeliveryCost,
		IsDefault:    req.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.shipments.Create(c.Request.Context(), sh); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toShipmentResponse(sh))
}

func (s *Server) updateShipment(c *gin.Context) {
	var req shipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid shipment payload")
		return
	}
	existing, err := s.shipments.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if existing.UserID != userID(c) {
		respondErr(c, shipment.ErrNotFound)
		return
	}
	existing.Recipient = req.Recipient
	existing.Phone = req.Phone
	existing.Street = req.Street
	existing.City = req.City
	existing.Country = req.Country
	existing.DeliveryCost = req.DeliveryCost
	existing.IsDefault = req.IsDefault
	existing.UpdatedAt = time.Now()
	if err := s.shipments.Update(c.Request.Context(), existing); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toShipmentResponse(existing))
}

func (s *Server) deleteShipment(c *gin.Context) {
	existing, err := s.shipments.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if existing.UserID != userID(c) {
		respondErr(c, shipment.ErrNotFound)
		return
	}
	if err := s.shipments.Delete(c.Request.Context(), existing.ID); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
