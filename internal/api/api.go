// Package api exposes the platform over REST using gin. Each resource
// handler converts between wire DTOs and domain types; business rules
// live in the domain services, error shaping in the response envelope.
package api

import (
	"cmp"
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/analytics"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/cart"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/favorite"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/flashsale"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/promotion"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/review"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/shipment"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/realtime"
)

// DeviceRegistry stores push-notification device tokens.
type DeviceRegistry interface {
	Register(ctx context.Context, userID, token, platform string) error
	Unregister(ctx context.Context, userID, token string) error
}

// Server bundles every resource handler behind one router.
type Server struct {
	carts      *cart.Service
	products   product.Repository
	coupons    coupon.Repository
	promotions *promotion.Service
	evaluator  *promotion.Evaluator
	flashSales *flashsale.Service
	orders     *order.Service
	shipments  shipment.Repository
	favorites  *favorite.Service
	reviews    *review.Service
	reports    *analytics.Service
	devices    DeviceRegistry
	hub        *realtime.Hub
	currency   string
}

// Deps lists the collaborators a Server needs. All fields are required.
type Deps struct {
	Carts      *cart.Service
	Products   product.Repository
	Coupons    coupon.Repository
	Promotions *promotion.Service
	Evaluator  *promotion.Evaluator
	FlashSales *flashsale.Service
	Orders     *order.Service
	Shipments  shipment.Repository
	Favorites  *favorite.Service
	Reviews    *review.Service
	Reports    *analytics.Service
	Devices    DeviceRegistry
	Hub        *realtime.Hub

	// Currency is the default payment currency for captures that do not
	// name one. Defaults to usd.
	Currency string
}

func NewServer(d Deps) *Server {
	return &Server{
		carts:      d.Carts,
		products:   d.Products,
		coupons:    d.Coupons,
		promotions: d.Promotions,
		evaluator:  d.Evaluator,
		flashSales: d.FlashSales,
		orders:     d.Orders,
		shipments:  d.Shipments,
		favorites:  d.Favorites,
		reviews:    d.Reviews,
		reports:    d.Reports,
		devices:    d.Devices,
		hub:        d.Hub,
		currency:   cmp.Or(d.Currency, "usd"),
	}
}

// Router builds the gin engine with all routes mounted under /api.
// Authentication happens upstream; requests arrive with X-User-ID set by
// the gateway, and admin routes additionally require X-Admin: true.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()

	api := e.Group("/api")

	// Public catalog.
	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.GET("/products/:id/reviews", s.listReviews)
	api.GET("/products/:id/reviews/summary", s.reviewSummary)
	api.GET("/flash-sales/active", s.activeFlashSales)
	api.GET("/events", s.streamEvents)

	// Per-user resources.
	user := api.Group("", RequireUser())
	{
		user.GET("/cart", s.getCart)
		user.POST("/cart/items", s.addCartItem)
		user.PUT("/cart/items/:productId", s.updateCartItem)
		user.DELETE("/cart/items/:productId", s.removeCartItem)
		user.POST("/cart/items/:productId/increment", s.incrementCartItem)
		user.POST("/cart/items/:productId/decrement", s.decrementCartItem)
		user.DELETE("/cart", s.clearCart)
		user.POST("/cart/coupon", s.applyCoupon)
		user.DELETE("/cart/coupon", s.removeCoupon)

		user.POST("/orders", s.createOrder)
		user.GET("/orders", s.listOrders)
		user.GET("/orders/:id", s.getOrder)
		user.PUT("/orders/:id/purchase", s.purchaseOrder)

		user.GET("/shipments", s.listShipments)
		user.POST("/shipments", s.createShipment)
		user.PUT("/shipments/:id", s.updateShipment)
		user.DELETE("/shipments/:id", s.deleteShipment)

		user.GET("/favorites", s.listFavorites)
		user.POST("/favorites/:productId", s.addFavorite)
		user.DELETE("/favorites/:productId", s.removeFavorite)

		user.POST("/products/:id/reviews", s.createReview)
		user.PUT("/products/:id/reviews", s.updateReview)
		user.DELETE("/reviews/:id", s.deleteReview)

		user.POST("/promotions/validate", s.validatePromotion)

		user.POST("/devices", s.registerDevice)
		user.DELETE("/devices/:token", s.unregisterDevice)
	}

	// Administrative surface.
	admin := api.Group("", RequireAdmin())
	{
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)

		admin.GET("/coupons", s.listCoupons)
		admin.POST("/coupons", s.createCoupon)
		admin.GET("/coupons/:id", s.getCoupon)
		admin.PUT("/coupons/:id", s.updateCoupon)
		admin.DELETE("/coupons/:id", s.deleteCoupon)

		admin.GET("/promotions", s.listPromotions)
		admin.POST("/promotions", s.createPromotion)
		admin.GET("/promotions/:id", s.getPromotion)
		admin.PUT("/promotions/:id", s.updatePromotion)
		admin.DELETE("/promotions/:id", s.deletePromotion)
		admin.POST("/promotions/:id/deactivate", s.deactivatePromotion)

		admin.GET("/flash-sales", s.listFlashSales)
		admin.POST("/flash-sales", s.createFlashSale)
		admin.GET("/flash-sales/:id", s.getFlashSale)
		admin.PUT("/flash-sales/:id", s.updateFlashSale)
		admin.DELETE("/flash-sales/:id", s.deleteFlashSale)

		admin.PUT("/orders/:id/status", s.updateOrderStatus)

		admin.GET("/analytics/summary", s.salesSummary)
		admin.GET("/analytics/top-products", s.topProducts)
		admin.GET("/analytics/status-breakdown", s.statusBreakdown)
		admin.GET("/analytics/flash-sales", s.flashSalePerformance)
	}

	return e
}
