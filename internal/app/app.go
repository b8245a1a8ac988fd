package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/api"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/analytics"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/cart"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/favorite"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/flashsale"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/notification"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/promotion"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/review"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/payment"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/realtime"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/storage/mongo"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/health"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Document store.
	db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			lg.Error("Mongo disconnect error", zap.Error(err))
		}
	}()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("mongo", 5*time.Second, db.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := mongo.NewProductRepository(db)
	cartRepo := mongo.NewCartRepository(db)
	couponRepo := mongo.NewCouponRepository(db)
	promotionRepo := mongo.NewPromotionRepository(db)
	flashSaleRepo := mongo.NewFlashSaleRepository(db)
	orderRepo := mongo.NewOrderRepository(db)
	shipmentRepo := mongo.NewShipmentRepository(db)
	favoriteRepo := mongo.NewFavoriteRepository(db)
	reviewRepo := mongo.NewReviewRepository(db)
	analyticsRepo := mongo.NewAnalyticsRepository(db)
	deviceRepo := mongo.NewDeviceTokenRepository(db)

	// Event broadcast and abandoned-cart reminders.
	hub := realtime.NewHub(64)
	dispatcher := notification.NewDispatcher(notification.NewLogSender(lg), lg)
	reminders := notification.NewReminderScheduler(cfg.Reminder.Delay, deviceRepo, dispatcher, lg)
	defer reminders.Close()

	// Domain services.
	couponValidator := coupon.NewRepoValidator(couponRepo)
	cartService := cart.NewService(cartRepo, productRepo, couponValidator, reminders.Schedule)
	promotionService := promotion.NewService(promotionRepo)
	evaluator := promotion.NewEvaluator(orderRepo)
	flashSaleService := flashsale.NewService(flashSaleRepo, productRepo)
	orderService := order.NewService(
		orderRepo, cartRepo, productRepo, shipmentRepo,
		flashSaleService, promotion.NewApplier(promotionRepo, evaluator),
		payment.NewFakeGateway(), hub,
	)

	apiServer := api.NewServer(api.Deps{
		Carts:      cartService,
		Products:   productRepo,
		Coupons:    couponRepo,
		Promotions: promotionService,
		Evaluator:  evaluator,
		FlashSales: flashSaleService,
		Orders:     orderService,
		Shipments:  shipmentRepo,
		Favorites:  favorite.NewService(favoriteRepo),
		Reviews:    review.NewService(reviewRepo),
		Reports:    analytics.NewService(analyticsRepo),
		Devices:    deviceRepo,
		Hub:        hub,
		Currency:   cfg.Currency,
	})

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", apiServer.Router())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// WriteTimeout stays zero: /api/events holds SSE streams open
		// far longer than any fixed deadline.
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-User-ID", "X-Admin"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("wine-delivery-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
