// Command seed-db loads a starter wine catalog and a pair of demo coupons
// into MongoDB for local development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/db"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/storage/mongo"
)

type supplierJSON struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Discount decimal.Decimal `json:"discount"`
}

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Suppliers   []supplierJSON  `json:"suppliers"`
}

func main() {
	var (
		mongoURI     string
		mongoDB      string
		productsFile string
	)

	flag.StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGO_URI env)")
	flag.StringVar(&mongoDB, "mongo-db", "wine_delivery", "MongoDB database name")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if mongoURI == "" {
		mongoURI = os.Getenv("MONGO_URI")
	}
	if mongoURI == "" {
		slog.Error("mongo URI is required: set --mongo-uri or MONGO_URI")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, mongoURI, mongoDB, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, mongoURI, mongoDB, productsFile string) error {
	slog.Info("connecting to database")

	store, err := mongo.Connect(ctx, mongoURI, mongoDB)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := seedProducts(ctx, mongo.NewProductRepository(store), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, mongo.NewCouponRepository(store)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *mongo.ProductRepository, productsFile string) error {
	data, err := os.ReadFile(productsFile)
	switch {
	case err == nil:
		slog.Info("read products file", slog.String("path", productsFile))
	case os.IsNotExist(err):
		slog.Info("products file missing, using embedded catalog", slog.String("path", productsFile))
		data = db.SeedProducts
	default:
		return errors.Wrap(err, "read products file")
	}

	var entries []productJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(entries)))

	for _, e := range entries {
		p := &product.Product{
			ID:              e.ID,
			Name:            e.Name,
			Description:     e.Description,
			Category:        e.Category,
			Image:           e.Image,
			DefaultPrice:    e.Price,
			DefaultQuantity: e.Quantity,
		}
		for _, s := range e.Suppliers {
			p.Suppliers = append(p.Suppliers, product.Supplier{
				Name:     s.Name,
				Price:    s.Price,
				Quantity: s.Quantity,
				Discount: s.Discount,
			})
		}

		existing, err := repo.GetByID(ctx, e.ID)
		switch {
		case err == nil:
			p.CreatedAt = existing.CreatedAt
			p.FlashSale = existing.FlashSale
			err = repo.Update(ctx, p)
		case errors.Is(err, product.ErrNotFound):
			err = repo.Create(ctx, p)
		}
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", e.ID)
		}

		slog.Info("upserted product", slog.String("id", e.ID), slog.String("name", e.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *mongo.CouponRepository) error {
	slog.Info("seeding demo coupons")

	expiry := time.Now().AddDate(1, 0, 0)
	coupons := []coupon.Coupon{
		{
			Code:          "WELCOME10",
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			ExpiryDate:    expiry,
			IsActive:      true,
		},
		{
			Code:                  "CASELOT20",
			DiscountType:          coupon.DiscountFixed,
			DiscountValue:         decimal.NewFromInt(20),
			MinimumPurchaseAmount: decimal.NewFromInt(150),
			ExpiryDate:            expiry,
			IsActive:              true,
		},
	}

	for i := range coupons {
		if err := repo.Upsert(ctx, &coupons[i]); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", coupons[i].Code)
		}

		slog.Info("upserted coupon", slog.String("code", coupons[i].Code))
	}

	return nil
}
