// Package mongo implements the document-store persistence layer. Each
// repository wraps one collection and converts between domain types and
// the bson documents stored there. Monetary amounts are persisted as
// Decimal128 so aggregation pipelines can sum them exactly.
package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collProducts     = "products"
	collCarts        = "carts"
	collCoupons      = "coupons"
	collPromotions   = "promotions"
	collFlashSales   = "flash_sales"
	collOrders       = "orders"
	collShipments    = "shipments"
	collFavorites    = "favorites"
	collReviews      = "reviews"
	collDeviceTokens = "device_tokens"
)

// Database wraps the driver client and the application database.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the server, verifies it with a ping and ensures all
// indexes the repositories rely on.
func Connect(ctx context.Context, uri, name string) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping")
	}

	d := &Database{client: client, db: client.Database(name)}
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure indexes")
	}
	return d, nil
}

func (d *Database) ensureIndexes(ctx context.Context) error {
	for coll, models := range map[string][]mongo.IndexModel{
		collCarts: {{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("cart_user_unique"),
		}},
		collCoupons: {{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("coupon_code_unique"),
		}},
		collPromotions: {{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("promotion_code_unique"),
		}},
		collReviews: {{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "productId", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("review_user_product_unique"),
		}, {
			Keys:    bson.D{{Key: "productId", Value: 1}},
			Options: options.Index().SetName("review_product"),
		}},
		collFavorites: {{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("favorite_user_unique"),
		}},
		collOrders: {{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("order_user_created"),
		}, {
			Keys:    bson.D{{Key: "createdAt", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("order_created_status"),
		}},
		collShipments: {{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("shipment_user"),
		}},
		collDeviceTokens: {{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "token", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("device_token_unique"),
		}},
	} {
		if _, err := d.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "collection %s", coll)
		}
	}
	return nil
}

// Ping reports whether the server is reachable. Used by the readiness probe.
func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
