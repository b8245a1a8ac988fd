package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/analytics"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
)

// AnalyticsRepository runs aggregation pipelines over the orders
// collection. All reports exclude cancelled orders except the status
// breakdown, which exists to show them.
type AnalyticsRepository struct {
	coll *mongo.Collection
}

var _ analytics.Repository = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(d *Database) *AnalyticsRepository {
	return &AnalyticsRepository{coll: d.db.Collection(collOrders)}
}

func windowMatch(from, to time.Time) bson.M {
	return bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}
}

func (r *AnalyticsRepository) Totals(ctx context.Context, from, to time.Time) (analytics.Totals, error) {
	match := windowMatch(from, to)
	match["status"] = bson.M{"$ne": string(order.StatusCancelled)}

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"orderCount": bson.M{"$sum": 1},
			"itemsSold":  bson.M{"$sum": bson.M{"$sum": "$items.quantity"}},
			"revenue":    bson.M{"$sum": "$totalCost"},
		}}},
	})
	if err != nil {
		return analytics.Totals{}, errors.Wrap(err, "aggregate totals")
	}
	defer cur.Close(ctx)

	var row struct {
		OrderCount int                  `bson:"orderCount"`
		ItemsSold  int                  `bson:"itemsSold"`
		Revenue    primitive.Decimal128 `bson:"revenue"`
	}
	if !cur.Next(ctx) {
		// No orders in the window.
		return analytics.Totals{Revenue: decimal.Zero}, errors.Wrap(cur.Err(), "cursor")
	}
	if err := cur.Decode(&row); err != nil {
		return analytics.Totals{}, errors.Wrap(err, "decode totals")
	}
	return analytics.Totals{
		OrderCount: row.OrderCount,
		ItemsSold:  row.ItemsSold,
		Revenue:    fromDec128(row.Revenue),
	}, nil
}

func (r *AnalyticsRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]analytics.ProductSales, error) {
	match := windowMatch(from, to)
	match["status"] = bson.M{"$ne": string(order.StatusCancelled)}

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.productId",
			"name":      bson.M{"$last": "$items.name"},
			"unitsSold": bson.M{"$sum": "$items.quantity"},
			"revenue": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$items.unitPrice", "$items.quantity"},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "unitsSold", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "aggregate top products")
	}
	defer cur.Close(ctx)

	var out []analytics.ProductSales
	for cur.Next(ctx) {
		var row struct {
			ProductID string               `bson:"_id"`
			Name      string               `bson:"name"`
			UnitsSold int                  `bson:"unitsSold"`
			Revenue   primitive.Decimal128 `bson:"revenue"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(err, "decode product sales")
		}
		out = append(out, analytics.ProductSales{
			ProductID: row.ProductID,
			Name:      row.Name,
			UnitsSold: row.UnitsSold,
			Revenue:   fromDec128(row.Revenue),
		})
	}
	return out, errors.Wrap(cur.Err(), "cursor")
}

func (r *AnalyticsRepository) StatusBreakdown(ctx context.Context, from, to time.Time) ([]analytics.StatusCount, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: windowMatch(from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "aggregate status breakdown")
	}
	defer cur.Close(ctx)

	var out []analytics.StatusCount
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(err, "decode status count")
		}
		out = append(out, analytics.StatusCount{Status: order.Status(row.Status), Count: row.Count})
	}
	return out, errors.Wrap(cur.Err(), "cursor")
}

func (r *AnalyticsRepository) FlashSalePerformance(ctx context.Context, from, to time.Time) ([]analytics.FlashSaleStats, error) {
	match := windowMatch(from, to)
	match["status"] = bson.M{"$ne": string(order.StatusCancelled)}

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$match", Value: bson.M{"items.flashSaleId": bson.M{"$nin": bson.A{nil, ""}}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.flashSaleId",
			"unitsSold": bson.M{"$sum": "$items.quantity"},
			"revenue": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$items.unitPrice", "$items.quantity"},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "aggregate flash sale performance")
	}
	defer cur.Close(ctx)

	var out []analytics.FlashSaleStats
	for cur.Next(ctx) {
		var row struct {
			SaleID    string               `bson:"_id"`
			UnitsSold int                  `bson:"unitsSold"`
			Revenue   primitive.Decimal128 `bson:"revenue"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(err, "decode flash sale stats")
		}
		out = append(out, analytics.FlashSaleStats{
			SaleID:    row.SaleID,
			UnitsSold: row.UnitsSold,
			Revenue:   fromDec128(row.Revenue),
		})
	}
	return out, errors.Wrap(cur.Err(), "cursor")
}
