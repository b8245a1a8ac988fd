package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/flashsale"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

type FlashSaleRepository struct {
	coll *mongo.Collection
}

var _ flashsale.Repository = (*FlashSaleRepository)(nil)

func NewFlashSaleRepository(d *Database) *FlashSaleRepository {
	return &FlashSaleRepository{coll: d.db.Collection(collFlashSales)}
}

type saleItemDoc struct {
	ProductID    string               `bson:"productId"`
	SpecialPrice primitive.Decimal128 `bson:"specialPrice"`
}

type flashSaleDoc struct {
	ID                 string               `bson:"_id"`
	Name               string               `bson:"name"`
	StartDate          time.Time            `bson:"startDate"`
	EndDate            time.Time            `bson:"endDate"`
	DiscountPercentage primitive.Decimal128 `bson:"discountPercentage"`
	Items              []saleItemDoc        `bson:"items"`
	IsActive           bool                 `bson:"isActive"`
	TotalStock         *int                 `bson:"totalStock,omitempty"`
	StockRemaining     *int                 `bson:"stockRemaining,omitempty"`
	SoldCount          int                  `bson:"soldCount"`
	CreatedAt          time.Time            `bson:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt"`
}

func toFlashSaleDoc(s *flashsale.FlashSale) flashSaleDoc {
	doc := flashSaleDoc{
		ID:                 s.ID,
		Name:               s.Name,
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		DiscountPercentage: dec128(s.DiscountPercentage),
		Items:              []saleItemDoc{},
		IsActive:           s.IsActive,
		TotalStock:         s.TotalStock,
		StockRemaining:     s.StockRemaining,
		SoldCount:          s.SoldCount,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	for _, it := range s.Items {
		doc.Items = append(doc.Items, saleItemDoc{ProductID: it.ProductID, SpecialPrice: dec128(it.SpecialPrice)})
	}
	return doc
}

func (doc *flashSaleDoc) toDomain() flashsale.FlashSale {
	s := flashsale.FlashSale{
		ID:                 doc.ID,
		Name:               doc.Name,
		StartDate:          doc.StartDate,
		EndDate:            doc.EndDate,
		DiscountPercentage: fromDec128(doc.DiscountPercentage),
		IsActive:           doc.IsActive,
		TotalStock:         doc.TotalStock,
		StockRemaining:     doc.StockRemaining,
		SoldCount:          doc.SoldCount,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	for _, it := range doc.Items {
		s.Items = append(s.Items, flashsale.SaleItem{ProductID: it.ProductID, SpecialPrice: fromDec128(it.SpecialPrice)})
	}
	return s
}

func (r *FlashSaleRepository) FindByID(ctx context.Context, id string) (*flashsale.FlashSale, error) {
	var doc flashSaleDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, flashsale.ErrNotFound
		}
		return nil, errors.Wrap(err, "find flash sale")
	}
	s := doc.toDomain()
	return &s, nil
}

// FindActive narrows by flag and window in the query; the service applies
// the full ActiveAt check (including sell-out) on the result.
func (r *FlashSaleRepository) FindActive(ctx context.Context, now time.Time) ([]flashsale.FlashSale, error) {
	return r.list(ctx, bson.M{
		"isActive":  true,
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gte": now},
	})
}

func (r *FlashSaleRepository) List(ctx context.Context) ([]flashsale.FlashSale, error) {
	return r.list(ctx, bson.M{})
}

func (r *FlashSaleRepository) list(ctx context.Context, filter bson.M) ([]flashsale.FlashSale, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find flash sales")
	}
	defer cur.Close(ctx)
	var sales []flashsale.FlashSale
	for cur.Next(ctx) {
		var doc flashSaleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode flash sale")
		}
		sales = append(sales, doc.toDomain())
	}
	return sales, errors.Wrap(cur.Err(), "cursor")
}

func (r *FlashSaleRepository) Create(ctx context.Context, s *flashsale.FlashSale) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, toFlashSaleDoc(s))
	return errors.Wrap(err, "insert flash sale")
}

func (r *FlashSaleRepository) Update(ctx context.Context, s *flashsale.FlashSale) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, toFlashSaleDoc(s))
	if err != nil {
		return errors.Wrap(err, "replace flash sale")
	}
	if res.MatchedCount == 0 {
		return flashsale.ErrNotFound
	}
	return nil
}

func (r *FlashSaleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete flash sale")
	}
	if res.DeletedCount == 0 {
		return flashsale.ErrNotFound
	}
	return nil
}

// RecordSale decrements tracked stock with a conditional write, matching
// the product-stock pattern. Sales without stock tracking only count.
func (r *FlashSaleRepository) RecordSale(ctx context.Context, id string, qty int) (*int, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc flashSaleDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id":            id,
			"stockRemaining": bson.M{"$gte": qty},
		},
		bson.M{"$inc": bson.M{"soldCount": qty, "stockRemaining": -qty}},
		after,
	).Decode(&doc)
	if err == nil {
		return doc.StockRemaining, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "record sale")
	}

	// Either the sale tracks no stock, or stock is too low.
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id":            id,
			"stockRemaining": nil,
		},
		bson.M{"$inc": bson.M{"soldCount": qty}},
		after,
	).Decode(&doc)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "record sale")
	}
	if _, ferr := r.FindByID(ctx, id); ferr != nil {
		return nil, ferr
	}
	return nil, apperr.InsufficientInventory("flash sale stock exhausted")
}
