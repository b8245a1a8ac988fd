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

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
)

type CouponRepository struct {
	coll *mongo.Collection
}

var _ coupon.Repository = (*CouponRepository)(nil)

func NewCouponRepository(d *Database) *CouponRepository {
	return &CouponRepository{coll: d.db.Collection(collCoupons)}
}

type couponDoc struct {
	ID                    string               `bson:"_id"`
	Code                  string               `bson:"code"`
	DiscountValue         primitive.Decimal128 `bson:"discountValue"`
	DiscountType          string               `bson:"discountType"`
	MinimumPurchaseAmount primitive.Decimal128 `bson:"minimumPurchaseAmount"`
	ExpiryDate            time.Time            `bson:"expiryDate"`
	IsActive              bool                 `bson:"isActive"`
	CreatedAt             time.Time            `bson:"createdAt"`
	UpdatedAt             time.Time            `bson:"updatedAt"`
}

func toCouponDoc(c *coupon.Coupon) couponDoc {
	return couponDoc{
		ID:                    c.ID,
		Code:                  c.Code,
		DiscountValue:         dec128(c.DiscountValue),
		DiscountType:          string(c.DiscountType),
		MinimumPurchaseAmount: dec128(c.MinimumPurchaseAmount),
		ExpiryDate:            c.ExpiryDate,
		IsActive:              c.IsActive,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

func (doc *couponDoc) toDomain() coupon.Coupon {
	return coupon.Coupon{
		ID:                    doc.ID,
		Code:                  doc.Code,
		DiscountValue:         fromDec128(doc.DiscountValue),
		DiscountType:          coupon.DiscountType(doc.DiscountType),
		MinimumPurchaseAmount: fromDec128(doc.MinimumPurchaseAmount),
		ExpiryDate:            doc.ExpiryDate,
		IsActive:              doc.IsActive,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
	}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CouponRepository) findOne(ctx context.Context, filter bson.M) (*coupon.Coupon, error) {
	var doc couponDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrap(err, "find coupon")
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find coupons")
	}
	defer cur.Close(ctx)
	var coupons []coupon.Coupon
	for cur.Next(ctx) {
		var doc couponDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode coupon")
		}
		coupons = append(coupons, doc.toDomain())
	}
	return coupons, errors.Wrap(cur.Err(), "cursor")
}

func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, toCouponDoc(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return coupon.ErrCodeTaken
		}
		return errors.Wrap(err, "insert coupon")
	}
	return nil
}

func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, toCouponDoc(c))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return coupon.ErrCodeTaken
		}
		return errors.Wrap(err, "replace coupon")
	}
	if res.MatchedCount == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete coupon")
	}
	if res.DeletedCount == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Upsert inserts or refreshes a coupon by code. Used by bulk ingest, where
// re-running an import must not duplicate records.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	doc := toCouponDoc(c)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"code": c.Code},
		bson.M{
			"$set": bson.M{
				"discountValue":         doc.DiscountValue,
				"discountType":          doc.DiscountType,
				"minimumPurchaseAmount": doc.MinimumPurchaseAmount,
				"expiryDate":            doc.ExpiryDate,
				"isActive":              doc.IsActive,
				"updatedAt":             doc.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":       doc.ID,
				"code":      doc.Code,
				"createdAt": doc.CreatedAt,
			},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "upsert coupon")
}
