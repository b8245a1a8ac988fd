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

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/cart"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
)

type CartRepository struct {
	coll *mongo.Collection
}

var _ cart.Repository = (*CartRepository)(nil)

func NewCartRepository(d *Database) *CartRepository {
	return &CartRepository{coll: d.db.Collection(collCarts)}
}

type cartItemDoc struct {
	ProductID string `bson:"productId"`
	Quantity  int    `bson:"quantity"`
}

type couponSnapshotDoc struct {
	CouponID      string               `bson:"couponId"`
	Code          string               `bson:"code"`
	DiscountValue primitive.Decimal128 `bson:"discountValue"`
	DiscountType  string               `bson:"discountType"`
}

type cartDoc struct {
	ID        string               `bson:"_id"`
	UserID    string               `bson:"userId"`
	Items     []cartItemDoc        `bson:"items"`
	Coupon    *couponSnapshotDoc   `bson:"coupon,omitempty"`
	Subtotal  primitive.Decimal128 `bson:"subtotal"`
	Discount  primitive.Decimal128 `bson:"discount"`
	Total     primitive.Decimal128 `bson:"total"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func toCartDoc(c *cart.Cart) cartDoc {
	doc := cartDoc{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     []cartItemDoc{},
		Subtotal:  dec128(c.Pricing.Subtotal),
		Discount:  dec128(c.Pricing.Discount),
		Total:     dec128(c.Pricing.Total),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, it := range c.Items {
		doc.Items = append(doc.Items, cartItemDoc{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if c.Coupon != nil {
		doc.Coupon = &couponSnapshotDoc{
			CouponID:      c.Coupon.CouponID,
			Code:          c.Coupon.Code,
			DiscountValue: dec128(c.Coupon.DiscountValue),
			DiscountType:  string(c.Coupon.DiscountType),
		}
	}
	return doc
}

func (doc *cartDoc) toDomain() *cart.Cart {
	c := &cart.Cart{
		ID:     doc.ID,
		UserID: doc.UserID,
		Pricing: cart.Pricing{
			Subtotal: fromDec128(doc.Subtotal),
			Discount: fromDec128(doc.Discount),
			Total:    fromDec128(doc.Total),
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, it := range doc.Items {
		c.Items = append(c.Items, cart.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if doc.Coupon != nil {
		c.Coupon = &cart.CouponSnapshot{
			CouponID:      doc.Coupon.CouponID,
			Code:          doc.Coupon.Code,
			DiscountValue: fromDec128(doc.Coupon.DiscountValue),
			DiscountType:  coupon.DiscountType(doc.Coupon.DiscountType),
		}
	}
	return c
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	var doc cartDoc
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "find cart")
	}
	return doc.toDomain(), nil
}

// Save replaces the whole document. The unique userId index guarantees at
// most one cart per user even under a concurrent first-add race.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"userId": c.UserID},
		toCartDoc(c),
		options.Replace().SetUpsert(true),
	)
	return errors.Wrap(err, "save cart")
}

func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	return errors.Wrap(err, "delete cart")
}
