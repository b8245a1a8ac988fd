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

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/promotion"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

type PromotionRepository struct {
	coll *mongo.Collection
}

var _ promotion.Repository = (*PromotionRepository)(nil)

func NewPromotionRepository(d *Database) *PromotionRepository {
	return &PromotionRepository{coll: d.db.Collection(collPromotions)}
}

type promotionDoc struct {
	ID                   string               `bson:"_id"`
	Code                 string               `bson:"code"`
	Description          string               `bson:"description,omitempty"`
	DiscountType         string               `bson:"discountType"`
	DiscountValue        primitive.Decimal128 `bson:"discountValue"`
	StartDate            time.Time            `bson:"startDate"`
	EndDate              time.Time            `bson:"endDate"`
	MinimumPurchase      primitive.Decimal128 `bson:"minimumPurchase"`
	MaximumDiscount      primitive.Decimal128 `bson:"maximumDiscount"`
	IsFirstPurchaseOnly  bool                 `bson:"isFirstPurchaseOnly"`
	UsageLimitPerUser    int                  `bson:"usageLimitPerUser"`
	TotalUsageLimit      int                  `bson:"totalUsageLimit"`
	CurrentUsageCount    int                  `bson:"currentUsageCount"`
	ApplicableProducts   []string             `bson:"applicableProducts,omitempty"`
	ApplicableCategories []string             `bson:"applicableCategories,omitempty"`
	Stackable            bool                 `bson:"stackable"`
	Priority             int                  `bson:"priority"`
	IsActive             bool                 `bson:"isActive"`
	CreatedAt            time.Time            `bson:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt"`
}

func toPromotionDoc(p *promotion.Promotion) promotionDoc {
	return promotionDoc{
		ID:                   p.ID,
		Code:                 p.Code,
		Description:          p.Description,
		DiscountType:         string(p.DiscountType),
		DiscountValue:        dec128(p.DiscountValue),
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		MinimumPurchase:      dec128(p.MinimumPurchase),
		MaximumDiscount:      dec128(p.MaximumDiscount),
		IsFirstPurchaseOnly:  p.IsFirstPurchaseOnly,
		UsageLimitPerUser:    p.UsageLimitPerUser,
		TotalUsageLimit:      p.TotalUsageLimit,
		CurrentUsageCount:    p.CurrentUsageCount,
		ApplicableProducts:   p.ApplicableProducts,
		ApplicableCategories: p.ApplicableCategories,
		Stackable:            p.Stackable,
		Priority:             p.Priority,
		IsActive:             p.IsActive,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (doc *promotionDoc) toDomain() promotion.Promotion {
	return promotion.Promotion{
		ID:                   doc.ID,
		Code:                 doc.Code,
		Description:          doc.Description,
		DiscountType:         promotion.DiscountType(doc.DiscountType),
		DiscountValue:        fromDec128(doc.DiscountValue),
		StartDate:            doc.StartDate,
		EndDate:              doc.EndDate,
		MinimumPurchase:      fromDec128(doc.MinimumPurchase),
		MaximumDiscount:      fromDec128(doc.MaximumDiscount),
		IsFirstPurchaseOnly:  doc.IsFirstPurchaseOnly,
		UsageLimitPerUser:    doc.UsageLimitPerUser,
		TotalUsageLimit:      doc.TotalUsageLimit,
		CurrentUsageCount:    doc.CurrentUsageCount,
		ApplicableProducts:   doc.ApplicableProducts,
		ApplicableCategories: doc.ApplicableCategories,
		Stackable:            doc.Stackable,
		Priority:             doc.Priority,
		IsActive:             doc.IsActive,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
}

func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *PromotionRepository) FindByID(ctx context.Context, id string) (*promotion.Promotion, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PromotionRepository) findOne(ctx context.Context, filter bson.M) (*promotion.Promotion, error) {
	var doc promotionDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, promotion.ErrNotFound
		}
		return nil, errors.Wrap(err, "find promotion")
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *PromotionRepository) List(ctx context.Context) ([]promotion.Promotion, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "createdAt", Value: 1},
	}))
	if err != nil {
		return nil, errors.Wrap(err, "find promotions")
	}
	defer cur.Close(ctx)
	var promos []promotion.Promotion
	for cur.Next(ctx) {
		var doc promotionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode promotion")
		}
		promos = append(promos, doc.toDomain())
	}
	return promos, errors.Wrap(cur.Err(), "cursor")
}

func (r *PromotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, toPromotionDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("promotion code already exists")
		}
		return errors.Wrap(err, "insert promotion")
	}
	return nil
}

func (r *PromotionRepository) Update(ctx context.Context, p *promotion.Promotion) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, toPromotionDoc(p))
	if err != nil {
		return errors.Wrap(err, "replace promotion")
	}
	if res.MatchedCount == 0 {
		return promotion.ErrNotFound
	}
	return nil
}

func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete promotion")
	}
	if res.DeletedCount == 0 {
		return promotion.ErrNotFound
	}
	return nil
}

// IncrementUsage is guarded by the stored total limit: the filter matches
// only promotions whose limit is unset or not yet reached, so two
// concurrent uses of the last slot cannot both succeed.
func (r *PromotionRepository) IncrementUsage(ctx context.Context, id string) error {
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"totalUsageLimit": 0},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$currentUsageCount", "$totalUsageLimit"}}},
			},
		},
		bson.M{"$inc": bson.M{"currentUsageCount": 1}},
	)
	if err := res.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return errors.Wrap(err, "increment usage")
		}
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return promotion.ErrUsageExhausted
	}
	return nil
}
