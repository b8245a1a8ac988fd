package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

type ProductRepository struct {
	coll *mongo.Collection
}

var _ product.Repository = (*ProductRepository)(nil)

func NewProductRepository(d *Database) *ProductRepository {
	return &ProductRepository{coll: d.db.Collection(collProducts)}
}

type supplierDoc struct {
	Name        string               `bson:"name"`
	Price       primitive.Decimal128 `bson:"price"`
	Quantity    int                  `bson:"quantity"`
	Discount    primitive.Decimal128 `bson:"discount"`
	RestockDate *time.Time           `bson:"restockDate,omitempty"`
}

type flashOverrideDoc struct {
	SaleID       string               `bson:"saleId"`
	SpecialPrice primitive.Decimal128 `bson:"specialPrice"`
	StartDate    time.Time            `bson:"startDate"`
	EndDate      time.Time            `bson:"endDate"`
	Active       bool                 `bson:"active"`
}

type productDoc struct {
	ID              string               `bson:"_id"`
	Name            string               `bson:"name"`
	Description     string               `bson:"description,omitempty"`
	Category        string               `bson:"category,omitempty"`
	Image           string               `bson:"image,omitempty"`
	DefaultPrice    primitive.Decimal128 `bson:"defaultPrice"`
	DefaultQuantity int                  `bson:"defaultQuantity"`
	DefaultDiscount primitive.Decimal128 `bson:"defaultDiscount"`
	Suppliers       []supplierDoc        `bson:"suppliers,omitempty"`
	FlashSale       *flashOverrideDoc    `bson:"flashSale,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func toProductDoc(p *product.Product) productDoc {
	doc := productDoc{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Image:        p.Image,
		DefaultPrice: dec128(p.Price()),
		// The stored counter is always explicit so conditional stock
		// decrements have a single field to guard on.
		DefaultQuantity: p.Available(),
		DefaultDiscount: dec128(p.DefaultDiscount),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	for _, s := range p.Suppliers {
		doc.Suppliers = append(doc.Suppliers, supplierDoc{
			Name:        s.Name,
			Price:       dec128(s.Price),
			Quantity:    s.Quantity,
			Discount:    dec128(s.Discount),
			RestockDate: s.RestockDate,
		})
	}
	if p.FlashSale != nil {
		doc.FlashSale = &flashOverrideDoc{
			SaleID:       p.FlashSale.SaleID,
			SpecialPrice: dec128(p.FlashSale.SpecialPrice),
			StartDate:    p.FlashSale.StartDate,
			EndDate:      p.FlashSale.EndDate,
			Active:       p.FlashSale.Active,
		}
	}
	return doc
}

func (doc *productDoc) toDomain() product.Product {
	p := product.Product{
		ID:              doc.ID,
		Name:            doc.Name,
		Description:     doc.Description,
		Category:        doc.Category,
		Image:           doc.Image,
		DefaultPrice:    fromDec128(doc.DefaultPrice),
		DefaultQuantity: doc.DefaultQuantity,
		DefaultDiscount: fromDec128(doc.DefaultDiscount),
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	for _, s := range doc.Suppliers {
		p.Suppliers = append(p.Suppliers, product.Supplier{
			Name:        s.Name,
			Price:       fromDec128(s.Price),
			Quantity:    s.Quantity,
			Discount:    fromDec128(s.Discount),
			RestockDate: s.RestockDate,
		})
	}
	if doc.FlashSale != nil {
		p.FlashSale = &product.FlashOverride{
			SaleID:       doc.FlashSale.SaleID,
			SpecialPrice: fromDec128(doc.FlashSale.SpecialPrice),
			StartDate:    doc.FlashSale.StartDate,
			EndDate:      doc.FlashSale.EndDate,
			Active:       doc.FlashSale.Active,
		}
	}
	return p
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	return decodeProducts(ctx, cur)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find products by ids")
	}
	return decodeProducts(ctx, cur)
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, toProductDoc(p)); err != nil {
		return errors.Wrap(err, "insert product")
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, toProductDoc(p))
	if err != nil {
		return errors.Wrap(err, "replace product")
	}
	if res.MatchedCount == 0 {
		return product.ErrNotFound
	}
	return nil
}

// DecrementStock is a single conditional write: it matches only when at
// least qty units remain, so concurrent checkouts cannot oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id":             id,
			"defaultQuantity": bson.M{"$gte": qty},
		},
		bson.M{"$inc": bson.M{"defaultQuantity": -qty}},
	)
	if err := res.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return errors.Wrap(err, "decrement stock")
		}
		// Distinguish a missing product from an understocked one.
		if _, ferr := r.GetByID(ctx, id); ferr != nil {
			return ferr
		}
		return apperr.InsufficientInventory("insufficient stock for product %s", id)
	}
	return nil
}

func (r *ProductRepository) ApplyFlashOverride(ctx context.Context, ids []string, o product.FlashOverride) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"flashSale": flashOverrideDoc{
			SaleID:       o.SaleID,
			SpecialPrice: dec128(o.SpecialPrice),
			StartDate:    o.StartDate,
			EndDate:      o.EndDate,
			Active:       o.Active,
		}}},
	)
	return errors.Wrap(err, "apply flash override")
}

func (r *ProductRepository) ReleaseFlashOverride(ctx context.Context, ids []string, saleID string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{
			"_id":              bson.M{"$in": ids},
			"flashSale.saleId": saleID,
		},
		bson.M{"$unset": bson.M{"flashSale": ""}},
	)
	return errors.Wrap(err, "release flash override")
}

func (r *ProductRepository) FindLinkedToOtherSale(ctx context.Context, ids []string, excludeSaleID string, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx,
		bson.M{
			"_id":               bson.M{"$in": ids},
			"flashSale.saleId":  bson.M{"$ne": excludeSaleID},
			"flashSale.active":  true,
			"flashSale.endDate": bson.M{"$gt": now},
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "find linked products")
	}
	defer cur.Close(ctx)
	var linked []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode product id")
		}
		linked = append(linked, doc.ID)
	}
	return linked, errors.Wrap(cur.Err(), "cursor")
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]product.Product, error) {
	defer cur.Close(ctx)
	var products []product.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		products = append(products, doc.toDomain())
	}
	return products, errors.Wrap(cur.Err(), "cursor")
}
