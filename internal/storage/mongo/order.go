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

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
)

type OrderRepository struct {
	coll *mongo.Collection
}

var _ order.Repository = (*OrderRepository)(nil)

func NewOrderRepository(d *Database) *OrderRepository {
	return &OrderRepository{coll: d.db.Collection(collOrders)}
}

type orderItemDoc struct {
	ProductID   string               `bson:"productId"`
	Name        string               `bson:"name"`
	UnitPrice   primitive.Decimal128 `bson:"unitPrice"`
	Quantity    int                  `bson:"quantity"`
	FlashSaleID string               `bson:"flashSaleId,omitempty"`
}

type paymentDoc struct {
	Reference    string    `bson:"reference"`
	ClientSecret string    `bson:"clientSecret"`
	Method       string    `bson:"method"`
	Currency     string    `bson:"currency"`
	CapturedAt   time.Time `bson:"capturedAt"`
}

type orderDoc struct {
	ID             string               `bson:"_id"`
	UserID         string               `bson:"userId"`
	Items          []orderItemDoc       `bson:"items"`
	SubTotal       primitive.Decimal128 `bson:"subTotal"`
	Discount       primitive.Decimal128 `bson:"discount"`
	ShippingCost   primitive.Decimal128 `bson:"shippingCost"`
	TotalCost      primitive.Decimal128 `bson:"totalCost"`
	CouponCode     string               `bson:"couponCode,omitempty"`
	PromotionID    string               `bson:"promotionId,omitempty"`
	ShipmentID     string               `bson:"shipmentId"`
	Note           string               `bson:"note,omitempty"`
	Status         string               `bson:"status"`
	Payment        *paymentDoc          `bson:"payment,omitempty"`
	TrackingNumber string               `bson:"trackingNumber,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func toOrderDoc(o *order.Order) orderDoc {
	doc := orderDoc{
		ID:             o.ID,
		UserID:         o.UserID,
		Items:          []orderItemDoc{},
		SubTotal:       dec128(o.SubTotal),
		Discount:       dec128(o.Discount),
		ShippingCost:   dec128(o.ShippingCost),
		TotalCost:      dec128(o.TotalCost),
		CouponCode:     o.CouponCode,
		PromotionID:    o.PromotionID,
		ShipmentID:     o.ShipmentID,
		Note:           o.Note,
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for _, it := range o.Items {
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID:   it.ProductID,
			Name:        it.Name,
			UnitPrice:   dec128(it.UnitPrice),
			Quantity:    it.Quantity,
			FlashSaleID: it.FlashSaleID,
		})
	}
	if o.Payment != nil {
		doc.Payment = &paymentDoc{
			Reference:    o.Payment.Reference,
			ClientSecret: o.Payment.ClientSecret,
			Method:       o.Payment.Method,
			Currency:     o.Payment.Currency,
			CapturedAt:   o.Payment.CapturedAt,
		}
	}
	return doc
}

func (doc *orderDoc) toDomain() order.Order {
	o := order.Order{
		ID:             doc.ID,
		UserID:         doc.UserID,
		SubTotal:       fromDec128(doc.SubTotal),
		Discount:       fromDec128(doc.Discount),
		ShippingCost:   fromDec128(doc.ShippingCost),
		TotalCost:      fromDec128(doc.TotalCost),
		CouponCode:     doc.CouponCode,
		PromotionID:    doc.PromotionID,
		ShipmentID:     doc.ShipmentID,
		Note:           doc.Note,
		Status:         order.Status(doc.Status),
		TrackingNumber: doc.TrackingNumber,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	for _, it := range doc.Items {
		o.Items = append(o.Items, order.Item{
			ProductID:   it.ProductID,
			Name:        it.Name,
			UnitPrice:   fromDec128(it.UnitPrice),
			Quantity:    it.Quantity,
			FlashSaleID: it.FlashSaleID,
		})
	}
	if doc.Payment != nil {
		o.Payment = &order.Payment{
			Reference:    doc.Payment.Reference,
			ClientSecret: doc.Payment.ClientSecret,
			Method:       doc.Payment.Method,
			Currency:     doc.Payment.Currency,
			CapturedAt:   doc.Payment.CapturedAt,
		}
	}
	return o
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, toOrderDoc(o))
	return errors.Wrap(err, "insert order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	o := doc.toDomain()
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	defer cur.Close(ctx)
	var orders []order.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode order")
		}
		orders = append(orders, doc.toDomain())
	}
	return orders, errors.Wrap(cur.Err(), "cursor")
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now()}},
	)
	if err != nil {
		return errors.Wrap(err, "update status")
	}
	if res.MatchedCount == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) SetPayment(ctx context.Context, id string, p order.Payment, status order.Status, trackingNumber string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"payment": paymentDoc{
				Reference:    p.Reference,
				ClientSecret: p.ClientSecret,
				Method:       p.Method,
				Currency:     p.Currency,
				CapturedAt:   p.CapturedAt,
			},
			"status":         string(status),
			"trackingNumber": trackingNumber,
			"updatedAt":      time.Now(),
		}},
	)
	if err != nil {
		return errors.Wrap(err, "set payment")
	}
	if res.MatchedCount == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) CompletedOrderCount(ctx context.Context, userID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"userId": userID,
		"status": string(order.StatusDelivered),
	})
	return int(n), errors.Wrap(err, "count completed orders")
}

func (r *OrderRepository) PromotionUsageCount(ctx context.Context, userID, promotionID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"userId":      userID,
		"promotionId": promotionID,
		"status":      bson.M{"$ne": string(order.StatusCancelled)},
	})
	return int(n), errors.Wrap(err, "count promotion uses")
}
