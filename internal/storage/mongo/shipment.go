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

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/shipment"
)

type ShipmentRepository struct {
	coll *mongo.Collection
}

var _ shipment.Repository = (*ShipmentRepository)(nil)

func NewShipmentRepository(d *Database) *ShipmentRepository {
	return &ShipmentRepository{coll: d.db.Collection(collShipments)}
}

type shipmentDoc struct {
	ID           string               `bson:"_id"`
	UserID       string               `bson:"userId"`
	Recipient    string               `bson:"recipient"`
	Phone        string               `bson:"phone,omitempty"`
	Street       string               `bson:"street"`
	City         string               `bson:"city"`
	Country      string               `bson:"country"`
	DeliveryCost primitive.Decimal128 `bson:"deliveryCost"`
	IsDefault    bool                 `bson:"isDefault"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func toShipmentDoc(s *shipment.Shipment) shipmentDoc {
	return shipmentDoc{
		ID:           s.ID,
		UserID:       s.UserID,
		Recipient:    s.Recipient,
		Phone:        s.Phone,
		Street:       s.Street,
		City:         s.City,
		Country:      s.Country,
		DeliveryCost: dec128(s.DeliveryCost),
		IsDefault:    s.IsDefault,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (doc *shipmentDoc) toDomain() shipment.Shipment {
	return shipment.Shipment{
		ID:           doc.ID,
		UserID:       doc.UserID,
		Recipient:    doc.Recipient,
		Phone:        doc.Phone,
		Street:       doc.Street,
		City:         doc.City,
		Country:      doc.Country,
		DeliveryCost: fromDec128(doc.DeliveryCost),
		IsDefault:    doc.IsDefault,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*shipment.Shipment, error) {
	var doc shipmentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shipment.ErrNotFound
		}
		return nil, errors.Wrap(err, "find shipment")
	}
	s := doc.toDomain()
	return &s, nil
}

func (r *ShipmentRepository) ListByUser(ctx context.Context, userID string) ([]shipment.Shipment, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "isDefault", Value: -1}, {Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find shipments")
	}
	defer cur.Close(ctx)
	var shipments []shipment.Shipment
	for cur.Next(ctx) {
		var doc shipmentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode shipment")
		}
		shipments = append(shipments, doc.toDomain())
	}
	return shipments, errors.Wrap(cur.Err(), "cursor")
}

func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.IsDefault {
		if err := r.clearDefault(ctx, s.UserID); err != nil {
			return err
		}
	}
	_, err := r.coll.InsertOne(ctx, toShipmentDoc(s))
	return errors.Wrap(err, "insert shipment")
}

func (r *ShipmentRepository) Update(ctx context.Context, s *shipment.Shipment) error {
	if s.IsDefault {
		if err := r.clearDefault(ctx, s.UserID); err != nil {
			return err
		}
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, toShipmentDoc(s))
	if err != nil {
		return errors.Wrap(err, "replace shipment")
	}
	if res.MatchedCount == 0 {
		return shipment.ErrNotFound
	}
	return nil
}

func (r *ShipmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete shipment")
	}
	if res.DeletedCount == 0 {
		return shipment.ErrNotFound
	}
	return nil
}

// clearDefault keeps at most one default address per user.
func (r *ShipmentRepository) clearDefault(ctx context.Context, userID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "isDefault": true},
		bson.M{"$set": bson.M{"isDefault": false}},
	)
	return errors.Wrap(err, "clear default shipment")
}
