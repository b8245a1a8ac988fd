package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/review"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

var _ review.Repository = (*ReviewRepository)(nil)

func NewReviewRepository(d *Database) *ReviewRepository {
	return &ReviewRepository{coll: d.db.Collection(collReviews)}
}

type reviewDoc struct {
	ID        string    `bson:"_id"`
	ProductID string    `bson:"productId"`
	UserID    string    `bson:"userId"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toReviewDoc(rv *review.Review) reviewDoc {
	return reviewDoc{
		ID:        rv.ID,
		ProductID: rv.ProductID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
		UpdatedAt: rv.UpdatedAt,
	}
}

func (doc *reviewDoc) toDomain() review.Review {
	return review.Review{
		ID:        doc.ID,
		ProductID: doc.ProductID,
		UserID:    doc.UserID,
		Rating:    doc.Rating,
		Comment:   doc.Comment,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (r *ReviewRepository) FindByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"productId": productID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find reviews")
	}
	defer cur.Close(ctx)
	var reviews []review.Review
	for cur.Next(ctx) {
		var doc reviewDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode review")
		}
		reviews = append(reviews, doc.toDomain())
	}
	return reviews, errors.Wrap(cur.Err(), "cursor")
}

func (r *ReviewRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (*review.Review, error) {
	var doc reviewDoc
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID, "productId": productID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, review.ErrNotFound
		}
		return nil, errors.Wrap(err, "find review")
	}
	rv := doc.toDomain()
	return &rv, nil
}

// Create defers one-review-per-user enforcement to the unique
// userId+productId index.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, toReviewDoc(rv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return review.ErrAlreadyExists
		}
		return errors.Wrap(err, "insert review")
	}
	return nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": rv.ID}, toReviewDoc(rv))
	if err != nil {
		return errors.Wrap(err, "replace review")
	}
	if res.MatchedCount == 0 {
		return review.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	if res.DeletedCount == 0 {
		return review.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Summarize(ctx context.Context, productID string) (*review.Summary, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$productId",
			"reviewCount":   bson.M{"$sum": 1},
			"averageRating": bson.M{"$avg": "$rating"},
		}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "aggregate review summary")
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return nil, errors.Wrap(cur.Err(), "cursor")
	}
	// $avg over integer ratings yields a double.
	var row struct {
		ProductID     string  `bson:"_id"`
		ReviewCount   int     `bson:"reviewCount"`
		AverageRating float64 `bson:"averageRating"`
	}
	if err := cur.Decode(&row); err != nil {
		return nil, errors.Wrap(err, "decode review summary")
	}
	return &review.Summary{
		ProductID:     row.ProductID,
		ReviewCount:   row.ReviewCount,
		AverageRating: decimal.NewFromFloat(row.AverageRating).Round(2),
	}, nil
}
