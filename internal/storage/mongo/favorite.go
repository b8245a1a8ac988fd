package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/favorite"
)

type FavoriteRepository struct {
	coll *mongo.Collection
}

var _ favorite.Repository = (*FavoriteRepository)(nil)

func NewFavoriteRepository(d *Database) *FavoriteRepository {
	return &FavoriteRepository{coll: d.db.Collection(collFavorites)}
}

type favoriteDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"userId"`
	ProductIDs []string  `bson:"productIds"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func (r *FavoriteRepository) FindByUser(ctx context.Context, userID string) (*favorite.List, error) {
	var doc favoriteDoc
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, favorite.ErrNotFound
		}
		return nil, errors.Wrap(err, "find favorites")
	}
	return &favorite.List{
		ID:         doc.ID,
		UserID:     doc.UserID,
		ProductIDs: doc.ProductIDs,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// Add relies on $addToSet for idempotency: the same product can be
// favorited any number of times without duplicating the entry.
func (r *FavoriteRepository) Add(ctx context.Context, userID, productID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$addToSet":    bson.M{"productIds": productID},
			"$set":         bson.M{"updatedAt": time.Now()},
			"$setOnInsert": bson.M{"_id": uuid.NewString()},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "add favorite")
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$pull": bson.M{"productIds": productID},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	return errors.Wrap(err, "remove favorite")
}
