package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceTokenRepository stores push-notification device registrations.
// It backs notification.TokenSource.
type DeviceTokenRepository struct {
	coll *mongo.Collection
}

func NewDeviceTokenRepository(d *Database) *DeviceTokenRepository {
	return &DeviceTokenRepository{coll: d.db.Collection(collDeviceTokens)}
}

type deviceTokenDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Token     string    `bson:"token"`
	Platform  string    `bson:"platform,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Register upserts by (userId, token): re-registering the same device
// is a no-op thanks to the unique index.
func (r *DeviceTokenRepository) Register(ctx context.Context, userID, token, platform string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "token": token},
		bson.M{
			"$set": bson.M{"platform": platform},
			"$setOnInsert": bson.M{
				"_id":       uuid.NewString(),
				"createdAt": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "register device token")
}

func (r *DeviceTokenRepository) Unregister(ctx context.Context, userID, token string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "token": token})
	return errors.Wrap(err, "unregister device token")
}

func (r *DeviceTokenRepository) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, errors.Wrap(err, "find device tokens")
	}
	defer cur.Close(ctx)
	var tokens []string
	for cur.Next(ctx) {
		var doc deviceTokenDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode device token")
		}
		tokens = append(tokens, doc.Token)
	}
	return tokens, errors.Wrap(cur.Err(), "cursor")
}
