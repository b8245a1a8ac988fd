// Package favorite keeps each user's wishlist of products.
package favorite

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

var ErrNotFound = apperr.NotFound("favorite list not found")

// List is a per-user set of product IDs. Adding the same product twice
// is a no-op.
type List struct {
	ID         string
	UserID     string
	ProductIDs []string
	UpdatedAt  time.Time
}

func (l *List) Contains(productID string) bool {
	for _, id := range l.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

type Repository interface {
	FindByUser(ctx context.Context, userID string) (*List, error)
	// Add inserts productID into the user's set, creating the list on
	// first use. Duplicate adds leave the set unchanged.
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

type Service struct {
	favorites Repository
}

func NewService(favorites Repository) *Service {
	return &Service{favorites: favorites}
}

func (s *Service) Add(ctx context.Context, userID, productID string) error {
	return s.favorites.Add(ctx, userID, productID)
}

func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return s.favorites.Remove(ctx, userID, productID)
}

// ListForUser returns an empty list rather than an error for users who
// never favorited anything.
func (s *Service) ListForUser(ctx context.Context, userID string) (*List, error) {
	l, err := s.favorites.FindByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &List{UserID: userID, ProductIDs: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
