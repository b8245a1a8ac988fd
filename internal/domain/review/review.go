// Package review handles product reviews and their rating summaries.
package review

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

var (
	ErrNotFound      = apperr.NotFound("review not found")
	ErrAlreadyExists = apperr.Conflict("user already reviewed this product")
	ErrInvalidRating = apperr.Invalid("rating must be between 1 and 5")
)

type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary aggregates all reviews of one product.
type Summary struct {
	ProductID     string
	ReviewCount   int
	AverageRating decimal.Decimal
}

type Repository interface {
	FindByProduct(ctx context.Context, productID string) ([]Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*Review, error)
	// Create fails with ErrAlreadyExists when the user already reviewed
	// the product (enforced by a unique index on userId+productId).
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id, userID string) error
	Summarize(ctx context.Context, productID string) (*Summary, error)
}

type Service struct {
	reviews Repository
	now     func() time.Time
}

func NewService(reviews Repository) *Service {
	return &Service{reviews: reviews, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID, productID string, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	now := s.now()
	r := &Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Update lets a user revise their own review of a product.
func (s *Service) Update(ctx context.Context, userID, productID string, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	r, err := s.reviews.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	r.Rating = rating
	r.Comment = comment
	r.UpdatedAt = s.now()
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.reviews.Delete(ctx, id, userID)
}

func (s *Service) ForProduct(ctx context.Context, productID string) ([]Review, error) {
	return s.reviews.FindByProduct(ctx, productID)
}

// SummaryForProduct never errors for products without reviews; it
// returns a zero-count summary instead.
func (s *Service) SummaryForProduct(ctx context.Context, productID string) (*Summary, error) {
	sum, err := s.reviews.Summarize(ctx, productID)
	if err != nil {
		return nil, err
	}
	if sum == nil {
		return &Summary{ProductID: productID, AverageRating: decimal.Zero}, nil
	}
	return sum, nil
}
