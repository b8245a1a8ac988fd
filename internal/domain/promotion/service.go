package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service wraps promotion CRUD with the immutability rules: a promotion with
// recorded uses cannot be deleted or have its code changed, only deactivated.
type Service struct {
	repo Repository
}

// NewService creates a promotion Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*Promotion, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	return s.repo.FindByCode(ctx, code)
}

func (s *Service) List(ctx context.Context) ([]Promotion, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, p *Promotion) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.CurrentUsageCount = 0
	return s.repo.Create(ctx, p)
}

// Update applies admin edits. Changing the code of a used promotion is
// rejected with ErrInUse.
func (s *Service) Update(ctx context.Context, p *Promotion) error {
	current, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.CurrentUsageCount > 0 && current.Code != p.Code {
		return ErrInUse
	}
	p.CurrentUsageCount = current.CurrentUsageCount
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()
	return s.repo.Update(ctx, p)
}

// Delete removes an unused promotion. Used promotions return ErrInUse;
// deactivate them instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current.CurrentUsageCount > 0 {
		return ErrInUse
	}
	return s.repo.Delete(ctx, id)
}

// Deactivate turns a promotion off without touching its usage history.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	current.IsActive = false
	current.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, current); err != nil {
		return errors.Wrap(err, "deactivate promotion")
	}
	return nil
}

// RecordUse consumes one use, enforcing the total usage limit atomically at
// the storage layer.
func (s *Service) RecordUse(ctx context.Context, id string) error {
	return s.repo.IncrementUsage(ctx, id)
}
