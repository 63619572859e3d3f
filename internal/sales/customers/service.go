package customers

import (
	"context"
	"errors"
	"strings"
)

// Service coordinates customer master data.
type Service struct {
	repo Repository
}

// NewService builds the customers service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, errors.New("customers: invalid customer id")
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new customer.
func (s *Service) Create(ctx context.Context, input Input) (Customer, error) {
	if err := normalize(&input); err != nil {
		return Customer{}, err
	}
	return s.repo.Create(ctx, input)
}

// Update modifies a customer.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Customer, error) {
	if id <= 0 {
		return Customer{}, errors.New("customers: invalid customer id")
	}
	if err := normalize(&input); err != nil {
		return Customer{}, err
	}
	if err := s.repo.Update(ctx, id, input); err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

func normalize(input *Input) error {
	input.Name = strings.TrimSpace(input.Name)
	input.NationalID = strings.TrimSpace(input.NationalID)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Name == "" {
		return errors.New("customers: name is required")
	}
	return nil
}
