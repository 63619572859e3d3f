package models

import (
	"context"
	"errors"
	"strings"
	"time"

	mdshared "github.com/mototrade-erp/mototrade/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]VehicleModel, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (VehicleModel, error) {
	if id <= 0 {
		return VehicleModel{}, errors.New("invalid model ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m VehicleModel) (VehicleModel, error) {
	if err := validateModel(m); err != nil {
		return VehicleModel{}, err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, m VehicleModel) error {
	if id <= 0 {
		return errors.New("invalid model ID")
	}
	if err := validateModel(m); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, m)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid model ID")
	}
	return s.repo.Delete(ctx, id)
}

func validateModel(m VehicleModel) error {
	if strings.TrimSpace(m.Brand) == "" {
		return errors.New("brand is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("model name is required")
	}
	if m.Year < 1970 || m.Year > time.Now().Year()+1 {
		return errors.New("model year out of range")
	}
	if m.CapacityCC <= 0 {
		return errors.New("engine capacity must be positive")
	}
	if m.ListPrice.IsNegative() {
		return errors.New("list price must not be negative")
	}
	return nil
}
