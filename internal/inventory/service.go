package inventory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// identityPattern covers engine and chassis serials: uppercase alphanumerics
// with optional dashes, as stamped by the manufacturers we trade.
var identityPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{4,38}[A-Z0-9]$`)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates vehicle inventory operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds the inventory service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Register takes a vehicle into stock at a warehouse.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Vehicle, error) {
	engine := NormalizeIdentity(input.EngineNumber)
	chassis := NormalizeIdentity(input.ChassisNumber)
	if !identityPattern.MatchString(engine) || !identityPattern.MatchString(chassis) {
		return Vehicle{}, ErrInvalidIdentity
	}
	if engine == chassis {
		return Vehicle{}, fmt.Errorf("%w: engine and chassis numbers must differ", ErrInvalidIdentity)
	}
	if input.PurchaseCost.IsNegative() {
		return Vehicle{}, errors.New("inventory: purchase cost must not be negative")
	}

	vehicle, err := s.repo.Create(ctx, Vehicle{
		ModelID:       input.ModelID,
		EngineNumber:  engine,
		ChassisNumber: chassis,
		Color:         strings.TrimSpace(input.Color),
		PurchaseCost:  input.PurchaseCost,
		Supplier:      strings.TrimSpace(input.Supplier),
		WarehouseID:   input.WarehouseID,
		Notes:         input.Notes,
		CreatedBy:     input.ActorID,
	})
	if err != nil {
		return Vehicle{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:register",
			Entity:   "vehicle",
			EntityID: strconv.FormatInt(vehicle.ID, 10),
			Meta: map[string]any{
				"engine_number":  vehicle.EngineNumber,
				"chassis_number": vehicle.ChassisNumber,
				"warehouse_id":   vehicle.WarehouseID,
			},
		})
	}
	return vehicle, nil
}

// List returns vehicles matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Vehicle, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one vehicle by id.
func (s *Service) Get(ctx context.Context, id int64) (Vehicle, error) {
	if id <= 0 {
		return Vehicle{}, errors.New("inventory: invalid vehicle id")
	}
	return s.repo.Get(ctx, id)
}

// Lookup resolves a vehicle by engine or chassis number.
func (s *Service) Lookup(ctx context.Context, serial string) (Vehicle, error) {
	serial = NormalizeIdentity(serial)
	if serial == "" {
		return Vehicle{}, ErrInvalidIdentity
	}
	vehicle, err := s.repo.GetByEngineNumber(ctx, serial)
	if err == nil {
		return vehicle, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Vehicle{}, err
	}
	return s.repo.GetByChassisNumber(ctx, serial)
}

// Update applies descriptive-field changes. Sold vehicles accept notes only.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Vehicle, error) {
	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if vehicle.Status == StatusSold {
		if input.Color != nil || input.Supplier != nil || input.Cost != nil {
			return Vehicle{}, ErrVehicleSold
		}
	}
	if input.Cost != nil && input.Cost.IsNegative() {
		return Vehicle{}, errors.New("inventory: purchase cost must not be negative")
	}
	if err := s.repo.UpdateDetails(ctx, id, input); err != nil {
		return Vehicle{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an in-stock vehicle with no history.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if vehicle.Status != StatusInStock {
		return ErrVehicleSold
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory:delete",
			Entity:   "vehicle",
			EntityID: strconv.FormatInt(id, 10),
			Meta: map[string]any{
				"engine_number":  vehicle.EngineNumber,
				"chassis_number": vehicle.ChassisNumber,
			},
		})
	}
	return nil
}

// NormalizeIdentity upper-cases and strips spacing from a serial.
func NormalizeIdentity(serial string) string {
	return strings.ToUpper(strings.Join(strings.Fields(serial), ""))
}
