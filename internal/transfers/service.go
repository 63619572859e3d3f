package transfers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts ledger postings.
type MetricsPort interface {
	ObserveLedgerPosting(entryType string)
}

// IdempotencyPort guards transfer postings against retries.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates warehouse transfers and their consignment postings.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
}

// NewService builds the transfers service.
func NewService(repo Repository, audit AuditPort, idem IdempotencyPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics}
}

func transferKey(vehicleID, warehouseID int64) string {
	return fmt.Sprintf("transfer:%d:%d", vehicleID, warehouseID)
}

// List returns transfers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Transfer, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one transfer.
func (s *Service) Get(ctx context.Context, id int64) (Transfer, error) {
	if id <= 0 {
		return Transfer{}, errors.New("transfers: invalid transfer id")
	}
	return s.repo.Get(ctx, id)
}

// Create moves a vehicle to another warehouse. Ownership changes drive the
// ledger: moving stock into an agent-owned warehouse debits that agent's
// balance with the consignment value (TRANSFER_DEBT); moving it out credits
// the previous owner the value that was debited (TRANSFER_RETURN). Both the
// move and the postings commit in one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transfer, []agents.Entry, error) {
	if input.VehicleID <= 0 || input.ToWarehouseID <= 0 {
		return Transfer{}, nil, errors.New("transfers: vehicle and destination warehouse required")
	}
	if input.ConsignmentValue != nil && !input.ConsignmentValue.IsPositive() {
		return Transfer{}, nil, agents.ErrInvalidAmount
	}

	key := input.IdempotencyKey
	if key == "" {
		key = transferKey(input.VehicleID, input.ToWarehouseID)
	}
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "transfer"); err != nil {
			return Transfer{}, nil, err
		}
		insertedKey = true
	}

	var (
		transfer Transfer
		entries  []agents.Entry
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vehicle, err := tx.GetVehicleForUpdate(ctx, input.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status != "IN_STOCK" {
			return ErrVehicleNotInStock
		}
		if vehicle.WarehouseID == input.ToWarehouseID {
			return ErrSameWarehouse
		}

		from, err := tx.GetWarehouse(ctx, vehicle.WarehouseID)
		if err != nil {
			return fmt.Errorf("transfers: source warehouse: %w", err)
		}
		to, err := tx.GetWarehouse(ctx, input.ToWarehouseID)
		if err != nil {
			return fmt.Errorf("transfers: destination warehouse: %w", err)
		}

		// The value the destination agent is put on the hook for.
		var newConsignment *decimal.Decimal
		if to.OwnerAgentID != nil {
			value := vehicle.PurchaseCost
			if input.ConsignmentValue != nil {
				value = input.ConsignmentValue.Round(2)
			}
			newConsignment = &value
		}

		transfer, err = tx.InsertTransfer(ctx, Transfer{
			VehicleID:        input.VehicleID,
			FromWarehouseID:  vehicle.WarehouseID,
			ToWarehouseID:    input.ToWarehouseID,
			ConsignmentValue: newConsignment,
			Note:             input.Note,
			CreatedBy:        input.ActorID,
		})
		if err != nil {
			return err
		}
		if err := tx.MoveVehicle(ctx, input.VehicleID, input.ToWarehouseID, newConsignment); err != nil {
			return err
		}

		refID := strconv.FormatInt(transfer.ID, 10)
		if from.OwnerAgentID != nil {
			returned := vehicle.PurchaseCost
			if vehicle.ConsignmentValue != nil {
				returned = *vehicle.ConsignmentValue
			}
			entry, err := tx.AppendEntry(ctx, agents.EntryInput{
				AgentID:   *from.OwnerAgentID,
				Type:      agents.EntryTransferReturn,
				Credit:    returned,
				RefKind:   "transfer",
				RefID:     refID,
				Note:      input.Note,
				CreatedBy: input.ActorID,
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		if to.OwnerAgentID != nil {
			entry, err := tx.AppendEntry(ctx, agents.EntryInput{
				AgentID:   *to.OwnerAgentID,
				Type:      agents.EntryTransferDebt,
				Debit:     *newConsignment,
				RefKind:   "transfer",
				RefID:     refID,
				Note:      input.Note,
				CreatedBy: input.ActorID,
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Transfer{}, nil, err
	}

	// The vehicle has left its old warehouse; moving it back in later is a
	// new transfer, not a retry, so the old default key must not block it.
	if s.idempotency != nil {
		_ = s.idempotency.Delete(ctx, transferKey(input.VehicleID, transfer.FromWarehouseID))
	}

	if s.metrics != nil {
		for _, e := range entries {
			s.metrics.ObserveLedgerPosting(string(e.Type))
		}
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "transfers:create",
			Entity:   "transfer",
			EntityID: strconv.FormatInt(transfer.ID, 10),
			Meta: map[string]any{
				"vehicle_id":        input.VehicleID,
				"from_warehouse_id": transfer.FromWarehouseID,
				"to_warehouse_id":   transfer.ToWarehouseID,
				"ledger_entries":    len(entries),
			},
		})
	}
	return transfer, entries, nil
}
