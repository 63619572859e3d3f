package sales

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

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

// IdempotencyPort guards sale postings against retries.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates direct sales and voids.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
}

// NewService builds the sales service.
func NewService(repo Repository, audit AuditPort, idem IdempotencyPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics}
}

func directSaleKey(vehicleID, customerID int64) string {
	return fmt.Sprintf("direct-sale:%d:%d", vehicleID, customerID)
}

// List returns sales matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one sale.
func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	if id <= 0 {
		return Sale{}, errors.New("sales: invalid sale id")
	}
	return s.repo.Get(ctx, id)
}

// CreateDirect books a showroom sale. The vehicle must be in stock at a
// company warehouse; consigned stock goes through the agent sale flow so
// the debt postings happen.
func (s *Service) CreateDirect(ctx context.Context, input DirectSaleInput) (Sale, error) {
	if input.VehicleID <= 0 || input.CustomerID <= 0 {
		return Sale{}, errors.New("sales: vehicle and customer required")
	}
	if !input.Price.IsPositive() {
		return Sale{}, ErrInvalidPrice
	}
	soldAt := input.SoldAt
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}

	key := input.IdempotencyKey
	if key == "" {
		key = directSaleKey(input.VehicleID, input.CustomerID)
	}
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "direct_sale"); err != nil {
			return Sale{}, err
		}
		insertedKey = true
	}

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vehicle, err := tx.GetVehicleForUpdate(ctx, input.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status != "IN_STOCK" {
			return ErrVehicleNotAvailable
		}
		if vehicle.OwnerAgentID != nil {
			return ErrConsignedStock
		}

		sale, err = tx.InsertSale(ctx, Sale{
			VehicleID:  input.VehicleID,
			CustomerID: input.CustomerID,
			Price:      input.Price,
			Commission: decimal.Zero,
			Status:     StatusCompleted,
			SoldAt:     soldAt,
			CreatedBy:  input.ActorID,
		})
		if err != nil {
			return err
		}
		return tx.MarkVehicleSold(ctx, input.VehicleID, soldAt)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Sale{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "sales:create",
			Entity:   "sale",
			EntityID: strconv.FormatInt(sale.ID, 10),
			Meta: map[string]any{
				"vehicle_id":  input.VehicleID,
				"customer_id": input.CustomerID,
				"price":       input.Price.String(),
			},
		})
	}
	return sale, nil
}

// Void cancels a sale: the row is marked VOID with the reason, the vehicle
// returns to stock, and any agent ledger postings referencing the sale are
// reversed, all in one transaction.
func (s *Service) Void(ctx context.Context, saleID int64, reason string, actorID int64) (Sale, []agents.Entry, error) {
	if saleID <= 0 {
		return Sale{}, nil, errors.New("sales: invalid sale id")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Sale{}, nil, errors.New("sales: void reason required")
	}

	var (
		sale    Sale
		entries []agents.Entry
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusCompleted {
			return ErrAlreadyVoid
		}

		voidedAt := time.Now().UTC()
		if err := tx.MarkSaleVoid(ctx, saleID, reason, voidedAt); err != nil {
			return err
		}
		if err := tx.RestoreVehicle(ctx, sale.VehicleID); err != nil {
			return err
		}
		if sale.AgentID != nil {
			entries, err = tx.ReverseLedgerByRef(ctx, "sale", strconv.FormatInt(saleID, 10), reason, actorID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Sale{}, nil, err
	}

	// The vehicle is back in stock: a corrected re-sale is a new operation,
	// not a retry, so the default keys must not block it.
	if s.idempotency != nil {
		_ = s.idempotency.Delete(ctx, directSaleKey(sale.VehicleID, sale.CustomerID))
		if sale.AgentID != nil {
			_ = s.idempotency.Delete(ctx, agents.SaleIdempotencyKey(*sale.AgentID, sale.VehicleID))
		}
	}

	if s.metrics != nil {
		for _, e := range entries {
			s.metrics.ObserveLedgerPosting(string(e.Type))
		}
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sales:void",
			Entity:   "sale",
			EntityID: strconv.FormatInt(saleID, 10),
			Meta: map[string]any{
				"reason":         reason,
				"ledger_entries": len(entries),
			},
		})
	}

	voided, err := s.repo.Get(ctx, saleID)
	if err == nil {
		sale = voided
	}
	return sale, entries, nil
}
