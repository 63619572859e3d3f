package agents

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

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

// IdempotencyPort guards postings against retries.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates agent management and ledger postings.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
}

// NewService builds the agents service.
func NewService(repo Repository, audit AuditPort, idem IdempotencyPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics}
}

// SaleIdempotencyKey is the default key for an agent sale posting. Voiding
// the sale frees it again, so only an in-flight duplicate collides.
func SaleIdempotencyKey(agentID, vehicleID int64) string {
	return fmt.Sprintf("agent-sale:%d:%d", agentID, vehicleID)
}

// List returns agents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Agent, int, error) {
	return s.repo.List(ctx, filter)
}

// Get fetches one agent.
func (s *Service) Get(ctx context.Context, id int64) (Agent, error) {
	if id <= 0 {
		return Agent{}, errors.New("agents: invalid agent id")
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new agent with a zero balance.
func (s *Service) Create(ctx context.Context, agent Agent) (Agent, error) {
	if err := validateAgent(agent); err != nil {
		return Agent{}, err
	}
	return s.repo.Create(ctx, agent)
}

// Update modifies agent master data. The balance is never written here.
func (s *Service) Update(ctx context.Context, id int64, agent Agent) error {
	if id <= 0 {
		return errors.New("agents: invalid agent id")
	}
	if err := validateAgent(agent); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, agent)
}

// Statement lists ledger entries with their balance snapshots.
func (s *Service) Statement(ctx context.Context, filter StatementFilter) ([]Entry, int, error) {
	if filter.AgentID <= 0 {
		return nil, 0, errors.New("agents: invalid agent id")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.Statement(ctx, filter)
}

// CreateAgentSale posts an agent sale atomically: the vehicle must be in
// stock at a warehouse owned by the agent; the sale row is inserted, the
// vehicle marked sold, and SALE_SETTLEMENT plus COMMISSION entries appended
// under the same transaction.
func (s *Service) CreateAgentSale(ctx context.Context, input AgentSaleInput) (saleID int64, entries []Entry, err error) {
	if input.AgentID <= 0 || input.VehicleID <= 0 || input.CustomerID <= 0 {
		return 0, nil, errors.New("agents: agent, vehicle and customer required")
	}
	if !input.SalePrice.IsPositive() {
		return 0, nil, ErrInvalidAmount
	}
	if input.CommissionOverride != nil && input.CommissionOverride.IsNegative() {
		return 0, nil, ErrInvalidAmount
	}
	soldAt := input.SoldAt
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}

	agent, err := s.repo.Get(ctx, input.AgentID)
	if err != nil {
		return 0, nil, err
	}
	if !agent.IsActive {
		return 0, nil, ErrAgentInactive
	}

	commission := agent.CommissionRate.Mul(input.SalePrice).Round(2)
	if input.CommissionOverride != nil {
		commission = input.CommissionOverride.Round(2)
	}

	key := input.IdempotencyKey
	if key == "" {
		key = SaleIdempotencyKey(input.AgentID, input.VehicleID)
	}
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "agent_sale"); err != nil {
			return 0, nil, err
		}
		insertedKey = true
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vehicle, err := tx.GetConsignedVehicleForUpdate(ctx, input.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status != "IN_STOCK" {
			return ErrVehicleNotConsigned
		}
		if vehicle.OwnerAgentID == nil || *vehicle.OwnerAgentID != input.AgentID {
			return ErrVehicleNotConsigned
		}

		settlement := vehicle.PurchaseCost
		if vehicle.ConsignmentValue != nil {
			settlement = *vehicle.ConsignmentValue
		}

		agentID := input.AgentID
		id, err := tx.InsertSale(ctx, SaleRecord{
			VehicleID:  input.VehicleID,
			CustomerID: input.CustomerID,
			AgentID:    &agentID,
			Price:      input.SalePrice,
			Commission: commission,
			SoldAt:     soldAt,
			CreatedBy:  input.ActorID,
		})
		if err != nil {
			return err
		}
		saleID = id
		if err := tx.MarkVehicleSold(ctx, input.VehicleID, soldAt); err != nil {
			return err
		}

		refID := strconv.FormatInt(saleID, 10)
		settlementEntry, err := tx.AppendEntry(ctx, EntryInput{
			AgentID:   input.AgentID,
			Type:      EntrySaleSettlement,
			Credit:    settlement,
			RefKind:   "sale",
			RefID:     refID,
			Note:      input.Note,
			CreatedBy: input.ActorID,
		})
		if err != nil {
			return err
		}
		entries = append(entries, settlementEntry)

		if commission.IsPositive() {
			commissionEntry, err := tx.AppendEntry(ctx, EntryInput{
				AgentID:   input.AgentID,
				Type:      EntryCommission,
				Credit:    commission,
				RefKind:   "sale",
				RefID:     refID,
				CreatedBy: input.ActorID,
			})
			if err != nil {
				return err
			}
			entries = append(entries, commissionEntry)
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return 0, nil, err
	}

	s.observe(entries)
	s.recordAudit(ctx, input.ActorID, "agents:sale", "sale", strconv.FormatInt(saleID, 10), map[string]any{
		"agent_id":   input.AgentID,
		"vehicle_id": input.VehicleID,
		"price":      input.SalePrice.String(),
		"commission": commission.String(),
	})
	return saleID, entries, nil
}

// PostPayment credits cash received from the agent.
func (s *Service) PostPayment(ctx context.Context, agentID int64, amount decimal.Decimal, note string, actorID int64) (Entry, error) {
	if !amount.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.AppendEntry(ctx, EntryInput{
			AgentID:   agentID,
			Type:      EntryPayment,
			Credit:    amount,
			RefKind:   "payment",
			Note:      note,
			CreatedBy: actorID,
		})
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.observe([]Entry{entry})
	s.recordAudit(ctx, actorID, "agents:payment", "agent_ledger_entry", strconv.FormatInt(entry.ID, 10), map[string]any{
		"agent_id": agentID,
		"amount":   amount.String(),
	})
	return entry, nil
}

// PostAdjustment posts a manual correction. A reason is mandatory.
func (s *Service) PostAdjustment(ctx context.Context, agentID int64, debit, credit decimal.Decimal, reason string, actorID int64) (Entry, error) {
	if strings.TrimSpace(reason) == "" {
		return Entry{}, errors.New("agents: adjustment reason required")
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.AppendEntry(ctx, EntryInput{
			AgentID:   agentID,
			Type:      EntryAdjustment,
			Debit:     debit,
			Credit:    credit,
			RefKind:   "adjustment",
			Note:      reason,
			CreatedBy: actorID,
		})
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.observe([]Entry{entry})
	s.recordAudit(ctx, actorID, "agents:adjustment", "agent_ledger_entry", strconv.FormatInt(entry.ID, 10), map[string]any{
		"agent_id": agentID,
		"debit":    debit.String(),
		"credit":   credit.String(),
		"reason":   reason,
	})
	return entry, nil
}

func (s *Service) observe(entries []Entry) {
	if s.metrics == nil {
		return
	}
	for _, e := range entries {
		s.metrics.ObserveLedgerPosting(string(e.Type))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
}

func validateAgent(agent Agent) error {
	if strings.TrimSpace(agent.Name) == "" {
		return errors.New("agents: name is required")
	}
	if agent.CommissionRate.IsNegative() || agent.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("agents: commission rate must be between 0 and 1")
	}
	return nil
}
