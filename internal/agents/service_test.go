package agents

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

type fakeRepo struct {
	agents   map[int64]*Agent
	vehicles map[int64]*ConsignedVehicle
	sales    []SaleRecord
	entries  []Entry
	nextSale int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agents:   map[int64]*Agent{},
		vehicles: map[int64]*ConsignedVehicle{},
		nextSale: 1,
	}
}

func (f *fakeRepo) List(context.Context, ListFilter) ([]Agent, int, error) {
	var out []Agent
	for _, a := range f.agents {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Agent, error) {
	a, ok := f.agents[id]
	if !ok {
		return Agent{}, shared.ErrNotFound
	}
	return *a, nil
}

func (f *fakeRepo) Create(_ context.Context, agent Agent) (Agent, error) {
	agent.ID = int64(len(f.agents) + 1)
	agent.IsActive = true
	f.agents[agent.ID] = &agent
	return agent, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, agent Agent) error {
	existing, ok := f.agents[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = agent.Name
	existing.Phone = agent.Phone
	existing.CommissionRate = agent.CommissionRate
	existing.IsActive = agent.IsActive
	return nil
}

func (f *fakeRepo) Statement(_ context.Context, filter StatementFilter) ([]Entry, int, error) {
	var out []Entry
	for _, e := range f.entries {
		if e.AgentID == filter.AgentID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	agentsCopy := map[int64]*Agent{}
	for id, a := range f.agents {
		copied := *a
		agentsCopy[id] = &copied
	}
	vehiclesCopy := map[int64]*ConsignedVehicle{}
	for id, v := range f.vehicles {
		copied := *v
		vehiclesCopy[id] = &copied
	}
	sales := append([]SaleRecord(nil), f.sales...)
	entries := append([]Entry(nil), f.entries...)
	nextSale := f.nextSale

	if err := fn(ctx, f); err != nil {
		f.agents = agentsCopy
		f.vehicles = vehiclesCopy
		f.sales = sales
		f.entries = entries
		f.nextSale = nextSale
		return err
	}
	return nil
}

func (f *fakeRepo) GetConsignedVehicleForUpdate(_ context.Context, vehicleID int64) (ConsignedVehicle, error) {
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return ConsignedVehicle{}, shared.ErrNotFound
	}
	return *v, nil
}

func (f *fakeRepo) MarkVehicleSold(_ context.Context, vehicleID int64, _ time.Time) error {
	v := f.vehicles[vehicleID]
	if v.Status != "IN_STOCK" {
		return ErrVehicleNotConsigned
	}
	v.Status = "SOLD"
	return nil
}

func (f *fakeRepo) InsertSale(_ context.Context, sale SaleRecord) (int64, error) {
	id := f.nextSale
	f.nextSale++
	f.sales = append(f.sales, sale)
	return id, nil
}

func (f *fakeRepo) AppendEntry(_ context.Context, input EntryInput) (Entry, error) {
	agent, ok := f.agents[input.AgentID]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	if input.Debit.IsNegative() || input.Credit.IsNegative() {
		return Entry{}, ErrInvalidAmount
	}
	if input.Debit.IsPositive() == input.Credit.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}
	agent.Balance = agent.Balance.Add(input.Debit).Sub(input.Credit)
	entry := Entry{
		ID:           int64(len(f.entries) + 1),
		AgentID:      input.AgentID,
		Type:         input.Type,
		Debit:        input.Debit,
		Credit:       input.Credit,
		BalanceAfter: agent.Balance,
		RefKind:      input.RefKind,
		RefID:        input.RefID,
		Note:         input.Note,
	}
	f.entries = append(f.entries, entry)
	return entry, nil
}

type fakeIdem struct {
	keys map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{keys: map[string]string{}}
}

func (f *fakeIdem) CheckAndInsert(_ context.Context, key, scope string) error {
	if _, ok := f.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = scope
	return nil
}

func (f *fakeIdem) Delete(_ context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

const (
	testAgentID   = int64(1)
	testVehicleID = int64(100)
)

func seedRepo(t *testing.T) *fakeRepo {
	t.Helper()
	repo := newFakeRepo()
	_, err := repo.Create(context.Background(), Agent{
		Name:           "Field Agent",
		CommissionRate: decimal.NewFromFloat(0.05),
	})
	require.NoError(t, err)

	owner := testAgentID
	consigned := decimal.NewFromInt(2350)
	repo.vehicles[testVehicleID] = &ConsignedVehicle{
		ID:               testVehicleID,
		Status:           "IN_STOCK",
		WarehouseID:      2,
		OwnerAgentID:     &owner,
		PurchaseCost:     decimal.NewFromInt(2000),
		ConsignmentValue: &consigned,
	}
	// Carry the debt the transfer would have posted.
	repo.agents[testAgentID].Balance = consigned
	return repo
}

func saleInput() AgentSaleInput {
	return AgentSaleInput{
		AgentID:    testAgentID,
		VehicleID:  testVehicleID,
		CustomerID: 5,
		SalePrice:  decimal.NewFromInt(2600),
		ActorID:    7,
	}
}

func TestCreateAgentSalePostsSettlementAndCommission(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	saleID, entries, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.NoError(t, err)
	require.Equal(t, int64(1), saleID)
	require.Len(t, entries, 2)

	require.Equal(t, EntrySaleSettlement, entries[0].Type)
	require.True(t, entries[0].Credit.Equal(decimal.NewFromInt(2350)))

	require.Equal(t, EntryCommission, entries[1].Type)
	require.True(t, entries[1].Credit.Equal(decimal.NewFromInt(130)), "5%% of 2600, got %s", entries[1].Credit)

	// 2350 debt - 2350 settlement - 130 commission.
	require.True(t, repo.agents[testAgentID].Balance.Equal(decimal.NewFromInt(-130)))
	require.Equal(t, "SOLD", repo.vehicles[testVehicleID].Status)
	require.Len(t, repo.sales, 1)
}

func TestCreateAgentSaleHonorsCommissionOverride(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	override := decimal.NewFromInt(200)
	input := saleInput()
	input.CommissionOverride = &override

	_, entries, err := svc.CreateAgentSale(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[1].Credit.Equal(override))
}

func TestCreateAgentSaleSkipsZeroCommission(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	override := decimal.Zero
	input := saleInput()
	input.CommissionOverride = &override

	_, entries, err := svc.CreateAgentSale(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, EntrySaleSettlement, entries[0].Type)
}

func TestCreateAgentSaleSettlesAtPurchaseCostWithoutConsignmentValue(t *testing.T) {
	repo := seedRepo(t)
	repo.vehicles[testVehicleID].ConsignmentValue = nil
	svc := NewService(repo, nil, nil, nil)

	_, entries, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.NoError(t, err)
	require.True(t, entries[0].Credit.Equal(decimal.NewFromInt(2000)))
}

func TestCreateAgentSaleRejectsForeignConsignment(t *testing.T) {
	repo := seedRepo(t)
	other := int64(99)
	repo.vehicles[testVehicleID].OwnerAgentID = &other
	svc := NewService(repo, nil, nil, nil)

	_, _, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.ErrorIs(t, err, ErrVehicleNotConsigned)
	require.Empty(t, repo.sales)
	require.True(t, repo.agents[testAgentID].Balance.Equal(decimal.NewFromInt(2350)))
}

func TestCreateAgentSaleRejectsSoldVehicle(t *testing.T) {
	repo := seedRepo(t)
	repo.vehicles[testVehicleID].Status = "SOLD"
	svc := NewService(repo, nil, nil, nil)

	_, _, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.ErrorIs(t, err, ErrVehicleNotConsigned)
}

func TestCreateAgentSaleRejectsInactiveAgent(t *testing.T) {
	repo := seedRepo(t)
	repo.agents[testAgentID].IsActive = false
	svc := NewService(repo, nil, nil, nil)

	_, _, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.ErrorIs(t, err, ErrAgentInactive)
}

func TestCreateAgentSaleRejectsNonPositivePrice(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	input := saleInput()
	input.SalePrice = decimal.Zero
	_, _, err := svc.CreateAgentSale(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateAgentSaleRejectsRetryWithDefaultKey(t *testing.T) {
	repo := seedRepo(t)
	idem := newFakeIdem()
	svc := NewService(repo, nil, idem, nil)

	_, _, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.NoError(t, err)

	_, _, err = svc.CreateAgentSale(context.Background(), saleInput())
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, repo.sales, 1)
}

func TestCreateAgentSaleReleasesKeyWhenTxFails(t *testing.T) {
	repo := seedRepo(t)
	repo.vehicles[testVehicleID].Status = "SOLD"
	idem := newFakeIdem()
	svc := NewService(repo, nil, idem, nil)

	_, _, err := svc.CreateAgentSale(context.Background(), saleInput())
	require.ErrorIs(t, err, ErrVehicleNotConsigned)
	require.Empty(t, idem.keys)
}

func TestPostPaymentCreditsBalance(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	entry, err := svc.PostPayment(context.Background(), testAgentID, decimal.NewFromInt(1000), "weekly remittance", 7)
	require.NoError(t, err)
	require.Equal(t, EntryPayment, entry.Type)
	require.True(t, repo.agents[testAgentID].Balance.Equal(decimal.NewFromInt(1350)))
}

func TestPostPaymentRejectsNonPositiveAmount(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.PostPayment(context.Background(), testAgentID, decimal.Zero, "", 7)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPostAdjustmentRequiresReason(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.PostAdjustment(context.Background(), testAgentID, decimal.NewFromInt(50), decimal.Zero, "  ", 7)
	require.Error(t, err)

	entry, err := svc.PostAdjustment(context.Background(), testAgentID, decimal.NewFromInt(50), decimal.Zero, "stocktake shortfall", 7)
	require.NoError(t, err)
	require.Equal(t, EntryAdjustment, entry.Type)
	require.True(t, repo.agents[testAgentID].Balance.Equal(decimal.NewFromInt(2400)))
}

func TestCreateValidatesCommissionRate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), Agent{Name: "A", CommissionRate: decimal.NewFromInt(2)})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Agent{Name: "", CommissionRate: decimal.Zero})
	require.Error(t, err)
}
