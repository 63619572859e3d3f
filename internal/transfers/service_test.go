package transfers

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

type fakeStore struct {
	vehicles   map[int64]*LockedVehicle
	warehouses map[int64]WarehouseRef
	transfers  []Transfer
	balances   map[int64]decimal.Decimal
	entries    []agents.Entry
	nextID     int64
	failMove   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles:   map[int64]*LockedVehicle{},
		warehouses: map[int64]WarehouseRef{},
		balances:   map[int64]decimal.Decimal{},
		nextID:     1,
	}
}

func (f *fakeStore) List(context.Context, ListFilter) ([]Transfer, int, error) {
	return f.transfers, len(f.transfers), nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (Transfer, error) {
	for _, t := range f.transfers {
		if t.ID == id {
			return t, nil
		}
	}
	return Transfer{}, shared.ErrNotFound
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	vehicles := map[int64]*LockedVehicle{}
	for id, v := range f.vehicles {
		copied := *v
		vehicles[id] = &copied
	}
	balances := map[int64]decimal.Decimal{}
	for id, b := range f.balances {
		balances[id] = b
	}
	transfers := append([]Transfer(nil), f.transfers...)
	entries := append([]agents.Entry(nil), f.entries...)

	if err := fn(ctx, f); err != nil {
		f.vehicles = vehicles
		f.balances = balances
		f.transfers = transfers
		f.entries = entries
		return err
	}
	return nil
}

func (f *fakeStore) GetVehicleForUpdate(_ context.Context, id int64) (LockedVehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return LockedVehicle{}, shared.ErrNotFound
	}
	return *v, nil
}

func (f *fakeStore) GetWarehouse(_ context.Context, id int64) (WarehouseRef, error) {
	w, ok := f.warehouses[id]
	if !ok {
		return WarehouseRef{}, shared.ErrNotFound
	}
	return w, nil
}

func (f *fakeStore) InsertTransfer(_ context.Context, t Transfer) (Transfer, error) {
	t.ID = f.nextID
	t.CreatedAt = time.Now().UTC()
	f.nextID++
	f.transfers = append(f.transfers, t)
	return t, nil
}

func (f *fakeStore) MoveVehicle(_ context.Context, vehicleID, toWarehouseID int64, consignmentValue *decimal.Decimal) error {
	if f.failMove {
		return ErrVehicleNotInStock
	}
	v := f.vehicles[vehicleID]
	v.WarehouseID = toWarehouseID
	v.ConsignmentValue = consignmentValue
	return nil
}

func (f *fakeStore) AppendEntry(_ context.Context, input agents.EntryInput) (agents.Entry, error) {
	balance := f.balances[input.AgentID].Add(input.Debit).Sub(input.Credit)
	f.balances[input.AgentID] = balance
	entry := agents.Entry{
		ID:           int64(len(f.entries) + 1),
		AgentID:      input.AgentID,
		Type:         input.Type,
		Debit:        input.Debit,
		Credit:       input.Credit,
		BalanceAfter: balance,
		RefKind:      input.RefKind,
		RefID:        input.RefID,
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
	companyWH = int64(1)
	agentWH   = int64(2)
	agentID   = int64(9)
)

func seedStore() *fakeStore {
	f := newFakeStore()
	owner := agentID
	f.warehouses[companyWH] = WarehouseRef{ID: companyWH}
	f.warehouses[agentWH] = WarehouseRef{ID: agentWH, OwnerAgentID: &owner}
	f.vehicles[100] = &LockedVehicle{
		ID:           100,
		Status:       "IN_STOCK",
		WarehouseID:  companyWH,
		PurchaseCost: decimal.NewFromInt(2000),
	}
	return f
}

func TestCreateDebitsDestinationAgent(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil, nil, nil)

	transfer, entries, err := svc.Create(context.Background(), CreateInput{
		VehicleID:     100,
		ToWarehouseID: agentWH,
		ActorID:       1,
	})
	require.NoError(t, err)
	require.Equal(t, companyWH, transfer.FromWarehouseID)
	require.Equal(t, agentWH, transfer.ToWarehouseID)

	require.Len(t, entries, 1)
	require.Equal(t, agents.EntryTransferDebt, entries[0].Type)
	require.True(t, entries[0].Debit.Equal(decimal.NewFromInt(2000)))
	require.True(t, store.balances[agentID].Equal(decimal.NewFromInt(2000)))

	v := store.vehicles[100]
	require.Equal(t, agentWH, v.WarehouseID)
	require.NotNil(t, v.ConsignmentValue)
	require.True(t, v.ConsignmentValue.Equal(decimal.NewFromInt(2000)))
}

func TestCreateUsesExplicitConsignmentValue(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil, nil, nil)

	value := decimal.NewFromInt(2350)
	_, entries, err := svc.Create(context.Background(), CreateInput{
		VehicleID:        100,
		ToWarehouseID:    agentWH,
		ConsignmentValue: &value,
		ActorID:          1,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Debit.Equal(value))
}

func TestCreateCreditsSourceAgentOnReturn(t *testing.T) {
	store := seedStore()
	consigned := decimal.NewFromInt(2350)
	store.vehicles[100].WarehouseID = agentWH
	store.vehicles[100].ConsignmentValue = &consigned
	store.balances[agentID] = consigned
	svc := NewService(store, nil, nil, nil)

	_, entries, err := svc.Create(context.Background(), CreateInput{
		VehicleID:     100,
		ToWarehouseID: companyWH,
		ActorID:       1,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, agents.EntryTransferReturn, entries[0].Type)
	require.True(t, entries[0].Credit.Equal(consigned))
	require.True(t, store.balances[agentID].IsZero())
	require.Nil(t, store.vehicles[100].ConsignmentValue)
}

func TestCreateRejectsSameWarehouse(t *testing.T) {
	store := seedStore()
	svc := NewService(store, nil, nil, nil)

	_, _, err := svc.Create(context.Background(), CreateInput{
		VehicleID:     100,
		ToWarehouseID: companyWH,
		ActorID:       1,
	})
	require.ErrorIs(t, err, ErrSameWarehouse)
	require.Empty(t, store.transfers)
}

func TestCreateRejectsSoldVehicle(t *testing.T) {
	store := seedStore()
	store.vehicles[100].Status = "SOLD"
	svc := NewService(store, nil, nil, nil)

	_, _, err := svc.Create(context.Background(), CreateInput{
		VehicleID:     100,
		ToWarehouseID: agentWH,
		ActorID:       1,
	})
	require.ErrorIs(t, err, ErrVehicleNotInStock)
}

func TestCreateRejectsRetryWithDefaultKey(t *testing.T) {
	store := seedStore()
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	input := CreateInput{VehicleID: 100, ToWarehouseID: agentWH, ActorID: 1}
	_, _, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, _, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, store.transfers, 1)
}

func TestCreateAllowsRoundTripRepeat(t *testing.T) {
	store := seedStore()
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	// Out to the agent, back to the company, then out to the agent again.
	// Each leg is a distinct movement, not a retry of the first.
	_, _, err := svc.Create(context.Background(), CreateInput{VehicleID: 100, ToWarehouseID: agentWH, ActorID: 1})
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), CreateInput{VehicleID: 100, ToWarehouseID: companyWH, ActorID: 1})
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), CreateInput{VehicleID: 100, ToWarehouseID: agentWH, ActorID: 1})
	require.NoError(t, err)

	require.Len(t, store.transfers, 3)
	require.Equal(t, agentWH, store.vehicles[100].WarehouseID)
}

func TestCreateReleasesKeyWhenTxFails(t *testing.T) {
	store := seedStore()
	store.failMove = true
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	_, _, err := svc.Create(context.Background(), CreateInput{VehicleID: 100, ToWarehouseID: agentWH, ActorID: 1})
	require.ErrorIs(t, err, ErrVehicleNotInStock)
	require.Empty(t, idem.keys)
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	store := seedStore()
	store.failMove = true
	svc := NewService(store, nil, nil, nil)

	_, _, err := svc.Create(context.Background(), CreateInput{
		VehicleID:     100,
		ToWarehouseID: agentWH,
		ActorID:       1,
	})
	require.ErrorIs(t, err, ErrVehicleNotInStock)
	require.Empty(t, store.transfers)
	require.True(t, store.balances[agentID].IsZero())
}
