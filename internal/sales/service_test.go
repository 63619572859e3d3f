package sales

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

type fakeStore struct {
	vehicles map[int64]*SaleVehicle
	sales    map[int64]*Sale
	reversed map[string][]agents.Entry
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles: map[int64]*SaleVehicle{},
		sales:    map[int64]*Sale{},
		reversed: map[string][]agents.Entry{},
		nextID:   1,
	}
}

func (f *fakeStore) List(context.Context, ListFilter) ([]Sale, int, error) {
	var out []Sale
	for _, s := range f.sales {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	return *s, nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	vehicles := map[int64]*SaleVehicle{}
	for id, v := range f.vehicles {
		copied := *v
		vehicles[id] = &copied
	}
	sales := map[int64]*Sale{}
	for id, s := range f.sales {
		copied := *s
		sales[id] = &copied
	}
	if err := fn(ctx, f); err != nil {
		f.vehicles = vehicles
		f.sales = sales
		return err
	}
	return nil
}

func (f *fakeStore) GetVehicleForUpdate(_ context.Context, id int64) (SaleVehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return SaleVehicle{}, shared.ErrNotFound
	}
	return *v, nil
}

func (f *fakeStore) GetSaleForUpdate(_ context.Context, id int64) (Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	return *s, nil
}

func (f *fakeStore) InsertSale(_ context.Context, sale Sale) (Sale, error) {
	sale.ID = f.nextID
	sale.CreatedAt = time.Now().UTC()
	f.nextID++
	f.sales[sale.ID] = &sale
	return sale, nil
}

func (f *fakeStore) MarkVehicleSold(_ context.Context, vehicleID int64, _ time.Time) error {
	v := f.vehicles[vehicleID]
	if v.Status != "IN_STOCK" {
		return ErrVehicleNotAvailable
	}
	v.Status = "SOLD"
	return nil
}

func (f *fakeStore) RestoreVehicle(_ context.Context, vehicleID int64) error {
	v, ok := f.vehicles[vehicleID]
	if !ok || v.Status != "SOLD" {
		return ErrVehicleNotAvailable
	}
	v.Status = "IN_STOCK"
	return nil
}

func (f *fakeStore) MarkSaleVoid(_ context.Context, saleID int64, reason string, voidedAt time.Time) error {
	s := f.sales[saleID]
	if s.Status != StatusCompleted {
		return ErrAlreadyVoid
	}
	s.Status = StatusVoid
	s.VoidReason = reason
	s.VoidedAt = &voidedAt
	return nil
}

func (f *fakeStore) ReverseLedgerByRef(_ context.Context, refKind, refID, _ string, _ int64) ([]agents.Entry, error) {
	key := refKind + "/" + refID
	entries := []agents.Entry{{ID: 1, Type: agents.EntryReversal}}
	f.reversed[key] = entries
	return entries, nil
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

func seedVehicle(f *fakeStore, ownerAgentID *int64) {
	f.vehicles[100] = &SaleVehicle{ID: 100, Status: "IN_STOCK", WarehouseID: 1, OwnerAgentID: ownerAgentID}
}

func TestCreateDirectBooksSale(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.NewFromInt(2500),
		ActorID:    1,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, sale.Status)
	require.Nil(t, sale.AgentID)
	require.Equal(t, "SOLD", store.vehicles[100].Status)
}

func TestCreateDirectRejectsConsignedStock(t *testing.T) {
	store := newFakeStore()
	owner := int64(9)
	seedVehicle(store, &owner)
	svc := NewService(store, nil, nil, nil)

	_, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.NewFromInt(2500),
		ActorID:    1,
	})
	require.ErrorIs(t, err, ErrConsignedStock)
	require.Equal(t, "IN_STOCK", store.vehicles[100].Status)
	require.Empty(t, store.sales)
}

func TestCreateDirectRejectsSoldVehicle(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	store.vehicles[100].Status = "SOLD"
	svc := NewService(store, nil, nil, nil)

	_, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.NewFromInt(2500),
		ActorID:    1,
	})
	require.ErrorIs(t, err, ErrVehicleNotAvailable)
}

func TestCreateDirectRejectsNonPositivePrice(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	svc := NewService(store, nil, nil, nil)

	_, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.Zero,
		ActorID:    1,
	})
	require.ErrorIs(t, err, ErrInvalidPrice)
}

func TestVoidRestoresVehicleAndReversesLedger(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.NewFromInt(2500),
		ActorID:    1,
	})
	require.NoError(t, err)

	// A direct sale has no agent postings to reverse.
	voided, entries, err := svc.Void(context.Background(), sale.ID, "customer returned vehicle", 1)
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)
	require.Equal(t, "customer returned vehicle", voided.VoidReason)
	require.Empty(t, entries)
	require.Equal(t, "IN_STOCK", store.vehicles[100].Status)

	// An agent sale does.
	agentID := int64(9)
	store.vehicles[100].Status = "SOLD"
	agentSale, err := store.InsertSale(context.Background(), Sale{
		VehicleID:  100,
		CustomerID: 5,
		AgentID:    &agentID,
		Price:      decimal.NewFromInt(2500),
		Status:     StatusCompleted,
		SoldAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	_, entries, err = svc.Void(context.Background(), agentSale.ID, "wrong buyer", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, store.reversed, "sale/"+strconv.FormatInt(agentSale.ID, 10))
}

func TestCreateDirectRejectsRetryWithDefaultKey(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	input := DirectSaleInput{VehicleID: 100, CustomerID: 5, Price: decimal.NewFromInt(2500), ActorID: 1}
	_, err := svc.CreateDirect(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CreateDirect(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, store.sales, 1)
}

func TestCreateDirectReleasesKeyWhenTxFails(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	store.vehicles[100].Status = "SOLD"
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	_, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.NewFromInt(2500),
		ActorID:    1,
	})
	require.ErrorIs(t, err, ErrVehicleNotAvailable)
	require.Empty(t, idem.keys)
}

func TestVoidFreesDefaultKeysForCorrectedSale(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	input := DirectSaleInput{VehicleID: 100, CustomerID: 5, Price: decimal.NewFromInt(2500), ActorID: 1}
	sale, err := svc.CreateDirect(context.Background(), input)
	require.NoError(t, err)

	// Booked at the wrong price: void and rebook the same vehicle for the
	// same customer without waiting for the key sweep.
	_, _, err = svc.Void(context.Background(), sale.ID, "wrong price", 1)
	require.NoError(t, err)

	input.Price = decimal.NewFromInt(2650)
	rebooked, err := svc.CreateDirect(context.Background(), input)
	require.NoError(t, err)
	require.True(t, rebooked.Price.Equal(decimal.NewFromInt(2650)))
}

func TestVoidFreesAgentSaleKey(t *testing.T) {
	store := newFakeStore()
	agentID := int64(9)
	seedVehicle(store, &agentID)
	store.vehicles[100].Status = "SOLD"
	idem := newFakeIdem()
	svc := NewService(store, nil, idem, nil)

	key := agents.SaleIdempotencyKey(agentID, 100)
	require.NoError(t, idem.CheckAndInsert(context.Background(), key, "agent_sale"))

	sale, err := store.InsertSale(context.Background(), Sale{
		VehicleID:  100,
		CustomerID: 5,
		AgentID:    &agentID,
		Price:      decimal.NewFromInt(2500),
		Status:     StatusCompleted,
		SoldAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	_, _, err = svc.Void(context.Background(), sale.ID, "wrong price", 1)
	require.NoError(t, err)
	require.NotContains(t, idem.keys, key)
}

func TestVoidRejectsDoubleVoid(t *testing.T) {
	store := newFakeStore()
	seedVehicle(store, nil)
	svc := NewService(store, nil, nil, nil)

	sale, err := svc.CreateDirect(context.Background(), DirectSaleInput{
		VehicleID:  100,
		CustomerID: 5,
		Price:      decimal.NewFromInt(2500),
		ActorID:    1,
	})
	require.NoError(t, err)

	_, _, err = svc.Void(context.Background(), sale.ID, "first", 1)
	require.NoError(t, err)
	_, _, err = svc.Void(context.Background(), sale.ID, "second", 1)
	require.ErrorIs(t, err, ErrAlreadyVoid)
}
