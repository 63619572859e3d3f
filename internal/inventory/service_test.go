package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

type fakeRepo struct {
	nextID   int64
	vehicles map[int64]Vehicle

	// sellOnRead marks the stored vehicle SOLD after serving a read,
	// mimicking a sale committing between a status check and an update.
	sellOnRead bool
	referenced map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, vehicles: map[int64]Vehicle{}, referenced: map[int64]bool{}}
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Vehicle, int, error) {
	var out []Vehicle
	for _, v := range f.vehicles {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.WarehouseID > 0 && v.WarehouseID != filter.WarehouseID {
			continue
		}
		out = append(out, v)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return Vehicle{}, shared.ErrNotFound
	}
	if f.sellOnRead {
		sold := v
		sold.Status = StatusSold
		f.vehicles[id] = sold
	}
	return v, nil
}

func (f *fakeRepo) GetByEngineNumber(_ context.Context, engine string) (Vehicle, error) {
	for _, v := range f.vehicles {
		if v.EngineNumber == engine {
			return v, nil
		}
	}
	return Vehicle{}, shared.ErrNotFound
}

func (f *fakeRepo) GetByChassisNumber(_ context.Context, chassis string) (Vehicle, error) {
	for _, v := range f.vehicles {
		if v.ChassisNumber == chassis {
			return v, nil
		}
	}
	return Vehicle{}, shared.ErrNotFound
}

func (f *fakeRepo) Create(_ context.Context, v Vehicle) (Vehicle, error) {
	for _, existing := range f.vehicles {
		if existing.EngineNumber == v.EngineNumber || existing.ChassisNumber == v.ChassisNumber {
			return Vehicle{}, ErrDuplicateIdentity
		}
	}
	v.ID = f.nextID
	v.Status = StatusInStock
	f.nextID++
	f.vehicles[v.ID] = v
	return v, nil
}

func (f *fakeRepo) UpdateDetails(_ context.Context, id int64, input UpdateInput) error {
	v, ok := f.vehicles[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v.Status == StatusSold && (input.Color != nil || input.Supplier != nil || input.Cost != nil) {
		return ErrVehicleSold
	}
	if input.Color != nil {
		v.Color = *input.Color
	}
	if input.Supplier != nil {
		v.Supplier = *input.Supplier
	}
	if input.Notes != nil {
		v.Notes = *input.Notes
	}
	if input.Cost != nil {
		v.PurchaseCost = *input.Cost
	}
	f.vehicles[id] = v
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.vehicles[id]; !ok {
		return shared.ErrNotFound
	}
	if f.referenced[id] {
		return ErrVehicleReferenced
	}
	delete(f.vehicles, id)
	return nil
}

func registerInput() RegisterInput {
	return RegisterInput{
		ModelID:       1,
		EngineNumber:  "eng-123456",
		ChassisNumber: "chs-123456",
		Color:         "Red",
		PurchaseCost:  decimal.NewFromInt(1500),
		WarehouseID:   2,
		ActorID:       7,
	}
}

func TestRegisterNormalizesIdentity(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	input := registerInput()
	input.EngineNumber = " eng 123456 "
	v, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "ENG123456", v.EngineNumber)
	require.Equal(t, "CHS-123456", v.ChassisNumber)
	require.Equal(t, StatusInStock, v.Status)
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	dup := registerInput()
	dup.ChassisNumber = "CHS-999999"
	_, err = svc.Register(context.Background(), dup)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegisterRejectsMalformedSerials(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	input := registerInput()
	input.EngineNumber = "abc"
	_, err := svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidIdentity)

	input = registerInput()
	input.ChassisNumber = input.EngineNumber
	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestLookupFindsByEitherSerial(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	byEngine, err := svc.Lookup(context.Background(), "eng-123456")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEngine.ID)

	byChassis, err := svc.Lookup(context.Background(), "chs-123456")
	require.NoError(t, err)
	require.Equal(t, created.ID, byChassis.ID)

	_, err = svc.Lookup(context.Background(), "UNKNOWN-1")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateGuardsSoldVehicles(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	sold := repo.vehicles[created.ID]
	sold.Status = StatusSold
	repo.vehicles[created.ID] = sold

	color := "Blue"
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Color: &color})
	require.ErrorIs(t, err, ErrVehicleSold)

	notes := "delivered with scratches"
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, notes, updated.Notes)
}

func TestUpdateRejectsEditRacingASale(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	// The sale commits after the status check but before the update lands.
	repo.sellOnRead = true
	color := "Blue"
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{Color: &color})
	require.ErrorIs(t, err, ErrVehicleSold)
	require.Equal(t, "Red", repo.vehicles[created.ID].Color)
}

func TestDeleteRejectsReferencedVehicle(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	repo.referenced[created.ID] = true

	err = svc.Delete(context.Background(), created.ID, 7)
	require.ErrorIs(t, err, ErrVehicleReferenced)
	require.NotErrorIs(t, err, ErrVehicleSold)
	require.Contains(t, repo.vehicles, created.ID)
}

func TestDeleteRejectsSoldVehicles(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	created, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	sold := repo.vehicles[created.ID]
	sold.Status = StatusSold
	repo.vehicles[created.ID] = sold

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID, 7), ErrVehicleSold)

	sold.Status = StatusInStock
	repo.vehicles[created.ID] = sold
	require.NoError(t, svc.Delete(context.Background(), created.ID, 7))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
