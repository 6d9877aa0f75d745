package inventoryservice_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/repository/memrepo"
	"stockledger/internal/service/inventoryservice"
)

func newLedger() (*inventoryservice.Service, *memrepo.Store) {
	store := memrepo.New()
	svc := inventoryservice.NewService(store, store.Inventory(), store.Shipments(), nil, nil, logger.NewNopLogger())
	return svc, store
}

func widget(quantity int, serials ...string) domain.CreateInventoryRequest {
	return domain.CreateInventoryRequest{
		Name:       "Widget",
		SKU:        "SKU1",
		Family:     "Edge",
		PartNumber: "PN1",
		Location:   domain.LocationISV,
		Quantity:   quantity,
		Serials:    serials,
	}
}

func intPtr(n int) *int { return &n }

func listAll(t *testing.T, store *memrepo.Store) []domain.StockRecord {
	t.Helper()
	records, err := store.Inventory().List(context.Background(), domain.InventoryFilter{})
	require.NoError(t, err)
	return records
}

func findBySerial(t *testing.T, store *memrepo.Store, serial string) (domain.StockRecord, bool) {
	t.Helper()
	for _, rec := range listAll(t, store) {
		if rec.Serial == serial {
			return rec, true
		}
	}
	return domain.StockRecord{}, false
}

// Cenário A: seriais viram um registro cada; repetir um serial é conflito.
func TestCreate_SerializedThenDuplicateSerial(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	created, err := svc.Create(ctx, widget(3, "S1", "S2", "S3"))
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, rec := range created {
		assert.Equal(t, 1, rec.Quantity)
		assert.NotEmpty(t, rec.Serial)
	}

	_, err = svc.Create(ctx, widget(1, "S2"))

	var conflict *apperror.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"S2"}, conflict.Serials)
	assert.Len(t, listAll(t, store), 3)
}

func TestCreate_SerialValidation(t *testing.T) {
	svc, _ := newLedger()
	ctx := context.Background()

	cases := map[string]domain.CreateInventoryRequest{
		"quantidade diferente dos seriais": widget(2, "S1"),
		"serial duplicado":                 widget(2, "S1", "S1"),
		"serial vazio":                     widget(2, "S1", " "),
		"local inválido": func() domain.CreateInventoryRequest {
			r := widget(1, "S1")
			r.Location = "Dallas"
			return r
		}(),
		"family vazia": func() domain.CreateInventoryRequest {
			r := widget(1)
			r.Family = ""
			return r
		}(),
		"quantidade negativa": widget(-1),
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, req)
			var valErr *apperror.ValidationError
			assert.ErrorAs(t, err, &valErr)
		})
	}
}

func TestCreate_SerialAlreadyShipped(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	shipment, err := store.Shipments().Create(ctx, domain.Shipment{
		PONumber: "PO-1",
		From:     domain.LocationHouston,
		To:       "Austin",
		Status:   domain.StatusInTransit,
		LineItems: []domain.LineItem{
			{StockRecordID: "gone", Name: "Widget", SKU: "SKU1", PartNumber: "PN1", Serial: "S9", Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, widget(1, "S9"))
	var conflict *apperror.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Msg, "enviados")
	assert.Equal(t, []string{"S9"}, conflict.Serials)

	// Entregue não retém mais o serial.
	shipment.Status = domain.StatusDelivered
	_, err = store.Shipments().Update(ctx, shipment)
	require.NoError(t, err)

	created, err := svc.Create(ctx, widget(1, "S9"))
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

// Cenário B: criar sem serial soma no pool existente.
func TestCreate_NoSerialMergesIntoPool(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(5))
	require.NoError(t, err)
	records, err := svc.Create(ctx, widget(2))
	require.NoError(t, err)

	all := listAll(t, store)
	require.Len(t, all, 1)
	assert.Equal(t, 7, all[0].Quantity)
	assert.Equal(t, all[0].ID, records[0].ID)
}

func TestCreate_PoolPerLocation(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(5))
	require.NoError(t, err)
	houston := widget(1)
	houston.Location = domain.LocationHouston
	_, err = svc.Create(ctx, houston)
	require.NoError(t, err)

	assert.Len(t, listAll(t, store), 2)
}

func TestUpdate_InPlace(t *testing.T) {
	svc, _ := newLedger()
	ctx := context.Background()

	created, err := svc.Create(ctx, widget(4))
	require.NoError(t, err)

	out, err := svc.Update(ctx, created[0].ID, domain.UpdateInventoryRequest{
		Name: "Widget", SKU: "SKU1", Family: "Edge Server", PartNumber: "PN1",
		Quantity: intPtr(9), Location: domain.LocationISV,
	})

	require.NoError(t, err)
	assert.False(t, out.Merged)
	assert.Equal(t, 9, out.Record.Quantity)
	assert.Equal(t, "Edge Server", out.Record.Family)
}

func TestUpdate_SerialRequiresQuantityOne(t *testing.T) {
	svc, _ := newLedger()
	ctx := context.Background()

	created, err := svc.Create(ctx, widget(1, "S1"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created[0].ID, domain.UpdateInventoryRequest{
		Name: "Widget", SKU: "SKU1", Family: "Edge", PartNumber: "PN1",
		Serial: "S1", Quantity: intPtr(2), Location: domain.LocationISV,
	})

	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestUpdate_SerialChangeConflicts(t *testing.T) {
	svc, _ := newLedger()
	ctx := context.Background()

	created, err := svc.Create(ctx, widget(2, "S1", "S2"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created[0].ID, domain.UpdateInventoryRequest{
		Name: "Widget", SKU: "SKU1", Family: "Edge", PartNumber: "PN1",
		Serial: created[1].Serial, Quantity: intPtr(1), Location: domain.LocationISV,
	})

	var conflict *apperror.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{created[1].Serial}, conflict.Serials)
}

func TestUpdate_ClearingSerialMergesIntoPool(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(3))
	require.NoError(t, err)
	serialized, err := svc.Create(ctx, widget(1, "S1"))
	require.NoError(t, err)

	out, err := svc.Update(ctx, serialized[0].ID, domain.UpdateInventoryRequest{
		Name: "Widget", SKU: "SKU1", Family: "Edge", PartNumber: "PN1",
		Serial: "", Quantity: intPtr(1), Location: domain.LocationISV,
	})

	require.NoError(t, err)
	assert.True(t, out.Merged)
	assert.Equal(t, 4, out.Record.Quantity)
	all := listAll(t, store)
	require.Len(t, all, 1)
	assert.Equal(t, out.MergedInto, all[0].ID)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newLedger()

	_, err := svc.Update(context.Background(), "nope", domain.UpdateInventoryRequest{
		Name: "Widget", SKU: "SKU1", Family: "Edge", PartNumber: "PN1",
		Quantity: intPtr(1), Location: domain.LocationISV,
	})

	assert.True(t, apperror.IsNotFound(err))
}

// Cenário E: o último item do pool vira placeholder; o último serial do grupo sai da tabela.
func TestDelete_PoolAndLastSerial(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	pool, err := svc.Create(ctx, widget(1))
	require.NoError(t, err)

	out, err := svc.Delete(ctx, pool[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionZeroed, out.Action)
	assert.False(t, out.Deleted)
	all := listAll(t, store)
	require.Len(t, all, 1)
	assert.Equal(t, 0, all[0].Quantity)

	other := widget(1, "X1")
	other.Name = "Gadget"
	serial, err := svc.Create(ctx, other)
	require.NoError(t, err)

	out, err = svc.Delete(ctx, serial[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionRemoved, out.Action)
	assert.True(t, out.Deleted)
	_, found := findBySerial(t, store, "X1")
	assert.False(t, found)
}

func TestDelete_PoolDecrementsAndEmptyPoolIsRemoved(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	pool, err := svc.Create(ctx, widget(2))
	require.NoError(t, err)

	out, err := svc.Delete(ctx, pool[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionDecremented, out.Action)
	require.NotNil(t, out.Record)
	assert.Equal(t, 1, out.Record.Quantity)

	_, err = svc.Delete(ctx, pool[0].ID)
	require.NoError(t, err)

	out, err = svc.Delete(ctx, pool[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionRemoved, out.Action)
	assert.Empty(t, listAll(t, store))
}

func TestDelete_SerialRetiresIntoPool(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(2))
	require.NoError(t, err)
	_, err = svc.Create(ctx, widget(2, "S1", "S2"))
	require.NoError(t, err)
	s1, _ := findBySerial(t, store, "S1")

	out, err := svc.Delete(ctx, s1.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionMerged, out.Action)
	require.NotNil(t, out.Record)
	assert.Equal(t, 3, out.Record.Quantity)
	_, found := findBySerial(t, store, "S1")
	assert.False(t, found)
	assert.Len(t, listAll(t, store), 2)
}

func TestDelete_SerialRetirementPurgesEmptyRows(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	pool, err := svc.Create(ctx, widget(1))
	require.NoError(t, err)
	_, err = svc.Delete(ctx, pool[0].ID) // pool vira placeholder 0
	require.NoError(t, err)
	_, err = svc.Create(ctx, widget(1, "S1"))
	require.NoError(t, err)
	s1, _ := findBySerial(t, store, "S1")

	out, err := svc.Delete(ctx, s1.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionMerged, out.Action)
	assert.Equal(t, int64(0), out.Purged)
	all := listAll(t, store)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Quantity)
}

func TestDelete_SerialWithoutPoolIsRemoved(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(2, "S1", "S2"))
	require.NoError(t, err)
	s1, _ := findBySerial(t, store, "S1")

	out, err := svc.Delete(ctx, s1.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.DeleteActionRemoved, out.Action)
	assert.Len(t, listAll(t, store), 1)
}

func TestDelete_SerialRetirementIsAtomic(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(2))
	require.NoError(t, err)
	_, err = svc.Create(ctx, widget(1, "S1"))
	require.NoError(t, err)
	s1, _ := findBySerial(t, store, "S1")

	boom := apperror.NewDBError("conexão perdida", stderrors.New("reset"))
	store.InjectFault("inventory.DeleteEmpty", boom)

	_, err = svc.Delete(ctx, s1.ID)

	require.Error(t, err)
	assert.True(t, apperror.IsStorage(err))
	_, found := findBySerial(t, store, "S1")
	assert.True(t, found, "o serial deve voltar com o rollback")
	for _, rec := range listAll(t, store) {
		if rec.Serial == "" {
			assert.Equal(t, 2, rec.Quantity)
		}
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, _ := newLedger()

	_, err := svc.Delete(context.Background(), "nope")

	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteGroup(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(3))
	require.NoError(t, err)
	_, err = svc.Create(ctx, widget(2, "S1", "S2"))
	require.NoError(t, err)
	houston := widget(1)
	houston.Location = domain.LocationHouston
	_, err = svc.Create(ctx, houston)
	require.NoError(t, err)

	n, err := svc.DeleteGroup(ctx, domain.GroupKey{Name: "Widget", SKU: "SKU1", Location: domain.LocationISV})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Len(t, listAll(t, store), 1)
}

func TestPoolUniquenessInvariant(t *testing.T) {
	svc, store := newLedger()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, widget(i))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, widget(2, "S1", "S2"))
	require.NoError(t, err)

	pools := 0
	for _, rec := range listAll(t, store) {
		if rec.Serial == "" {
			pools++
			assert.Equal(t, 10, rec.Quantity)
		} else {
			assert.Equal(t, 1, rec.Quantity)
		}
	}
	assert.Equal(t, 1, pools)
}

func TestList_FiltersByLocation(t *testing.T) {
	svc, _ := newLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, widget(3))
	require.NoError(t, err)
	houston := widget(1)
	houston.Location = domain.LocationHouston
	_, err = svc.Create(ctx, houston)
	require.NoError(t, err)

	records, err := svc.List(ctx, domain.LocationHouston)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.LocationHouston, records[0].Location)

	_, err = svc.List(ctx, "Dallas")
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
