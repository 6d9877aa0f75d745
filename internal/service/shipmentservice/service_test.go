package shipmentservice_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/repository/memrepo"
	"stockledger/internal/service/shipmentservice"
)

// MockInvalidator registra as invalidações do cache de grupos.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type fixture struct {
	svc   *shipmentservice.Service
	store *memrepo.Store
	view  *MockInvalidator
}

func newFixture() *fixture {
	store := memrepo.New()
	view := new(MockInvalidator)
	view.On("Invalidate", mock.Anything).Maybe()
	svc := shipmentservice.NewService(store, store.Shipments(), store.Inventory(), view, nil, logger.NewNopLogger())
	return &fixture{svc: svc, store: store, view: view}
}

func (f *fixture) seed(t *testing.T, name, serial string, qty int) domain.StockRecord {
	t.Helper()
	rec, err := f.store.Inventory().Create(context.Background(), domain.StockRecord{
		Name: name, SKU: "SKU-" + name, Family: "Edge", PartNumber: "PN-" + name,
		Serial: serial, Quantity: qty, Location: domain.LocationISV,
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	rec, err := f.store.Inventory().FindByID(context.Background(), id)
	require.NoError(t, err)
	return rec.Quantity
}

func request(lines ...domain.LineItemInput) domain.CreateShipmentRequest {
	return domain.CreateShipmentRequest{
		PONumber:  "PO-100",
		From:      domain.LocationISV,
		To:        "Austin, TX",
		LineItems: lines,
		ShipmentCosts: domain.ShipmentCosts{
			Freight: decimal.NewFromInt(50),
			Duties:  decimal.NewFromInt(5),
		},
	}
}

func line(id string, qty int, amount int64) domain.LineItemInput {
	return domain.LineItemInput{StockRecordID: id, Quantity: qty, Amount: decimal.NewFromInt(amount)}
}

func statusPtr(s domain.ShipmentStatus) *domain.ShipmentStatus { return &s }

// Cenário C: reservar 2 de 5 e cancelar devolve os 5.
func TestCreateAndCancel_RestoresStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 2, 100)))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRequested, sh.Status)
	assert.Equal(t, 3, f.quantity(t, rec.ID))
	require.Len(t, sh.LineItems, 1)
	assert.Equal(t, "Widget", sh.LineItems[0].Name)
	assert.Equal(t, "PN-Widget", sh.LineItems[0].PartNumber)

	canceled, err := f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)
	assert.Equal(t, 5, f.quantity(t, rec.ID))
	f.view.AssertNumberOfCalls(t, "Invalidate", 2)
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 2, 100)))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})
	require.NoError(t, err)

	again, err := f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, again.Status)
	assert.Equal(t, 5, f.quantity(t, rec.ID), "nunca devolve duas vezes")
}

// Cenário D: pedir 10 de 3 falha sem efeito colateral.
func TestCreate_InsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 3)

	_, err := f.svc.Create(ctx, request(line(rec.ID, 10, 100)))

	var short *apperror.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "Widget", short.Name)
	assert.Equal(t, "SKU-Widget", short.SKU)
	assert.Equal(t, 3, short.Available)
	assert.Equal(t, 10, short.Requested)
	assert.Equal(t, 3, f.quantity(t, rec.ID))

	all, err := f.svc.List(ctx, domain.ShipmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_SecondLineShortRollsBackFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.seed(t, "Widget", "", 5)
	b := f.seed(t, "Gadget", "", 1)

	_, err := f.svc.Create(ctx, request(line(a.ID, 2, 10), line(b.ID, 2, 10)))

	require.Error(t, err)
	assert.Equal(t, 5, f.quantity(t, a.ID))
	assert.Equal(t, 1, f.quantity(t, b.ID))
}

func TestCreate_StorageFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.seed(t, "Widget", "", 5)
	b := f.seed(t, "Gadget", "", 5)
	f.store.InjectFault("shipment.Create", apperror.NewDBError("timeout", stderrors.New("i/o timeout")))

	_, err := f.svc.Create(ctx, request(line(a.ID, 1, 10), line(b.ID, 4, 10)))

	assert.True(t, apperror.IsStorage(err))
	assert.Equal(t, 5, f.quantity(t, a.ID))
	assert.Equal(t, 5, f.quantity(t, b.ID))
	f.view.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	noLines := request()
	zeroQty := request(line(rec.ID, 0, 10))
	negAmount := request(line(rec.ID, 1, -1))
	badFrom := request(line(rec.ID, 1, 10))
	badFrom.From = "Dallas"

	for name, req := range map[string]domain.CreateShipmentRequest{
		"sem linhas":      noLines,
		"quantidade zero": zeroQty,
		"valor negativo":  negAmount,
		"origem inválida": badFrom,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, req)
			var valErr *apperror.ValidationError
			assert.ErrorAs(t, err, &valErr)
		})
	}
	assert.Equal(t, 5, f.quantity(t, rec.ID))
}

func TestCreate_UnknownRecord(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), request(line("missing", 1, 10)))

	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, f.quantity(t, rec.ID))
}

func TestUpdate_ReplaceLineItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.seed(t, "Widget", "", 5)
	b := f.seed(t, "Gadget", "", 5)

	sh, err := f.svc.Create(ctx, request(line(a.ID, 2, 10)))
	require.NoError(t, err)

	items := []domain.LineItemInput{line(a.ID, 1, 10), line(b.ID, 3, 30)}
	updated, err := f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{LineItems: &items})

	require.NoError(t, err)
	require.Len(t, updated.LineItems, 2)
	assert.Equal(t, 4, f.quantity(t, a.ID))
	assert.Equal(t, 2, f.quantity(t, b.ID))
	assert.True(t, decimal.NewFromInt(40).Equal(updated.TotalAmount()))
}

func TestUpdate_FailedReplacementKeepsOriginalReservation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.seed(t, "Widget", "", 5)
	b := f.seed(t, "Gadget", "", 1)

	sh, err := f.svc.Create(ctx, request(line(a.ID, 2, 10)))
	require.NoError(t, err)

	items := []domain.LineItemInput{line(b.ID, 3, 30)}
	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{LineItems: &items})

	var short *apperror.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 3, f.quantity(t, a.ID))
	assert.Equal(t, 1, f.quantity(t, b.ID))
	current, err := f.svc.Get(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, current.LineItems, 1)
	assert.Equal(t, a.ID, current.LineItems[0].StockRecordID)
}

func TestUpdate_StatusMachine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10)))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusInTransit)})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusProcessing)})
	var valErr *apperror.ValidationError
	require.ErrorAs(t, err, &valErr, "não volta para processing")

	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusDelivered)})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})
	require.ErrorAs(t, err, &valErr, "entregue é terminal")
	assert.Equal(t, 4, f.quantity(t, rec.ID))

	items := []domain.LineItemInput{line(rec.ID, 1, 10)}
	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{LineItems: &items})
	require.ErrorAs(t, err, &valErr)
}

func TestUpdate_MetadataOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 1, 100)))
	require.NoError(t, err)

	carrier := "DHL"
	fee := decimal.NewFromInt(7)
	updated, err := f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Carrier: &carrier, EndUserShippingFee: &fee})

	require.NoError(t, err)
	assert.Equal(t, "DHL", updated.Carrier)
	assert.Equal(t, 4, f.quantity(t, rec.ID))
	assert.True(t, decimal.NewFromInt(55).Equal(updated.TotalShippingCost()))
	assert.True(t, decimal.NewFromInt(162).Equal(updated.GrandTotal()))

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Freight: &negative})
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDelete_WithRestore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 2, 10)))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, sh.ID, true))

	assert.Equal(t, 5, f.quantity(t, rec.ID))
	_, err = f.svc.Get(ctx, sh.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_WithoutRestoreOrAfterProcessing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 5)

	first, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10)))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, first.ID, false))
	assert.Equal(t, 4, f.quantity(t, rec.ID))

	second, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10)))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, second.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusProcessing)})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, second.ID, true))
	assert.Equal(t, 3, f.quantity(t, rec.ID), "só envios em requested devolvem estoque")
}

func TestCancel_RecreatesPurgedRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "S1", 1)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10)))
	require.NoError(t, err)
	require.NoError(t, f.store.Inventory().Delete(ctx, rec.ID))

	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})
	require.NoError(t, err)

	restored, err := f.store.Inventory().FindOne(ctx, domain.InventoryFilter{Name: "Widget", Serial: &rec.Serial})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Quantity)
	assert.Equal(t, domain.LocationISV, restored.Location)
	assert.Equal(t, "PN-Widget", restored.PartNumber)
}

func TestCancel_SerializedUnitNeverExceedsOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "S1", 1)

	sh, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10)))
	require.NoError(t, err)
	// A unidade voltou ao estoque por fora do envio.
	_, err = f.store.Inventory().AdjustQuantity(ctx, rec.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, sh.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})

	require.NoError(t, err)
	assert.Equal(t, 1, f.quantity(t, rec.ID))
}

// Conservação: reservado por envios ativos + em estoque = quantidade inicial.
func TestConservationAcrossLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 20)

	reserved := func() int {
		all, err := f.svc.List(ctx, domain.ShipmentFilter{})
		require.NoError(t, err)
		total := 0
		for _, sh := range all {
			if sh.Status == domain.StatusCanceled {
				continue
			}
			for _, l := range sh.LineItems {
				if l.StockRecordID == rec.ID {
					total += l.Quantity
				}
			}
		}
		return total
	}
	check := func() {
		assert.Equal(t, 20, reserved()+f.quantity(t, rec.ID))
	}

	a, err := f.svc.Create(ctx, request(line(rec.ID, 3, 10)))
	require.NoError(t, err)
	check()
	b, err := f.svc.Create(ctx, request(line(rec.ID, 4, 10)))
	require.NoError(t, err)
	check()
	_, err = f.svc.Update(ctx, a.ID, domain.ShipmentPatch{Status: statusPtr(domain.StatusCanceled)})
	require.NoError(t, err)
	check()
	items := []domain.LineItemInput{line(rec.ID, 6, 10)}
	_, err = f.svc.Update(ctx, b.ID, domain.ShipmentPatch{LineItems: &items})
	require.NoError(t, err)
	check()
	require.NoError(t, f.svc.Delete(ctx, b.ID, true))
	check()
	assert.Equal(t, 20, f.quantity(t, rec.ID))
}

func TestList_Filters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := f.seed(t, "Widget", "", 10)

	first, err := f.svc.Create(ctx, request(line(rec.ID, 1, 10)))
	require.NoError(t, err)
	other := request(line(rec.ID, 1, 10))
	other.PONumber = "PO-200"
	second, err := f.svc.Create(ctx, other)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.ShipmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "mais recentes primeiro")
	assert.Equal(t, first.ID, all[1].ID)

	byPO, err := f.svc.List(ctx, domain.ShipmentFilter{PONumber: "PO-200"})
	require.NoError(t, err)
	require.Len(t, byPO, 1)

	_, err = f.svc.List(ctx, domain.ShipmentFilter{Status: "lost"})
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
