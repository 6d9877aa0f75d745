// Package memrepo é um Record Store em memória com transações, usado pelos testes
// do ledger e do motor de envios. Uma transação segura o mutex do Store do início
// ao fim e desfaz tudo por snapshot quando fn falha.
package memrepo

import (
	"context"
	"sync"
	"time"

	"stockledger/internal/domain"
)

type txKey struct{}

// Store guarda registros de estoque e envios.
type Store struct {
	mu        sync.Mutex
	records   map[string]domain.StockRecord
	shipments map[string]domain.Shipment
	order     map[string]int // ordem de inserção, para "mais recentes primeiro"
	seq       int
	faults    map[string]error
	now       func() time.Time
}

// New cria um Store vazio.
func New() *Store {
	return &Store{
		records:   map[string]domain.StockRecord{},
		shipments: map[string]domain.Shipment{},
		order:     map[string]int{},
		faults:    map[string]error{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Inventory devolve a visão domain.InventoryRepository do Store.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

// Shipments devolve a visão domain.ShipmentRepository do Store.
func (s *Store) Shipments() *ShipmentRepo { return &ShipmentRepo{s: s} }

// InjectFault faz a próxima chamada de op (ex.: "inventory.AdjustQuantity",
// "shipment.Create") falhar com err. A falha é consumida na primeira chamada.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

// WithinTx implementa domain.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx, s) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, shipments, order, seq := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(records, shipments, order, seq)
			panic(p)
		}
		if err != nil {
			s.restore(records, shipments, order, seq)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func inTx(ctx context.Context, s *Store) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock segura o mutex fora de transação; dentro dela o mutex já é nosso.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx, s) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) snapshot() (map[string]domain.StockRecord, map[string]domain.Shipment, map[string]int, int) {
	records := make(map[string]domain.StockRecord, len(s.records))
	for id, rec := range s.records {
		records[id] = rec
	}
	shipments := make(map[string]domain.Shipment, len(s.shipments))
	for id, sh := range s.shipments {
		shipments[id] = cloneShipment(sh)
	}
	order := make(map[string]int, len(s.order))
	for id, n := range s.order {
		order[id] = n
	}
	return records, shipments, order, s.seq
}

func (s *Store) restore(records map[string]domain.StockRecord, shipments map[string]domain.Shipment, order map[string]int, seq int) {
	s.records = records
	s.shipments = shipments
	s.order = order
	s.seq = seq
}

func (s *Store) nextOrder(id string) {
	s.seq++
	s.order[id] = s.seq
}

func cloneShipment(sh domain.Shipment) domain.Shipment {
	sh.LineItems = append([]domain.LineItem(nil), sh.LineItems...)
	if sh.Invoice != nil {
		n := *sh.Invoice
		sh.Invoice = &n
	}
	return sh
}
