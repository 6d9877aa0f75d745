package memrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	"stockledger/internal/errors"
)

// InventoryRepo implementa domain.InventoryRepository sobre o Store.
type InventoryRepo struct {
	s *Store
}

func matches(rec domain.StockRecord, f domain.InventoryFilter) bool {
	if f.Name != "" && rec.Name != f.Name {
		return false
	}
	if f.SKU != "" && rec.SKU != f.SKU {
		return false
	}
	if f.PartNumber != "" && rec.PartNumber != f.PartNumber {
		return false
	}
	if f.Location != "" && rec.Location != f.Location {
		return false
	}
	if f.Serial != nil && rec.Serial != *f.Serial {
		return false
	}
	if len(f.Serials) > 0 {
		found := false
		for _, serial := range f.Serials {
			if rec.Serial == serial {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ExcludeID != "" && rec.ID == f.ExcludeID {
		return false
	}
	return true
}

// checkUnique reproduz o índice único (name, sku, part_number, serial, location).
func (r *InventoryRepo) checkUnique(rec domain.StockRecord) error {
	for id, other := range r.s.records {
		if id == rec.ID {
			continue
		}
		if other.Identity() == rec.Identity() && other.Serial == rec.Serial {
			return errors.NewConflictError("já existe um registro com este nome, SKU, part number, serial e local")
		}
	}
	return nil
}

func (r *InventoryRepo) Create(ctx context.Context, rec domain.StockRecord) (domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.Create"); err != nil {
		return domain.StockRecord{}, err
	}

	rec.ID = uuid.NewString()
	if err := r.checkUnique(rec); err != nil {
		return domain.StockRecord{}, err
	}
	if rec.Quantity < 0 {
		return domain.StockRecord{}, errors.NewValidationError("quantidade negativa")
	}
	rec.CreatedAt = r.s.now()
	rec.UpdatedAt = rec.CreatedAt
	r.s.records[rec.ID] = rec
	r.s.nextOrder(rec.ID)
	return rec, nil
}

func (r *InventoryRepo) AddToPool(ctx context.Context, rec domain.StockRecord) (domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.AddToPool"); err != nil {
		return domain.StockRecord{}, err
	}
	if rec.Quantity < 0 {
		return domain.StockRecord{}, errors.NewValidationError("quantidade negativa")
	}

	rec.Serial = ""
	for id, pool := range r.s.records {
		if pool.Serial == "" && pool.Identity() == rec.Identity() {
			pool.Quantity += rec.Quantity
			pool.UpdatedAt = r.s.now()
			r.s.records[id] = pool
			return pool, nil
		}
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = r.s.now()
	rec.UpdatedAt = rec.CreatedAt
	r.s.records[rec.ID] = rec
	r.s.nextOrder(rec.ID)
	return rec, nil
}

func (r *InventoryRepo) FindByID(ctx context.Context, id string) (domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.FindByID"); err != nil {
		return domain.StockRecord{}, err
	}
	rec, ok := r.s.records[id]
	if !ok {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}
	return rec, nil
}

func (r *InventoryRepo) FindOne(ctx context.Context, filter domain.InventoryFilter) (domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.FindOne"); err != nil {
		return domain.StockRecord{}, err
	}
	found := r.sorted(filter, true)
	if len(found) == 0 {
		return domain.StockRecord{}, errors.NewNotFoundError("Nenhum registro de estoque corresponde ao filtro.")
	}
	return found[0], nil
}

func (r *InventoryRepo) List(ctx context.Context, filter domain.InventoryFilter) ([]domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.List"); err != nil {
		return nil, err
	}
	return r.sorted(filter, false), nil
}

func (r *InventoryRepo) sorted(filter domain.InventoryFilter, oldestFirst bool) []domain.StockRecord {
	out := []domain.StockRecord{}
	for _, rec := range r.s.records {
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if oldestFirst {
			return r.s.order[out[i].ID] < r.s.order[out[j].ID]
		}
		return r.s.order[out[i].ID] > r.s.order[out[j].ID]
	})
	return out
}

func (r *InventoryRepo) Update(ctx context.Context, rec domain.StockRecord) (domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.Update"); err != nil {
		return domain.StockRecord{}, err
	}
	current, ok := r.s.records[rec.ID]
	if !ok {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", rec.ID))
	}
	if err := r.checkUnique(rec); err != nil {
		return domain.StockRecord{}, err
	}
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = r.s.now()
	r.s.records[rec.ID] = rec
	return rec, nil
}

func (r *InventoryRepo) AdjustQuantity(ctx context.Context, id string, delta int) (domain.StockRecord, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.AdjustQuantity"); err != nil {
		return domain.StockRecord{}, err
	}
	rec, ok := r.s.records[id]
	if !ok {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}
	if rec.Quantity+delta < 0 {
		return domain.StockRecord{}, errors.NewInsufficientStockError(rec.Name, rec.SKU, rec.Quantity, -delta)
	}
	rec.Quantity += delta
	rec.UpdatedAt = r.s.now()
	r.s.records[id] = rec
	return rec, nil
}

func (r *InventoryRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.records[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}
	delete(r.s.records, id)
	delete(r.s.order, id)
	return nil
}

func (r *InventoryRepo) DeleteGroup(ctx context.Context, key domain.GroupKey) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.DeleteGroup"); err != nil {
		return 0, err
	}
	return r.deleteWhere(func(rec domain.StockRecord) bool { return rec.Group() == key }), nil
}

func (r *InventoryRepo) DeleteEmpty(ctx context.Context, key domain.GroupKey) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("inventory.DeleteEmpty"); err != nil {
		return 0, err
	}
	return r.deleteWhere(func(rec domain.StockRecord) bool { return rec.Group() == key && rec.Quantity == 0 }), nil
}

func (r *InventoryRepo) deleteWhere(pred func(domain.StockRecord) bool) int64 {
	var n int64
	for id, rec := range r.s.records {
		if pred(rec) {
			delete(r.s.records, id)
			delete(r.s.order, id)
			n++
		}
	}
	return n
}
