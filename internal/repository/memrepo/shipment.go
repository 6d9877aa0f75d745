package memrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	"stockledger/internal/errors"
)

// ShipmentRepo implementa domain.ShipmentRepository sobre o Store.
type ShipmentRepo struct {
	s *Store
}

func (r *ShipmentRepo) Create(ctx context.Context, sh domain.Shipment) (domain.Shipment, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("shipment.Create"); err != nil {
		return domain.Shipment{}, err
	}
	sh = cloneShipment(sh)
	sh.ID = uuid.NewString()
	sh.CreatedAt = r.s.now()
	sh.UpdatedAt = sh.CreatedAt
	r.s.shipments[sh.ID] = sh
	r.s.nextOrder(sh.ID)
	return cloneShipment(sh), nil
}

func (r *ShipmentRepo) FindByID(ctx context.Context, id string) (domain.Shipment, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("shipment.FindByID"); err != nil {
		return domain.Shipment{}, err
	}
	sh, ok := r.s.shipments[id]
	if !ok {
		return domain.Shipment{}, errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", id))
	}
	return cloneShipment(sh), nil
}

func (r *ShipmentRepo) List(ctx context.Context, f domain.ShipmentFilter) ([]domain.Shipment, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("shipment.List"); err != nil {
		return nil, err
	}
	out := []domain.Shipment{}
	for _, sh := range r.s.shipments {
		if f.PONumber != "" && sh.PONumber != f.PONumber {
			continue
		}
		if f.Status != "" && sh.Status != f.Status {
			continue
		}
		if f.From != "" && sh.From != f.From {
			continue
		}
		if f.To != "" && sh.To != f.To {
			continue
		}
		out = append(out, cloneShipment(sh))
	}
	sort.Slice(out, func(i, j int) bool { return r.s.order[out[i].ID] > r.s.order[out[j].ID] })
	return out, nil
}

func (r *ShipmentRepo) Update(ctx context.Context, sh domain.Shipment) (domain.Shipment, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("shipment.Update"); err != nil {
		return domain.Shipment{}, err
	}
	current, ok := r.s.shipments[sh.ID]
	if !ok {
		return domain.Shipment{}, errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", sh.ID))
	}
	sh = cloneShipment(sh)
	sh.CreatedAt = current.CreatedAt
	sh.UpdatedAt = r.s.now()
	r.s.shipments[sh.ID] = sh
	return cloneShipment(sh), nil
}

func (r *ShipmentRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("shipment.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.shipments[id]; !ok {
		return errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", id))
	}
	delete(r.s.shipments, id)
	delete(r.s.order, id)
	return nil
}

func (r *ShipmentRepo) ShippedSerials(ctx context.Context, q domain.ShippedSerialQuery) ([]string, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("shipment.ShippedSerials"); err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, serial := range q.Serials {
		wanted[serial] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, sh := range r.s.shipments {
		if !sh.Status.Active() {
			continue
		}
		for _, item := range sh.LineItems {
			if item.Name == q.Name && item.SKU == q.SKU && item.PartNumber == q.PartNumber &&
				wanted[item.Serial] && !seen[item.Serial] {
				seen[item.Serial] = true
				out = append(out, item.Serial)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
