package inventoryservice

import (
	"context"
	"fmt"
	"strings"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
	"stockledger/internal/pkg/validation"
)

// ShippedSerialFinder é a parte do repositório de envios que o ledger consulta
// para recusar seriais que ainda estão em trânsito.
type ShippedSerialFinder interface {
	ShippedSerials(ctx context.Context, query domain.ShippedSerialQuery) ([]string, error)
}

// Service é o Stock Ledger: único ponto de mutação dos registros de estoque fora do motor de envios.
type Service struct {
	tx        domain.Transactor
	records   domain.InventoryRepository
	shipments ShippedSerialFinder
	view      *GroupedView
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Stock Ledger.
func NewService(tx domain.Transactor, records domain.InventoryRepository, shipments ShippedSerialFinder,
	view *GroupedView, m *metrics.Metrics, logger logger.Logger) *Service {
	return &Service{tx: tx, records: records, shipments: shipments, view: view, metrics: m, logger: logger}
}

func (s *Service) done(ctx context.Context, op string, err error) {
	s.metrics.ObserveLedger(op, err)
	if err == nil && s.view != nil {
		s.view.Invalidate(ctx)
	}
}

func identityFields(name, sku, family, pn string, location domain.Location) error {
	var missing []string
	for field, value := range map[string]string{"name": name, "sku": sku, "family": family, "part_number": pn} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("campos obrigatórios vazios: %s", strings.Join(sortedCopy(missing), ", ")))
	}
	if !location.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("local inválido: %q", location))
	}
	return nil
}

// Create cria estoque. Com seriais gera um registro por unidade; sem seriais soma no pool
// existente da identidade ou cria um novo.
func (s *Service) Create(ctx context.Context, req domain.CreateInventoryRequest) (records []domain.StockRecord, err error) {
	s.logger.Debug("Iniciando criação de estoque.", map[string]interface{}{
		"name": req.Name, "sku": req.SKU, "location": req.Location, "quantity": req.Quantity, "serials": len(req.Serials),
	})
	defer func() { s.done(ctx, "create", err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := identityFields(req.Name, req.SKU, req.Family, req.PartNumber, req.Location); err != nil {
		return nil, err
	}

	if len(req.Serials) > 0 {
		records, err = s.createSerialized(ctx, req)
	} else {
		var rec domain.StockRecord
		rec, err = s.addToPool(ctx, req)
		records = []domain.StockRecord{rec}
	}
	if err != nil {
		s.logger.Error("Falha ao criar estoque.", err)
		return nil, err
	}

	s.logger.Info("Estoque criado com sucesso.", map[string]interface{}{"name": req.Name, "sku": req.SKU, "records": len(records)})
	return records, nil
}

func (s *Service) createSerialized(ctx context.Context, req domain.CreateInventoryRequest) ([]domain.StockRecord, error) {
	if len(req.Serials) != req.Quantity {
		return nil, apperror.NewValidationError(fmt.Sprintf(
			"a quantidade (%d) deve ser igual ao número de seriais (%d)", req.Quantity, len(req.Serials)))
	}

	seen := make(map[string]bool, len(req.Serials))
	var dups []string
	for _, serial := range req.Serials {
		if strings.TrimSpace(serial) == "" {
			return nil, apperror.NewValidationError("números de série não podem ser vazios")
		}
		if seen[serial] {
			dups = append(dups, serial)
		}
		seen[serial] = true
	}
	if len(dups) > 0 {
		return nil, apperror.NewValidationError(fmt.Sprintf("números de série duplicados na requisição: %s", strings.Join(dups, ", ")))
	}

	identity := domain.StockIdentity{Name: req.Name, SKU: req.SKU, PartNumber: req.PartNumber, Location: req.Location}
	var created []domain.StockRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkSerials(ctx, identity, req.Serials, ""); err != nil {
			return err
		}
		created = make([]domain.StockRecord, 0, len(req.Serials))
		for _, serial := range req.Serials {
			rec, err := s.records.Create(ctx, domain.StockRecord{
				Name: req.Name, SKU: req.SKU, Family: req.Family, PartNumber: req.PartNumber,
				Serial: serial, Quantity: 1, Location: req.Location,
			})
			if err != nil {
				return err
			}
			created = append(created, rec)
		}
		return nil
	})
	return created, err
}

// checkSerials recusa seriais que estão em envios ativos ou que já existem para a identidade.
// Um serial enviado ainda tem a linha com quantidade 0, então o envio é checado primeiro.
func (s *Service) checkSerials(ctx context.Context, identity domain.StockIdentity, serials []string, excludeID string) error {
	shipped, err := s.shipments.ShippedSerials(ctx, domain.ShippedSerialQuery{
		Name: identity.Name, SKU: identity.SKU, PartNumber: identity.PartNumber, Serials: serials,
	})
	if err != nil {
		return err
	}
	if len(shipped) > 0 {
		return apperror.NewSerialConflictError("números de série já enviados", shipped)
	}

	existing, err := s.records.List(ctx, domain.InventoryFilter{
		Name: identity.Name, SKU: identity.SKU, PartNumber: identity.PartNumber, Location: identity.Location,
		Serials: serials, ExcludeID: excludeID,
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		taken := make([]string, 0, len(existing))
		for _, rec := range existing {
			taken = append(taken, rec.Serial)
		}
		return apperror.NewSerialConflictError("números de série já existem", sortedCopy(taken))
	}
	return nil
}

// reserved informa se o serial do registro está preso a um envio ativo.
func (s *Service) reserved(ctx context.Context, rec domain.StockRecord) (bool, error) {
	if !rec.IsSerialized() {
		return false, nil
	}
	shipped, err := s.shipments.ShippedSerials(ctx, domain.ShippedSerialQuery{
		Name: rec.Name, SKU: rec.SKU, PartNumber: rec.PartNumber, Serials: []string{rec.Serial},
	})
	if err != nil {
		return false, err
	}
	return len(shipped) > 0, nil
}

func (s *Service) addToPool(ctx context.Context, req domain.CreateInventoryRequest) (domain.StockRecord, error) {
	return s.records.AddToPool(ctx, domain.StockRecord{
		Name: req.Name, SKU: req.SKU, Family: req.Family, PartNumber: req.PartNumber,
		Quantity: req.Quantity, Location: req.Location,
	})
}

// Update substitui os campos do registro. Zerar o serial quando já existe outro pool para a
// identidade funde este registro naquele pool.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateInventoryRequest) (out domain.UpdateOutcome, err error) {
	s.logger.Debug("Iniciando atualização de estoque.", map[string]interface{}{"id": id, "serial": req.Serial})
	defer func() { s.done(ctx, "update", err) }()

	if err := validation.Struct(req); err != nil {
		return domain.UpdateOutcome{}, err
	}
	if err := identityFields(req.Name, req.SKU, req.Family, req.PartNumber, req.Location); err != nil {
		return domain.UpdateOutcome{}, err
	}
	quantity := *req.Quantity
	if req.Serial != "" && quantity > 1 {
		return domain.UpdateOutcome{}, apperror.NewValidationError("um registro com número de série deve ter quantidade 1")
	}

	next := domain.StockRecord{
		ID: id, Name: req.Name, SKU: req.SKU, Family: req.Family, PartNumber: req.PartNumber,
		Serial: req.Serial, Quantity: quantity, Location: req.Location,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.records.FindByID(ctx, id)
		if err != nil {
			return err
		}

		held, err := s.reserved(ctx, current)
		if err != nil {
			return err
		}
		switch {
		case held:
			// A unidade está num envio ativo: só metadados mudam e a quantidade
			// fica como está até o envio ser cancelado ou entregue.
			if next.Serial != current.Serial || next.Identity() != current.Identity() {
				return apperror.NewSerialConflictError(
					"número de série reservado por um envio ativo; serial e identidade não podem mudar", []string{current.Serial})
			}
			next.Quantity = current.Quantity
		case next.Serial != "" && next.Quantity == 0 && next.Serial == current.Serial && current.Quantity == 0:
			// unidade fora do estoque continua fora
		case next.Serial != "" && next.Quantity != 1:
			return apperror.NewValidationError("um registro com número de série deve ter quantidade 1")
		}

		if next.Serial != "" && (next.Serial != current.Serial || next.Identity() != current.Identity()) {
			if err := s.checkSerials(ctx, next.Identity(), []string{next.Serial}, id); err != nil {
				return err
			}
		}

		if next.Serial == "" {
			pool, err := s.records.FindOne(ctx, domain.InventoryFilter{
				Name: next.Name, SKU: next.SKU, PartNumber: next.PartNumber, Location: next.Location,
				Serial: domain.NoSerial(), ExcludeID: id,
			})
			if err == nil {
				merged, err := s.records.AdjustQuantity(ctx, pool.ID, quantity)
				if err != nil {
					return err
				}
				if err := s.records.Delete(ctx, id); err != nil {
					return err
				}
				out = domain.UpdateOutcome{Record: merged, Merged: true, MergedInto: pool.ID}
				return nil
			}
			if !apperror.IsNotFound(err) {
				return err
			}
		}

		updated, err := s.records.Update(ctx, next)
		if err != nil {
			return err
		}
		out = domain.UpdateOutcome{Record: updated}
		return nil
	})
	if err != nil {
		s.logger.Error("Falha ao atualizar estoque.", err)
		return domain.UpdateOutcome{}, err
	}

	s.logger.Info("Estoque atualizado com sucesso.", map[string]interface{}{"id": id, "merged": out.Merged})
	return out, nil
}

// Delete aplica a política de retirada por registro: pools perdem uma unidade (e ficam
// como placeholder em 0), seriais saem da tabela ou voltam para o pool da identidade.
func (s *Service) Delete(ctx context.Context, id string) (out domain.DeleteOutcome, err error) {
	s.logger.Debug("Iniciando exclusão de estoque.", map[string]interface{}{"id": id})
	defer func() { s.done(ctx, "delete", err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.records.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if rec.IsSerialized() {
			out, err = s.retireSerial(ctx, rec)
		} else {
			out, err = s.decrementPool(ctx, rec)
		}
		return err
	})
	if err != nil {
		s.logger.Error("Falha ao excluir estoque.", err)
		return domain.DeleteOutcome{}, err
	}

	s.logger.Info("Exclusão de estoque aplicada.", map[string]interface{}{"id": id, "action": out.Action, "purged": out.Purged})
	return out, nil
}

func (s *Service) decrementPool(ctx context.Context, rec domain.StockRecord) (domain.DeleteOutcome, error) {
	if rec.Quantity == 0 {
		if err := s.records.Delete(ctx, rec.ID); err != nil {
			return domain.DeleteOutcome{}, err
		}
		return domain.DeleteOutcome{Action: domain.DeleteActionRemoved, Deleted: true}, nil
	}

	updated, err := s.records.AdjustQuantity(ctx, rec.ID, -1)
	if err != nil {
		return domain.DeleteOutcome{}, err
	}
	action := domain.DeleteActionDecremented
	if updated.Quantity == 0 {
		action = domain.DeleteActionZeroed
	}
	return domain.DeleteOutcome{Action: action, Record: &updated}, nil
}

func (s *Service) retireSerial(ctx context.Context, rec domain.StockRecord) (domain.DeleteOutcome, error) {
	if rec.Quantity > 1 {
		updated, err := s.records.AdjustQuantity(ctx, rec.ID, -1)
		if err != nil {
			return domain.DeleteOutcome{}, err
		}
		return domain.DeleteOutcome{Action: domain.DeleteActionDecremented, Record: &updated}, nil
	}

	group := rec.Group()
	siblings, err := s.records.List(ctx, domain.InventoryFilter{
		Name: group.Name, SKU: group.SKU, Location: group.Location, ExcludeID: rec.ID,
	})
	if err != nil {
		return domain.DeleteOutcome{}, err
	}

	var pool *domain.StockRecord
	for i := range siblings {
		if !siblings[i].IsSerialized() && siblings[i].Identity() == rec.Identity() {
			pool = &siblings[i]
			break
		}
	}

	if err := s.records.Delete(ctx, rec.ID); err != nil {
		return domain.DeleteOutcome{}, err
	}
	if len(siblings) == 0 || pool == nil {
		return domain.DeleteOutcome{Action: domain.DeleteActionRemoved, Deleted: true}, nil
	}

	updated := *pool
	if rec.Quantity > 0 {
		updated, err = s.records.AdjustQuantity(ctx, pool.ID, rec.Quantity)
		if err != nil {
			return domain.DeleteOutcome{}, err
		}
	}
	purged, err := s.records.DeleteEmpty(ctx, group)
	if err != nil {
		return domain.DeleteOutcome{}, err
	}

	out := domain.DeleteOutcome{Action: domain.DeleteActionMerged, Deleted: true, Purged: purged}
	if updated.Quantity > 0 {
		out.Record = &updated
	}
	return out, nil
}

// DeleteGroup remove todas as linhas de (nome, SKU, local), ignorando a política por registro.
func (s *Service) DeleteGroup(ctx context.Context, key domain.GroupKey) (n int64, err error) {
	s.logger.Debug("Iniciando exclusão de grupo.", map[string]interface{}{"name": key.Name, "sku": key.SKU, "location": key.Location})
	defer func() { s.done(ctx, "delete_group", err) }()

	if key.Name == "" || key.SKU == "" || !key.Location.Valid() {
		return 0, apperror.NewValidationError("nome, SKU e local válidos são obrigatórios para excluir um grupo")
	}

	n, err = s.records.DeleteGroup(ctx, key)
	if err != nil {
		s.logger.Error("Falha ao excluir grupo.", err)
		return 0, err
	}
	s.logger.Info("Grupo excluído.", map[string]interface{}{"name": key.Name, "sku": key.SKU, "removed": n})
	return n, nil
}

// List devolve os registros crus, mais recentes primeiro.
func (s *Service) List(ctx context.Context, location domain.Location) ([]domain.StockRecord, error) {
	if location != "" && !location.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("local inválido: %q", location))
	}
	records, err := s.records.List(ctx, domain.InventoryFilter{Location: location})
	if err != nil {
		s.logger.Error("Falha ao listar estoque.", err)
		return nil, err
	}
	return records, nil
}

// Grouped devolve a projeção agrupada, servida pelo cache quando possível.
func (s *Service) Grouped(ctx context.Context, location domain.Location, sort domain.GroupSort) ([]domain.GroupedInventory, error) {
	if location != "" && !location.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("local inválido: %q", location))
	}
	if sort == "" {
		sort = domain.SortByQuantity
	}
	if sort != domain.SortByQuantity && sort != domain.SortByName {
		return nil, apperror.NewValidationError(fmt.Sprintf("ordenação inválida: %q", sort))
	}
	if s.view == nil {
		records, err := s.records.List(ctx, domain.InventoryFilter{Location: location})
		if err != nil {
			return nil, err
		}
		return Group(records, sort), nil
	}
	return s.view.Get(ctx, location, sort)
}
