package shipmentservice

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
	"stockledger/internal/pkg/validation"
)

// Invalidator é notificado quando um envio mexeu no estoque.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service é o Shipment Engine. Toda operação que reserva ou devolve estoque roda numa
// única transação que cobre registros e envio.
type Service struct {
	tx        domain.Transactor
	shipments domain.ShipmentRepository
	records   domain.InventoryRepository
	view      Invalidator
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Shipment Engine.
func NewService(tx domain.Transactor, shipments domain.ShipmentRepository, records domain.InventoryRepository,
	view Invalidator, m *metrics.Metrics, logger logger.Logger) *Service {
	return &Service{tx: tx, shipments: shipments, records: records, view: view, metrics: m, logger: logger}
}

func (s *Service) done(ctx context.Context, op string, stockTouched bool, err error) {
	s.metrics.ObserveShipment(op, err)
	if err == nil && stockTouched && s.view != nil {
		s.view.Invalidate(ctx)
	}
}

// Create valida o pedido, reserva cada linha e grava o envio em "requested".
// Qualquer falha desfaz todas as reservas.
func (s *Service) Create(ctx context.Context, req domain.CreateShipmentRequest) (created domain.Shipment, err error) {
	s.logger.Debug("Iniciando criação de envio.", map[string]interface{}{"po_number": req.PONumber, "lines": len(req.LineItems)})
	defer func() { s.done(ctx, "create", true, err) }()

	if err := validation.Struct(req); err != nil {
		return domain.Shipment{}, err
	}
	if !req.From.Valid() {
		return domain.Shipment{}, apperror.NewValidationError(fmt.Sprintf("local de origem inválido: %q", req.From))
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lines, err := s.reserve(ctx, req.From, req.LineItems)
		if err != nil {
			return err
		}
		created, err = s.shipments.Create(ctx, domain.Shipment{
			PONumber:      req.PONumber,
			From:          req.From,
			To:            req.To,
			Status:        domain.StatusRequested,
			LineItems:     lines,
			Invoice:       req.Invoice,
			Carrier:       req.Carrier,
			ShipmentCosts: req.ShipmentCosts,
			Note:          req.Note,
		})
		return err
	})
	if err != nil {
		s.logger.Error("Falha ao criar envio.", err)
		return domain.Shipment{}, err
	}

	s.logger.Info("Envio criado com sucesso.", map[string]interface{}{"id": created.ID, "po_number": created.PONumber})
	return created, nil
}

// reserve baixa o estoque de cada linha e devolve as linhas com o snapshot do registro.
func (s *Service) reserve(ctx context.Context, from domain.Location, inputs []domain.LineItemInput) ([]domain.LineItem, error) {
	lines := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		rec, err := s.records.FindByID(ctx, in.StockRecordID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFoundError(fmt.Sprintf("registro de estoque %s da linha do envio não existe", in.StockRecordID))
			}
			return nil, err
		}
		if rec.Location != from {
			return nil, apperror.NewValidationError(fmt.Sprintf(
				"o produto %s (SKU: %s) está em %s, não em %s", rec.Name, rec.SKU, rec.Location, from))
		}
		if rec.Quantity < in.Quantity {
			s.metrics.IncInsufficientStock()
			return nil, apperror.NewInsufficientStockError(rec.Name, rec.SKU, rec.Quantity, in.Quantity)
		}

		// A checagem acima só dá a mensagem; quem garante é o decremento condicional.
		if _, err := s.records.AdjustQuantity(ctx, rec.ID, -in.Quantity); err != nil {
			var short *apperror.InsufficientStockError
			if stderrors.As(err, &short) {
				s.metrics.IncInsufficientStock()
			}
			return nil, err
		}

		lines = append(lines, domain.LineItem{
			StockRecordID: rec.ID,
			Name:          rec.Name,
			SKU:           rec.SKU,
			Family:        rec.Family,
			PartNumber:    rec.PartNumber,
			Serial:        rec.Serial,
			Quantity:      in.Quantity,
			Amount:        in.Amount,
		})
	}
	return lines, nil
}

// restore devolve as quantidades das linhas. Se o registro sumiu (purgado por uma
// exclusão), a quantidade volta para o registro da mesma identidade no local de
// origem, que é recriado a partir do snapshot quando preciso. Uma unidade
// serializada nunca passa de quantidade 1.
func (s *Service) restore(ctx context.Context, from domain.Location, lines []domain.LineItem) error {
	for _, line := range lines {
		rec, err := s.records.FindByID(ctx, line.StockRecordID)
		if apperror.IsNotFound(err) {
			serial := line.Serial
			rec, err = s.records.FindOne(ctx, domain.InventoryFilter{
				Name: line.Name, SKU: line.SKU, PartNumber: line.PartNumber, Location: from, Serial: &serial,
			})
			if apperror.IsNotFound(err) {
				s.logger.Warn("Registro da linha não existe mais; recriando a partir do envio.", map[string]interface{}{
					"stock_record_id": line.StockRecordID, "name": line.Name, "sku": line.SKU, "serial": line.Serial,
				})
				snapshot := domain.StockRecord{
					Name: line.Name, SKU: line.SKU, Family: line.Family, PartNumber: line.PartNumber,
					Serial: line.Serial, Quantity: line.Quantity, Location: from,
				}
				if snapshot.IsSerialized() {
					snapshot.Quantity = 1
					_, err = s.records.Create(ctx, snapshot)
				} else {
					_, err = s.records.AddToPool(ctx, snapshot)
				}
				if err != nil {
					return err
				}
				continue
			}
		}
		if err != nil {
			return err
		}

		amount := restorable(rec, line.Quantity)
		if amount < line.Quantity {
			s.logger.Warn("Unidade serializada já está em estoque; devolução limitada a quantidade 1.", map[string]interface{}{
				"stock_record_id": rec.ID, "serial": rec.Serial, "quantity": rec.Quantity, "line_quantity": line.Quantity,
			})
		}
		if amount == 0 {
			continue
		}
		if _, err := s.records.AdjustQuantity(ctx, rec.ID, amount); err != nil {
			return err
		}
	}
	return nil
}

// restorable devolve quanto de qty cabe no registro. Pools aceitam tudo; um registro
// serializado só volta até 1.
func restorable(rec domain.StockRecord, qty int) int {
	if !rec.IsSerialized() {
		return qty
	}
	room := 1 - rec.Quantity
	if room <= 0 {
		return 0
	}
	if qty > room {
		return room
	}
	return qty
}

func validatePatch(p domain.ShipmentPatch) error {
	if p.Status != nil && !p.Status.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("status inválido: %q", *p.Status))
	}
	if p.LineItems != nil {
		if len(*p.LineItems) == 0 {
			return apperror.NewValidationError("o envio deve ter ao menos uma linha")
		}
		for _, in := range *p.LineItems {
			if err := validation.Struct(in); err != nil {
				return err
			}
		}
	}
	if p.PONumber != nil && strings.TrimSpace(*p.PONumber) == "" {
		return apperror.NewValidationError("po_number não pode ser vazio")
	}
	if p.To != nil && strings.TrimSpace(*p.To) == "" {
		return apperror.NewValidationError("destino não pode ser vazio")
	}
	if p.Invoice != nil && *p.Invoice < 0 {
		return apperror.NewValidationError("invoice não pode ser negativo")
	}
	costs := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"freight", p.Freight}, {"mpf_vat", p.MPFVAT}, {"duties", p.Duties},
		{"ttl_incidental", p.TTLIncidental}, {"end_user_shipping_fee", p.EndUserShippingFee},
	}
	for _, c := range costs {
		if c.value != nil && c.value.IsNegative() {
			return apperror.NewValidationError(fmt.Sprintf("%s não pode ser negativo", c.name))
		}
	}
	return nil
}

func applyMetadata(sh *domain.Shipment, p domain.ShipmentPatch) {
	if p.PONumber != nil {
		sh.PONumber = *p.PONumber
	}
	if p.To != nil {
		sh.To = *p.To
	}
	if p.Invoice != nil {
		n := *p.Invoice
		sh.Invoice = &n
	}
	if p.Carrier != nil {
		sh.Carrier = *p.Carrier
	}
	if p.Freight != nil {
		sh.Freight = *p.Freight
	}
	if p.MPFVAT != nil {
		sh.MPFVAT = *p.MPFVAT
	}
	if p.Duties != nil {
		sh.Duties = *p.Duties
	}
	if p.TTLIncidental != nil {
		sh.TTLIncidental = *p.TTLIncidental
	}
	if p.EndUserShippingFee != nil {
		sh.EndUserShippingFee = *p.EndUserShippingFee
	}
	if p.Note != nil {
		sh.Note = *p.Note
	}
}

// Update aplica um patch. Cancelar devolve o estoque e tem precedência sobre uma troca
// de linhas no mesmo patch; cancelar um envio já cancelado não devolve nada de novo.
// Trocar as linhas devolve as reservas atuais e reserva as novas, tudo ou nada.
func (s *Service) Update(ctx context.Context, id string, patch domain.ShipmentPatch) (updated domain.Shipment, err error) {
	s.logger.Debug("Iniciando atualização de envio.", map[string]interface{}{"id": id})
	stockTouched := false
	defer func() { s.done(ctx, "update", stockTouched, err) }()

	if err := validatePatch(patch); err != nil {
		return domain.Shipment{}, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.shipments.FindByID(ctx, id)
		if err != nil {
			return err
		}

		next := current.Status
		if patch.Status != nil {
			next = *patch.Status
			if !current.Status.CanTransitionTo(next) {
				return apperror.NewValidationError(fmt.Sprintf(
					"transição de status inválida: %s → %s", current.Status, next))
			}
		}

		switch {
		case next == domain.StatusCanceled:
			if patch.LineItems != nil {
				s.logger.Warn("Patch cancela o envio; troca de linhas ignorada.", map[string]interface{}{"id": id})
			}
			if current.Status != domain.StatusCanceled {
				if err := s.restore(ctx, current.From, current.LineItems); err != nil {
					return err
				}
				stockTouched = true
			}

		case patch.LineItems != nil:
			if current.Status.Terminal() {
				return apperror.NewValidationError(fmt.Sprintf(
					"as linhas de um envio %s não podem ser alteradas", current.Status))
			}
			if err := s.restore(ctx, current.From, current.LineItems); err != nil {
				return err
			}
			lines, err := s.reserve(ctx, current.From, *patch.LineItems)
			if err != nil {
				return err
			}
			current.LineItems = lines
			stockTouched = true
		}

		current.Status = next
		applyMetadata(&current, patch)

		updated, err = s.shipments.Update(ctx, current)
		return err
	})
	if err != nil {
		s.logger.Error("Falha ao atualizar envio.", err)
		return domain.Shipment{}, err
	}

	s.logger.Info("Envio atualizado com sucesso.", map[string]interface{}{"id": id, "status": updated.Status, "stock_touched": stockTouched})
	return updated, nil
}

// Delete remove o envio. Com restoreStock e status "requested" as reservas voltam ao
// estoque na mesma transação; nos demais casos o estoque não é tocado.
func (s *Service) Delete(ctx context.Context, id string, restoreStock bool) (err error) {
	s.logger.Debug("Iniciando exclusão de envio.", map[string]interface{}{"id": id, "restore_stock": restoreStock})
	stockTouched := false
	defer func() { s.done(ctx, "delete", stockTouched, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.shipments.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if restoreStock && current.Status == domain.StatusRequested {
			if err := s.restore(ctx, current.From, current.LineItems); err != nil {
				return err
			}
			stockTouched = true
		}
		return s.shipments.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("Falha ao excluir envio.", err)
		return err
	}

	s.logger.Info("Envio excluído.", map[string]interface{}{"id": id, "stock_restored": stockTouched})
	return nil
}

// Get busca um envio pelo ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Shipment, error) {
	sh, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao buscar envio.", err)
		return domain.Shipment{}, err
	}
	return sh, nil
}

// List devolve os envios filtrados, mais recentes primeiro.
func (s *Service) List(ctx context.Context, filter domain.ShipmentFilter) ([]domain.Shipment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("status inválido: %q", filter.Status))
	}
	if filter.From != "" && !filter.From.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("local de origem inválido: %q", filter.From))
	}
	shipments, err := s.shipments.List(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao listar envios.", err)
		return nil, err
	}
	return shipments, nil
}
