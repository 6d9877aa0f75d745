package shipmentrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stockledger/internal/domain"
	"stockledger/internal/errors"
	"stockledger/internal/pkg/database"
	"stockledger/internal/pkg/logger"
)

const shipmentColumns = `id, po_number, from_location, to_destination, status, line_items, invoice, carrier,
    freight, mpf_vat, duties, ttl_incidental, end_user_shipping_fee, note, created_at, updated_at`

// ShipmentRepository implementa domain.ShipmentRepository. As linhas do envio ficam
// numa coluna JSONB, na ordem em que foram enviadas.
type ShipmentRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewShipmentRepository cria e retorna uma nova instância do Repositório de Envios.
func NewShipmentRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ShipmentRepository {
	return &ShipmentRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShipment(row rowScanner) (domain.Shipment, error) {
	var s domain.Shipment
	var from, status string
	var items []byte
	var invoice sql.NullInt64

	err := row.Scan(&s.ID, &s.PONumber, &from, &s.To, &status, &items, &invoice, &s.Carrier,
		&s.Freight, &s.MPFVAT, &s.Duties, &s.TTLIncidental, &s.EndUserShippingFee, &s.Note,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Shipment{}, err
	}

	s.From = domain.Location(from)
	s.Status = domain.ShipmentStatus(status)
	if invoice.Valid {
		n := int(invoice.Int64)
		s.Invoice = &n
	}
	if err := json.Unmarshal(items, &s.LineItems); err != nil {
		return domain.Shipment{}, fmt.Errorf("line_items inválido no envio %s: %w", s.ID, err)
	}
	return s, nil
}

func nullableInvoice(invoice *int) sql.NullInt64 {
	if invoice == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*invoice), Valid: true}
}

func encodeItems(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	return json.Marshal(items)
}

// Create insere o envio. ID e timestamps são gerados aqui.
func (r *ShipmentRepository) Create(ctx context.Context, s domain.Shipment) (domain.Shipment, error) {
	r.logger.Debug("Inserindo envio.", map[string]interface{}{"po_number": s.PONumber, "lines": len(s.LineItems)})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	items, err := encodeItems(s.LineItems)
	if err != nil {
		return domain.Shipment{}, errors.NewInternalError("falha ao serializar linhas do envio", err)
	}

	query := `INSERT INTO shipments (` + shipmentColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
        RETURNING ` + shipmentColumns

	created, err := scanShipment(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query,
		uuid.NewString(), s.PONumber, string(s.From), s.To, string(s.Status), string(items), nullableInvoice(s.Invoice), s.Carrier,
		s.Freight, s.MPFVAT, s.Duties, s.TTLIncidental, s.EndUserShippingFee, s.Note, time.Now().UTC(),
	))
	if err != nil {
		r.logger.Error("Falha ao inserir envio no DB.", err)
		return domain.Shipment{}, errors.NewDBError("Falha ao inserir envio", err)
	}

	r.logger.Info("Envio criado.", map[string]interface{}{"id": created.ID, "po_number": created.PONumber})
	return created, nil
}

// FindByID busca um envio pelo ID.
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (domain.Shipment, error) {
	if !database.ValidID(id) {
		return domain.Shipment{}, errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	s, err := scanShipment(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Shipment{}, errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar envio no DB.", err)
		return domain.Shipment{}, errors.NewDBError("Falha ao buscar envio", err)
	}
	return s, nil
}

// List devolve os envios filtrados, mais recentes primeiro.
func (r *ShipmentRepository) List(ctx context.Context, filter domain.ShipmentFilter) ([]domain.Shipment, error) {
	r.logger.Debug("Listando envios.", map[string]interface{}{"status": filter.Status, "from": filter.From})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.PONumber != "" {
		add("po_number = $%d", filter.PONumber)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.From != "" {
		add("from_location = $%d", string(filter.From))
	}
	if filter.To != "" {
		add("to_destination = $%d", filter.To)
	}

	query := `SELECT ` + shipmentColumns + ` FROM shipments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar envios.", err)
		return nil, errors.NewDBError("Falha ao listar envios", err)
	}
	defer rows.Close()

	shipments := []domain.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler envio", err)
		}
		shipments = append(shipments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar envios", err)
	}
	return shipments, nil
}

// Update grava o documento inteiro do envio e renova updated_at.
func (r *ShipmentRepository) Update(ctx context.Context, s domain.Shipment) (domain.Shipment, error) {
	if !database.ValidID(s.ID) {
		return domain.Shipment{}, errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", s.ID))
	}

	r.logger.Debug("Atualizando envio.", map[string]interface{}{"id": s.ID, "status": s.Status})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	items, err := encodeItems(s.LineItems)
	if err != nil {
		return domain.Shipment{}, errors.NewInternalError("falha ao serializar linhas do envio", err)
	}

	query := `UPDATE shipments
        SET po_number = $2, from_location = $3, to_destination = $4, status = $5, line_items = $6, invoice = $7,
            carrier = $8, freight = $9, mpf_vat = $10, duties = $11, ttl_incidental = $12,
            end_user_shipping_fee = $13, note = $14, updated_at = $15
        WHERE id = $1
        RETURNING ` + shipmentColumns

	updated, err := scanShipment(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query,
		s.ID, s.PONumber, string(s.From), s.To, string(s.Status), string(items), nullableInvoice(s.Invoice),
		s.Carrier, s.Freight, s.MPFVAT, s.Duties, s.TTLIncidental, s.EndUserShippingFee, s.Note, time.Now().UTC(),
	))
	if err == sql.ErrNoRows {
		return domain.Shipment{}, errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", s.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar envio no DB.", err)
		return domain.Shipment{}, errors.NewDBError("Falha ao atualizar envio", err)
	}

	r.logger.Info("Envio atualizado.", map[string]interface{}{"id": updated.ID, "status": updated.Status})
	return updated, nil
}

// Delete remove o envio.
func (r *ShipmentRepository) Delete(ctx context.Context, id string) error {
	if !database.ValidID(id) {
		return errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover envio.", err)
		return errors.NewDBError("Falha ao remover envio", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Envio %s não encontrado.", id))
	}

	r.logger.Info("Envio removido.", map[string]interface{}{"id": id})
	return nil
}

// ShippedSerials devolve os seriais consultados que aparecem numa linha de um envio
// ativo (nem cancelado nem entregue) para o mesmo nome, SKU e part number.
func (r *ShipmentRepository) ShippedSerials(ctx context.Context, q domain.ShippedSerialQuery) ([]string, error) {
	if len(q.Serials) == 0 {
		return nil, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT DISTINCT item->>'serial'
        FROM shipments s, jsonb_array_elements(s.line_items) AS item
        WHERE s.status NOT IN ('canceled', 'delivered')
          AND item->>'name' = $1 AND item->>'sku' = $2 AND item->>'part_number' = $3
          AND item->>'serial' = ANY($4)
        ORDER BY 1`

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, query, q.Name, q.SKU, q.PartNumber, pq.Array(q.Serials))
	if err != nil {
		r.logger.Error("Falha ao consultar seriais enviados.", err)
		return nil, errors.NewDBError("Falha ao consultar seriais enviados", err)
	}
	defer rows.Close()

	var serials []string
	for rows.Next() {
		var serial string
		if err := rows.Scan(&serial); err != nil {
			return nil, errors.NewDBError("Falha ao ler serial enviado", err)
		}
		serials = append(serials, serial)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar seriais enviados", err)
	}
	return serials, nil
}
