package inventoryrepo

import (
	"context"
	"database/sql"
	stderrors "errors"
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

const recordColumns = `id, name, sku, family, part_number, serial, quantity, location, created_at, updated_at`

// uniqueViolation é o SQLSTATE do PostgreSQL para violação de índice único.
const uniqueViolation = "23505"

// InventoryRepository implementa domain.InventoryRepository sobre o PostgreSQL.
// Todas as consultas usam a transação do contexto quando existir.
type InventoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewInventoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (domain.StockRecord, error) {
	var rec domain.StockRecord
	var location string
	err := row.Scan(&rec.ID, &rec.Name, &rec.SKU, &rec.Family, &rec.PartNumber, &rec.Serial,
		&rec.Quantity, &location, &rec.CreatedAt, &rec.UpdatedAt)
	rec.Location = domain.Location(location)
	return rec, err
}

// whereClause monta o WHERE a partir do filtro; campos vazios não filtram.
func whereClause(filter domain.InventoryFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Name != "" {
		add("name = $%d", filter.Name)
	}
	if filter.SKU != "" {
		add("sku = $%d", filter.SKU)
	}
	if filter.PartNumber != "" {
		add("part_number = $%d", filter.PartNumber)
	}
	if filter.Location != "" {
		add("location = $%d", string(filter.Location))
	}
	if filter.Serial != nil {
		add("serial = $%d", *filter.Serial)
	}
	if len(filter.Serials) > 0 {
		add("serial = ANY($%d)", pq.Array(filter.Serials))
	}
	if filter.ExcludeID != "" {
		add("id <> $%d", filter.ExcludeID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *InventoryRepository) translate(msg string, err error) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		r.logger.Warn("Violação de unicidade no estoque.", map[string]interface{}{"constraint": pqErr.Constraint})
		return errors.NewConflictError("já existe um registro com este nome, SKU, part number, serial e local")
	}
	r.logger.Error(msg, err)
	return errors.NewDBError(msg, err)
}

// Create insere um registro novo. ID e timestamps são gerados aqui.
func (r *InventoryRepository) Create(ctx context.Context, rec domain.StockRecord) (domain.StockRecord, error) {
	r.logger.Debug("Inserindo registro de estoque.", map[string]interface{}{"name": rec.Name, "sku": rec.SKU, "serial": rec.Serial, "location": rec.Location})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	query := `INSERT INTO inventory_records (` + recordColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
        RETURNING ` + recordColumns

	created, err := scanRecord(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query,
		uuid.NewString(), rec.Name, rec.SKU, rec.Family, rec.PartNumber, rec.Serial, rec.Quantity, string(rec.Location), now,
	))
	if err != nil {
		return domain.StockRecord{}, r.translate("Falha ao inserir registro de estoque", err)
	}

	r.logger.Info("Registro de estoque criado.", map[string]interface{}{"id": created.ID, "quantity": created.Quantity})
	return created, nil
}

// AddToPool faz o upsert do pool da identidade sobre o índice único: o INSERT que
// colide soma a quantidade no registro existente em vez de falhar.
func (r *InventoryRepository) AddToPool(ctx context.Context, rec domain.StockRecord) (domain.StockRecord, error) {
	r.logger.Debug("Somando no pool de estoque.", map[string]interface{}{"name": rec.Name, "sku": rec.SKU, "location": rec.Location, "quantity": rec.Quantity})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	query := `INSERT INTO inventory_records (` + recordColumns + `)
        VALUES ($1, $2, $3, $4, $5, '', $6, $7, $8, $8)
        ON CONFLICT (name, sku, part_number, serial, location)
        DO UPDATE SET quantity = inventory_records.quantity + EXCLUDED.quantity,
                      updated_at = EXCLUDED.updated_at
        RETURNING ` + recordColumns

	pool, err := scanRecord(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query,
		uuid.NewString(), rec.Name, rec.SKU, rec.Family, rec.PartNumber, rec.Quantity, string(rec.Location), now,
	))
	if err != nil {
		return domain.StockRecord{}, r.translate("Falha ao somar no pool de estoque", err)
	}

	r.logger.Info("Pool de estoque atualizado.", map[string]interface{}{"id": pool.ID, "quantity": pool.Quantity})
	return pool, nil
}

// FindByID busca um registro pelo ID.
func (r *InventoryRepository) FindByID(ctx context.Context, id string) (domain.StockRecord, error) {
	if !database.ValidID(id) {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM inventory_records WHERE id = $1`
	rec, err := scanRecord(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}
	if err != nil {
		return domain.StockRecord{}, r.translate("Falha ao buscar registro de estoque", err)
	}
	return rec, nil
}

// FindOne devolve o registro mais antigo que casa com o filtro.
func (r *InventoryRepository) FindOne(ctx context.Context, filter domain.InventoryFilter) (domain.StockRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := whereClause(filter)
	query := `SELECT ` + recordColumns + ` FROM inventory_records` + where + ` ORDER BY created_at ASC, id ASC LIMIT 1`

	rec, err := scanRecord(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query, args...))
	if err == sql.ErrNoRows {
		return domain.StockRecord{}, errors.NewNotFoundError("Nenhum registro de estoque corresponde ao filtro.")
	}
	if err != nil {
		return domain.StockRecord{}, r.translate("Falha ao buscar registro de estoque", err)
	}
	return rec, nil
}

// List devolve os registros que casam com o filtro, mais recentes primeiro.
func (r *InventoryRepository) List(ctx context.Context, filter domain.InventoryFilter) ([]domain.StockRecord, error) {
	r.logger.Debug("Listando registros de estoque.", map[string]interface{}{"location": filter.Location, "name": filter.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := whereClause(filter)
	query := `SELECT ` + recordColumns + ` FROM inventory_records` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := database.Conn(ctx, r.DB).QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, r.translate("Falha ao listar registros de estoque", err)
	}
	defer rows.Close()

	records := []domain.StockRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, r.translate("Falha ao ler registro de estoque", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, r.translate("Falha ao iterar registros de estoque", err)
	}
	return records, nil
}

// Update substitui todos os campos editáveis do registro e renova updated_at.
func (r *InventoryRepository) Update(ctx context.Context, rec domain.StockRecord) (domain.StockRecord, error) {
	if !database.ValidID(rec.ID) {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", rec.ID))
	}

	r.logger.Debug("Atualizando registro de estoque.", map[string]interface{}{"id": rec.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE inventory_records
        SET name = $2, sku = $3, family = $4, part_number = $5, serial = $6, quantity = $7, location = $8, updated_at = $9
        WHERE id = $1
        RETURNING ` + recordColumns

	updated, err := scanRecord(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query,
		rec.ID, rec.Name, rec.SKU, rec.Family, rec.PartNumber, rec.Serial, rec.Quantity, string(rec.Location), time.Now().UTC(),
	))
	if err == sql.ErrNoRows {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", rec.ID))
	}
	if err != nil {
		return domain.StockRecord{}, r.translate("Falha ao atualizar registro de estoque", err)
	}

	r.logger.Info("Registro de estoque atualizado.", map[string]interface{}{"id": updated.ID, "quantity": updated.Quantity})
	return updated, nil
}

// AdjustQuantity aplica delta numa única instrução condicional: a linha só muda se a
// quantidade resultante for >= 0, então duas reservas concorrentes nunca vendem a mais.
func (r *InventoryRepository) AdjustQuantity(ctx context.Context, id string, delta int) (domain.StockRecord, error) {
	if !database.ValidID(id) {
		return domain.StockRecord{}, errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}

	r.logger.Debug("Ajustando quantidade.", map[string]interface{}{"id": id, "delta": delta})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE inventory_records
        SET quantity = quantity + $2, updated_at = $3
        WHERE id = $1 AND quantity + $2 >= 0
        RETURNING ` + recordColumns

	updated, err := scanRecord(database.Conn(ctx, r.DB).QueryRowContext(ctxTimeout, query, id, delta, time.Now().UTC()))
	if err == sql.ErrNoRows {
		// Ou o registro não existe, ou o ajuste deixaria a quantidade negativa.
		current, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return domain.StockRecord{}, findErr
		}
		r.logger.Warn("Ajuste recusado por estoque insuficiente.", map[string]interface{}{"id": id, "available": current.Quantity, "delta": delta})
		return domain.StockRecord{}, errors.NewInsufficientStockError(current.Name, current.SKU, current.Quantity, -delta)
	}
	if err != nil {
		return domain.StockRecord{}, r.translate("Falha ao ajustar quantidade", err)
	}

	return updated, nil
}

// Delete remove um registro pelo ID.
func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	if !database.ValidID(id) {
		return errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout, `DELETE FROM inventory_records WHERE id = $1`, id)
	if err != nil {
		return r.translate("Falha ao remover registro de estoque", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Registro de estoque %s não encontrado.", id))
	}

	r.logger.Info("Registro de estoque removido.", map[string]interface{}{"id": id})
	return nil
}

// DeleteGroup remove todas as linhas do grupo e devolve quantas foram removidas.
func (r *InventoryRepository) DeleteGroup(ctx context.Context, key domain.GroupKey) (int64, error) {
	return r.deleteWhere(ctx, `name = $1 AND sku = $2 AND location = $3`, key)
}

// DeleteEmpty remove as linhas com quantidade 0 do grupo.
func (r *InventoryRepository) DeleteEmpty(ctx context.Context, key domain.GroupKey) (int64, error) {
	return r.deleteWhere(ctx, `name = $1 AND sku = $2 AND location = $3 AND quantity = 0`, key)
}

func (r *InventoryRepository) deleteWhere(ctx context.Context, cond string, key domain.GroupKey) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := database.Conn(ctx, r.DB).ExecContext(ctxTimeout,
		`DELETE FROM inventory_records WHERE `+cond, key.Name, key.SKU, string(key.Location))
	if err != nil {
		return 0, r.translate("Falha ao remover registros do grupo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, r.translate("Falha ao contar registros removidos", err)
	}

	r.logger.Info("Registros do grupo removidos.", map[string]interface{}{"name": key.Name, "sku": key.SKU, "location": key.Location, "removed": n})
	return n, nil
}
