package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// DBTX é o subconjunto comum a *sql.DB e *sql.Tx usado pelos repositórios.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// Conn devolve a transação do contexto, se houver, ou o pool.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// InTx informa se o contexto já carrega uma transação.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// TxManager abre uma transação por operação lógica do ledger.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

// NewTxManager cria o gerenciador. timeout limita a vida total da transação.
func NewTxManager(db *sql.DB, timeout time.Duration, log logger.Logger) *TxManager {
	return &TxManager{db: db, timeout: timeout, logger: log}
}

// WithinTx executa fn numa transação. Se fn retornar erro (ou entrar em pânico)
// a transação é desfeita e o erro volta inalterado. Chamadas aninhadas reutilizam
// a transação externa.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDBError("falha ao iniciar transação", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				m.logger.Error("Falha no rollback da transação", rbErr)
			}
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if cerr := tx.Commit(); cerr != nil {
		err = errors.NewDBError(fmt.Sprintf("falha ao confirmar transação (%s)", m.timeout), cerr)
		return err
	}
	return nil
}

// ValidID informa se id é um UUID. As colunas id são UUID; um texto qualquer faria o
// PostgreSQL abortar a transação corrente, então os repositórios tratam como não encontrado.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
