package inquiryrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/database"
	"stockledger/internal/pkg/logger"
)

const inquiryColumns = `id, company, contact, submitter, items, status, created_at, completed_at`

// InquiryRepository persiste as solicitações de cotação no PostgreSQL.
type InquiryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInquiryRepository cria o repositório de solicitações.
func NewInquiryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *InquiryRepository {
	return &InquiryRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInquiry(row rowScanner) (domain.Inquiry, error) {
	var inq domain.Inquiry
	var submitter sql.NullString
	var items []byte
	var status string
	var completedAt sql.NullTime
	if err := row.Scan(&inq.ID, &inq.Company, &inq.Contact, &submitter, &items, &status, &inq.CreatedAt, &completedAt); err != nil {
		return domain.Inquiry{}, err
	}
	inq.Submitter = submitter.String
	inq.Status = domain.InquiryStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		inq.CompletedAt = &t
	}
	if err := json.Unmarshal(items, &inq.Items); err != nil {
		return domain.Inquiry{}, fmt.Errorf("itens inválidos na solicitação %s: %w", inq.ID, err)
	}
	return inq, nil
}

func notFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Solicitação com ID %s não existe.", id))
}

// Save insere uma nova solicitação.
func (r *InquiryRepository) Save(ctx context.Context, inquiry domain.Inquiry) (domain.Inquiry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	items, err := json.Marshal(inquiry.Items)
	if err != nil {
		return domain.Inquiry{}, apperror.NewInternalError("falha ao serializar itens", err)
	}
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	submitter := sql.NullString{String: inquiry.Submitter, Valid: inquiry.Submitter != ""}

	saved, err := scanInquiry(r.DB.QueryRowContext(ctxTimeout,
		`INSERT INTO inquiries (id, company, contact, submitter, items, status, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+inquiryColumns,
		inquiry.ID, inquiry.Company, inquiry.Contact, submitter, string(items), string(inquiry.Status), time.Now().UTC(),
	))
	if err != nil {
		r.logger.Error("Falha ao inserir solicitação.", err)
		return domain.Inquiry{}, apperror.NewDBError("Falha ao inserir solicitação", err)
	}

	r.logger.Info("Solicitação registrada.", map[string]interface{}{"id": saved.ID, "company": saved.Company})
	return saved, nil
}

// FindByID busca uma solicitação pelo ID.
func (r *InquiryRepository) FindByID(ctx context.Context, id string) (domain.Inquiry, error) {
	if !database.ValidID(id) {
		return domain.Inquiry{}, notFound(id)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	inq, err := scanInquiry(r.DB.QueryRowContext(ctxTimeout, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Inquiry{}, notFound(id)
	}
	if err != nil {
		return domain.Inquiry{}, apperror.NewDBError("Falha ao buscar solicitação", err)
	}
	return inq, nil
}

// FindAll lista as solicitações, mais recentes primeiro.
func (r *InquiryRepository) FindAll(ctx context.Context) ([]domain.Inquiry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY created_at DESC, id`)
	if err != nil {
		r.logger.Error("Falha ao listar solicitações.", err)
		return nil, apperror.NewDBError("Falha ao listar solicitações", err)
	}
	defer rows.Close()

	inquiries := []domain.Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler solicitação", err)
		}
		inquiries = append(inquiries, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar solicitações", err)
	}
	return inquiries, nil
}

// UpdateStatus grava o novo status e, quando informado, o instante de conclusão.
func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, status domain.InquiryStatus, completedAt *time.Time) (domain.Inquiry, error) {
	if !database.ValidID(id) {
		return domain.Inquiry{}, notFound(id)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var completed sql.NullTime
	if completedAt != nil {
		completed = sql.NullTime{Time: *completedAt, Valid: true}
	}

	inq, err := scanInquiry(r.DB.QueryRowContext(ctxTimeout,
		`UPDATE inquiries SET status = $2, completed_at = $3 WHERE id = $1 RETURNING `+inquiryColumns,
		id, string(status), completed))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Inquiry{}, notFound(id)
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar solicitação.", err)
		return domain.Inquiry{}, apperror.NewDBError("Falha ao atualizar solicitação", err)
	}
	return inq, nil
}

// Delete remove uma solicitação.
func (r *InquiryRepository) Delete(ctx context.Context, id string) error {
	if !database.ValidID(id) {
		return notFound(id)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("Falha ao remover solicitação", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}
