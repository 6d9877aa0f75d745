package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	"stockledger/internal/errors"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/database"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
)

const productColumns = `id, name, category, sku, part_number, family, img_url, family_img_url, download_url, specs, status, created_at, updated_at`

// productCacheKey é a chave de cache de um produto.
const productCacheKey = "product:%s"

// ProductRepository implementa a interface domain.ProductRepository com leitura cache-aside.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration,
	m *metrics.Metrics, logger logger.Logger) *ProductRepository {
	return &ProductRepository{DB: db, Cache: cacheClient, DBTimeout: dbTimeout, CacheTTL: cacheTTL, metrics: m, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var category, status string
	var specs []byte
	err := row.Scan(&p.ID, &p.Name, &category, &p.SKU, &p.PartNumber, &p.Family, &p.ImgURL, &p.FamilyImgURL,
		&p.DownloadURL, &specs, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Category = domain.ProductCategory(category)
	p.Status = domain.ProductStatus(status)
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specs); err != nil {
			return domain.Product{}, fmt.Errorf("specs inválido no produto %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeSpecs(specs map[string]string) (string, error) {
	if specs == nil {
		return "{}", nil
	}
	b, err := json.Marshal(specs)
	return string(b), err
}

// Save persiste um novo Produto.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Inserindo produto.", map[string]interface{}{"sku": product.SKU, "name": product.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	specs, err := encodeSpecs(product.Specs)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("falha ao serializar specs", err)
	}

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	query := `INSERT INTO products (` + productColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
        RETURNING ` + productColumns

	created, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query,
		product.ID, product.Name, string(product.Category), product.SKU, product.PartNumber, product.Family,
		product.ImgURL, product.FamilyImgURL, product.DownloadURL, specs, string(product.Status), time.Now().UTC(),
	))
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao inserir produto", err)
	}

	r.logger.Info("Produto criado.", map[string]interface{}{"id": created.ID})
	return created, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	if !database.ValidID(id) {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)

	// 1. Tentar obter do Cache (Redis)
	cached, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		var product domain.Product
		if json.Unmarshal([]byte(cached), &product) == nil {
			r.metrics.ObserveCache("product", "hit")
			return product, nil
		}
	} else if err != cache.ErrCacheMiss {
		r.metrics.ObserveCache("product", "error")
		r.logger.Warn("Falha ao ler produto do cache; seguindo para o DB.", map[string]interface{}{"key": key, "error": err.Error()})
	} else {
		r.metrics.ObserveCache("product", "miss")
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// 3. Popular o cache para as próximas leituras
	if data, err := json.Marshal(product); err == nil {
		if err := r.Cache.Set(ctxTimeout, key, data, r.CacheTTL); err != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	return product, nil
}

// FindAll lista produtos com filtros e paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.logger.Debug("Listando produtos.", map[string]interface{}{"category": filter.Category, "page": filter.Page})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Name != "" {
		add("name ILIKE '%%' || $%d || '%%'", filter.Name)
	}
	if filter.Category != "" {
		add("category = $%d", string(filter.Category))
	}
	if filter.Family != "" {
		add("family = $%d", filter.Family)
	}
	if filter.EnabledOnly {
		add("status = $%d", string(domain.ProductEnabled))
	} else if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY name ASC, id ASC`
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}
	return products, nil
}

// Update grava o produto e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	specs, err := encodeSpecs(product.Specs)
	if err != nil {
		return errors.NewInternalError("falha ao serializar specs", err)
	}

	res, err := r.DB.ExecContext(ctxTimeout, `UPDATE products
        SET name = $2, category = $3, sku = $4, part_number = $5, family = $6, img_url = $7,
            family_img_url = $8, download_url = $9, specs = $10, status = $11, updated_at = $12
        WHERE id = $1`,
		product.ID, product.Name, string(product.Category), product.SKU, product.PartNumber, product.Family,
		product.ImgURL, product.FamilyImgURL, product.DownloadURL, specs, string(product.Status), time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar produto.", err)
		return errors.NewDBError("Falha ao atualizar produto", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID))
	}

	r.evict(ctxTimeout, product.ID)
	r.logger.Info("Produto atualizado.", map[string]interface{}{"id": product.ID})
	return nil
}

// Delete remove o produto e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto.", err)
		return errors.NewDBError("Falha ao remover produto", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.evict(ctxTimeout, id)
	r.logger.Info("Produto removido.", map[string]interface{}{"id": id})
	return nil
}

func (r *ProductRepository) evict(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar produto no cache.", map[string]interface{}{"id": id, "error": err.Error()})
	}
}
