package productservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/validation"
)

// Service é a estrutura que implementa a interface domain.ProductService.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo domain.ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateProduct valida e persiste um novo produto do catálogo.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.Status == "" {
		product.Status = domain.ProductEnabled
	}
	if err := validation.Struct(product); err != nil {
		return domain.Product{}, err
	}

	product.ID = uuid.NewString()
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao salvar produto.", err)
		return domain.Product{}, err
	}
	return created, nil
}

// GetProductByID busca um produto. Produtos desabilitados só são visíveis para administradores;
// para os demais papéis o produto simplesmente não existe.
func (s *Service) GetProductByID(ctx context.Context, id string, role domain.UserRole) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if role != domain.RoleAdmin && product.Status != domain.ProductEnabled {
		s.logger.Debug("Produto desabilitado oculto.", map[string]interface{}{"id": id, "role": role})
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", id))
	}
	return product, nil
}

// ListProducts lista o catálogo. Quem chama decide EnabledOnly pelo papel do usuário.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("categoria desconhecida: %s", filter.Category))
	}

	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao listar produtos.", err)
		return nil, err
	}
	return products, nil
}

// UpdateProduct substitui os campos editáveis de um produto existente.
func (s *Service) UpdateProduct(ctx context.Context, product domain.Product) error {
	if _, err := uuid.Parse(product.ID); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if err := validation.Struct(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, product)
}

// DeleteProduct remove um produto do catálogo.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.Delete(ctx, id)
}
