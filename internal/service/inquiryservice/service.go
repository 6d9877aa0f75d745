package inquiryservice

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/validation"
)

// Service conduz as solicitações de cotação de requested até complete.
type Service struct {
	inquiries domain.InquiryRepository
	products  domain.ProductRepository
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria o serviço de solicitações.
func NewService(inquiries domain.InquiryRepository, products domain.ProductRepository, logger logger.Logger) *Service {
	return &Service{inquiries: inquiries, products: products, logger: logger, now: time.Now}
}

// Submit registra uma solicitação; todos os produtos citados precisam existir e estar habilitados.
func (s *Service) Submit(ctx context.Context, req domain.InquiryRequest, submitter string) (domain.Inquiry, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Inquiry{}, err
	}

	for _, item := range req.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return domain.Inquiry{}, err
		}
		if product.Status != domain.ProductEnabled {
			return domain.Inquiry{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", item.ProductID))
		}
	}

	return s.inquiries.Save(ctx, domain.Inquiry{
		Company:   req.Company,
		Contact:   req.Contact,
		Submitter: submitter,
		Items:     req.Items,
		Status:    domain.InquiryRequested,
	})
}

func (s *Service) List(ctx context.Context) ([]domain.Inquiry, error) {
	return s.inquiries.FindAll(ctx)
}

// Process marca a solicitação como em atendimento.
func (s *Service) Process(ctx context.Context, id string) (domain.Inquiry, error) {
	return s.advance(ctx, id, domain.InquiryRequested, domain.InquiryProcessing)
}

// Fulfill conclui a solicitação e registra o instante de conclusão.
func (s *Service) Fulfill(ctx context.Context, id string) (domain.Inquiry, error) {
	return s.advance(ctx, id, domain.InquiryProcessing, domain.InquiryComplete)
}

func (s *Service) advance(ctx context.Context, id string, from, to domain.InquiryStatus) (domain.Inquiry, error) {
	current, err := s.inquiries.FindByID(ctx, id)
	if err != nil {
		return domain.Inquiry{}, err
	}
	if current.Status == to {
		return current, nil
	}
	if current.Status != from {
		return domain.Inquiry{}, apperror.NewValidationError(
			fmt.Sprintf("transição de solicitação inválida: %s → %s", current.Status, to))
	}

	var completedAt *time.Time
	if to == domain.InquiryComplete {
		now := s.now().UTC()
		completedAt = &now
	}

	updated, err := s.inquiries.UpdateStatus(ctx, id, to, completedAt)
	if err != nil {
		return domain.Inquiry{}, err
	}
	s.logger.Info("Solicitação atualizada.", map[string]interface{}{"id": id, "status": to})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.inquiries.Delete(ctx, id)
}
