package domain

import (
	"context"
	"time"
)

// InquiryStatus é o estado de uma solicitação de cotação.
type InquiryStatus string

const (
	InquiryRequested  InquiryStatus = "requested"
	InquiryProcessing InquiryStatus = "processing"
	InquiryComplete   InquiryStatus = "complete"
)

// InquiryItem referencia um produto do catálogo e a quantidade desejada.
type InquiryItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// Inquiry é uma solicitação enviada por um cliente.
type Inquiry struct {
	ID          string        `json:"id"`
	Company     string        `json:"company"`
	Contact     string        `json:"contact"`
	Submitter   string        `json:"submitter"` // id do usuário que enviou
	Items       []InquiryItem `json:"items"`
	Status      InquiryStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// InquiryRequest é o payload de envio de uma solicitação.
type InquiryRequest struct {
	Company string        `json:"company" validate:"required"`
	Contact string        `json:"contact" validate:"required"`
	Items   []InquiryItem `json:"items" validate:"required,min=1,dive"`
}

// InquiryRepository define o contrato de persistência das solicitações.
type InquiryRepository interface {
	Save(ctx context.Context, inquiry Inquiry) (Inquiry, error)
	FindByID(ctx context.Context, id string) (Inquiry, error)
	FindAll(ctx context.Context) ([]Inquiry, error)
	UpdateStatus(ctx context.Context, id string, status InquiryStatus, completedAt *time.Time) (Inquiry, error)
	Delete(ctx context.Context, id string) error
}

// InquiryService define o fluxo requested → processing → complete.
type InquiryService interface {
	Submit(ctx context.Context, req InquiryRequest, submitter string) (Inquiry, error)
	List(ctx context.Context) ([]Inquiry, error)
	Process(ctx context.Context, id string) (Inquiry, error)
	Fulfill(ctx context.Context, id string) (Inquiry, error)
	Delete(ctx context.Context, id string) error
}
