package domain

import (
	"context"
	"time"
)

// ProductCategory é a categoria comercial de um produto do catálogo.
type ProductCategory string

const (
	CategoryServer     ProductCategory = "Server"
	CategoryEdgeServer ProductCategory = "Edge Server"
	CategoryEdge       ProductCategory = "Edge"
	CategoryParts      ProductCategory = "Parts"
)

// Valid informa se a categoria pertence à enumeração.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryServer, CategoryEdgeServer, CategoryEdge, CategoryParts:
		return true
	}
	return false
}

// ProductStatus controla a visibilidade do produto para convidados e clientes.
type ProductStatus string

const (
	ProductEnabled  ProductStatus = "enable"
	ProductDisabled ProductStatus = "disable"
)

// Product representa o item principal do catálogo (a Entidade).
type Product struct {
	ID           string            `json:"id"`
	Name         string            `json:"name" validate:"required"`
	Category     ProductCategory   `json:"category" validate:"required,oneof=Server 'Edge Server' Edge Parts"`
	SKU          string            `json:"sku" validate:"required"` // Stock Keeping Unit
	PartNumber   string            `json:"part_number" validate:"required"`
	Family       string            `json:"family" validate:"required"`
	ImgURL       string            `json:"img_url,omitempty" validate:"omitempty,url"`
	FamilyImgURL string            `json:"family_img_url,omitempty" validate:"omitempty,url"`
	DownloadURL  string            `json:"download_url,omitempty" validate:"omitempty,url"`
	Specs        map[string]string `json:"specs,omitempty"` // Ficha técnica: processor, memory, storage, os...
	Status       ProductStatus     `json:"status" validate:"required,oneof=enable disable"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// --- Interfaces de Contrato ---

// ProductService define o que o Handler pode pedir para a camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, product Product) (Product, error)
	GetProductByID(ctx context.Context, id string, role UserRole) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// ProductRepository define o que o Serviço pode pedir para a camada de Persistência (DB/Cache).
type ProductRepository interface {
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id string) (Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error
}

// ProductFilter define os parâmetros de busca e paginação.
// EnabledOnly é forçado pelo serviço para convidados e clientes.
type ProductFilter struct {
	Page        int
	Limit       int
	Name        string
	Category    ProductCategory
	Family      string
	Status      ProductStatus
	EnabledOnly bool
}
