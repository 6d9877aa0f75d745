package productservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newService(repo *MockProductRepository) *productservice.Service {
	return productservice.NewService(repo, logger.NewNopLogger())
}

func validProduct() domain.Product {
	return domain.Product{
		Name:       "XE9680",
		Category:   domain.CategoryServer,
		SKU:        "SKU-9680",
		PartNumber: "PN-9680",
		Family:     "PowerEdge",
		ImgURL:     "https://cdn.example.com/xe9680.png",
		Specs:      map[string]string{"processor": "2x Xeon", "memory": "2TB"},
	}
}

func TestCreateProduct_Success(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		_, err := uuid.Parse(p.ID)
		return err == nil && p.Status == domain.ProductEnabled && !p.CreatedAt.IsZero()
	})).Return(domain.Product{ID: "created"}, nil)

	created, err := svc.CreateProduct(context.Background(), validProduct())

	require.NoError(t, err)
	assert.Equal(t, "created", created.ID)
	repo.AssertExpectations(t)
}

func TestCreateProduct_InvalidCategory(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	p := validProduct()
	p.Category = "Laptop"
	_, err := svc.CreateProduct(context.Background(), p)

	var vErr *apperror.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Msg, "category")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateProduct_InvalidURL(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	p := validProduct()
	p.DownloadURL = "not a url"
	_, err := svc.CreateProduct(context.Background(), p)

	var vErr *apperror.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Msg, "download_url")
}

func TestGetProductByID_HidesDisabledFromNonAdmins(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	id := uuid.NewString()
	disabled := validProduct()
	disabled.ID = id
	disabled.Status = domain.ProductDisabled
	repo.On("FindByID", mock.Anything, id).Return(disabled, nil)

	for _, role := range []domain.UserRole{domain.RoleGuest, domain.RoleCustomer} {
		_, err := svc.GetProductByID(context.Background(), id, role)
		assert.True(t, apperror.IsNotFound(err), "papel %s não deveria ver produto desabilitado", role)
	}

	got, err := svc.GetProductByID(context.Background(), id, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestGetProductByID_InvalidUUID(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	_, err := svc.GetProductByID(context.Background(), "abc", domain.RoleAdmin)

	var vErr *apperror.ValidationError
	assert.ErrorAs(t, err, &vErr)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestGetProductByID_PropagatesRepoError(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	id := uuid.NewString()
	repo.On("FindByID", mock.Anything, id).Return(domain.Product{}, apperror.NewDBError("falhou", errors.New("conn reset")))

	_, err := svc.GetProductByID(context.Background(), id, domain.RoleAdmin)
	assert.True(t, apperror.IsStorage(err))
}

func TestListProducts_DefaultsPaging(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	expected := []domain.Product{{ID: uuid.NewString(), Name: "A"}}
	repo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 20, EnabledOnly: true}).Return(expected, nil)

	products, err := svc.ListProducts(context.Background(), domain.ProductFilter{EnabledOnly: true})

	require.NoError(t, err)
	assert.Equal(t, expected, products)
	repo.AssertExpectations(t)
}

func TestListProducts_UnknownCategory(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	_, err := svc.ListProducts(context.Background(), domain.ProductFilter{Category: "Toaster"})

	var vErr *apperror.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestListProducts_RepoError(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	repo.On("FindAll", mock.Anything, mock.Anything).Return([]domain.Product(nil), errors.New("db down"))

	products, err := svc.ListProducts(context.Background(), domain.ProductFilter{})
	assert.Error(t, err)
	assert.Nil(t, products)
}

func TestUpdateProduct(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	p := validProduct()
	p.ID = uuid.NewString()
	p.Status = domain.ProductDisabled
	repo.On("Update", mock.Anything, p).Return(nil)

	require.NoError(t, svc.UpdateProduct(context.Background(), p))
	repo.AssertExpectations(t)

	p.Status = "hidden"
	var vErr *apperror.ValidationError
	assert.ErrorAs(t, svc.UpdateProduct(context.Background(), p), &vErr)
}

func TestDeleteProduct(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	id := uuid.NewString()
	repo.On("Delete", mock.Anything, id).Return(apperror.NewNotFoundError("x"))

	assert.True(t, apperror.IsNotFound(svc.DeleteProduct(context.Background(), id)))
}
