package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/datasaz/cartengine-backend/pkg/db/models"
	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
)

type stubProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProductRepo) WithTx(*gorm.DB) ProductRepository { return s }

func (s *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestProductService(t *testing.T, repo ProductRepository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestGetProductSuccess(t *testing.T) {
	id := uuid.New()
	repo := &stubProductRepo{products: map[uuid.UUID]*models.Product{
		id: {ID: id, Name: "Areca Palm", Price: decimal.RequireFromString("24.99"), Stock: 5, IsActive: true},
	}}
	svc := newTestProductService(t, repo)

	product, err := svc.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Name != "Areca Palm" {
		t.Fatalf("unexpected product %q", product.Name)
	}
}

func TestGetProductUnknown(t *testing.T) {
	svc := newTestProductService(t, &stubProductRepo{products: map[uuid.UUID]*models.Product{}})

	_, err := svc.GetProduct(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeProductNotFound {
		t.Fatalf("expected PRODUCT_NOT_FOUND, got %v", err)
	}
}

func TestGetProductInactiveHidden(t *testing.T) {
	id := uuid.New()
	repo := &stubProductRepo{products: map[uuid.UUID]*models.Product{
		id: {ID: id, Name: "Retired SKU", Price: decimal.RequireFromString("5.00"), IsActive: false},
	}}
	svc := newTestProductService(t, repo)

	_, err := svc.GetProduct(context.Background(), id)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeProductNotFound {
		t.Fatalf("expected PRODUCT_NOT_FOUND for inactive product, got %v", err)
	}
}

func TestGetProductRequiresID(t *testing.T) {
	svc := newTestProductService(t, &stubProductRepo{})

	_, err := svc.GetProduct(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
