package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/sangkips/vendas-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductService handles product-related operations
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name      string
	Brand     string
	CostPrice decimal.Decimal
	SalePrice decimal.Decimal
	Quantity  int
}

// UpdateProductInput represents the update product input
type UpdateProductInput struct {
	Name      *string
	Brand     *string
	CostPrice *decimal.Decimal
	SalePrice *decimal.Decimal
	Quantity  *int
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	product := &entity.Product{
		Name:      strings.TrimSpace(input.Name),
		Brand:     strings.TrimSpace(input.Brand),
		CostPrice: input.CostPrice.Round(pricing.MoneyPlaces),
		SalePrice: input.SalePrice.Round(pricing.MoneyPlaces),
		Quantity:  input.Quantity,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperror.NewStorageError(err)
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewStorageError(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with filtering
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.NewStorageError(err)
	}
	if products == nil {
		products = []entity.Product{}
	}

	page, perPage := 1, len(products)
	if params.Pagination != nil {
		page, perPage = params.Pagination.Page, params.Pagination.PerPage
	}
	if perPage < 1 {
		perPage = pagination.DefaultPerPage
	}
	return pagination.NewPaginatedResult(products, pagination.NewPagination(page, perPage, total)), nil
}

// UpdateProduct updates the fields present in input. Only those columns are
// written, so stock taken by sales in the meantime is kept.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
		columns = append(columns, "name")
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
		columns = append(columns, "brand")
	}
	if input.CostPrice != nil {
		product.CostPrice = input.CostPrice.Round(pricing.MoneyPlaces)
		columns = append(columns, "cost_price")
	}
	if input.SalePrice != nil {
		product.SalePrice = input.SalePrice.Round(pricing.MoneyPlaces)
		columns = append(columns, "sale_price")
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
		columns = append(columns, "quantity")
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return product, nil
	}

	if err := s.productRepo.Update(ctx, product, columns); err != nil {
		return nil, apperror.NewStorageError(err)
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes a product. Sales that reference it keep their
// lines and show no product details afterwards.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return apperror.NewStorageError(err)
	}
	if !deleted {
		return apperror.NewNotFoundError("Product")
	}
	return nil
}

func validateProduct(p *entity.Product) error {
	var fieldErrors []apperror.FieldError
	if p.Name == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if p.CostPrice.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "costPrice", Message: "costPrice cannot be negative"})
	}
	if p.SalePrice.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "salePrice", Message: "salePrice cannot be negative"})
	}
	if p.Quantity < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "quantity", Message: "quantity cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
