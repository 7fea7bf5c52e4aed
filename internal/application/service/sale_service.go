package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/sangkips/vendas-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SaleService is the sale transaction processor. It prices a proposed sale,
// validates it against inventory and commits it together with the stock
// decrements.
type SaleService struct {
	saleRepo      repository.SaleRepository
	productRepo   repository.ProductRepository
	packagingRepo repository.PackagingRepository
	policy        *pricing.Policy
	tracer        trace.Tracer
	now           func() time.Time
}

// NewSaleService creates a new sale service
func NewSaleService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	packagingRepo repository.PackagingRepository,
	policy *pricing.Policy,
) *SaleService {
	return &SaleService{
		saleRepo:      saleRepo,
		productRepo:   productRepo,
		packagingRepo: packagingRepo,
		policy:        policy,
		tracer:        otel.Tracer("vendas-api/sale-service"),
		now:           time.Now,
	}
}

// SaleItemInput represents one line of a proposed sale
type SaleItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	Price         decimal.Decimal
	PackagingType enum.PackagingType
}

// PackagingSelection names a stocked packaging record the sale consumes
type PackagingSelection struct {
	PackagingID uuid.UUID
	Quantity    int
}

// CreateSaleInput represents the create sale input
type CreateSaleInput struct {
	Items         []SaleItemInput
	PaymentMethod enum.PaymentMethod
	Installments  int
	Packaging     *PackagingSelection
	Date          *time.Time
}

// EditSaleInput carries the fields a sale edit may replace. Nil fields are
// left unchanged.
type EditSaleInput struct {
	Items *[]SaleItemInput
	Total *decimal.Decimal
	Date  *time.Time
}

// CreateSale validates and prices the sale, then commits it and every stock
// decrement in one transaction. Nothing is written when an error is returned.
func (s *SaleService) CreateSale(ctx context.Context, input *CreateSaleInput) (*entity.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.CreateSale")
	defer span.End()

	sale, commit, err := s.prepareSale(ctx, input)
	if err != nil {
		return nil, recordError(span, err)
	}

	span.SetAttributes(
		attribute.String("sale.payment_method", sale.PaymentMethod.String()),
		attribute.Int("sale.installments", sale.Installments),
		attribute.Int("sale.items", len(sale.Items)),
		attribute.String("sale.total", sale.Total.StringFixed(pricing.MoneyPlaces)),
	)

	if err := s.saleRepo.CreateWithStock(ctx, commit); err != nil {
		return nil, recordError(span, s.commitError(err, sale))
	}

	span.SetAttributes(attribute.String("sale.id", sale.ID.String()))
	return sale, nil
}

// prepareSale runs every read and validation step of a sale and returns the
// priced sale with the stock it needs.
func (s *SaleService) prepareSale(ctx context.Context, input *CreateSaleInput) (*entity.Sale, *repository.SaleCommit, error) {
	if len(input.Items) == 0 {
		return nil, nil, apperror.ErrEmptyOrder
	}
	if input.PaymentMethod.IsBlank() {
		return nil, nil, apperror.ErrMissingPaymentMethod
	}
	for i, item := range input.Items {
		if err := validateItem(i, item); err != nil {
			return nil, nil, err
		}
	}

	installments := input.Installments
	if installments == 0 {
		installments = 1
	}

	// Batch fetch all products in one query (prevents N+1)
	productIDs := make([]uuid.UUID, 0, len(input.Items))
	requested := make(map[uuid.UUID]int, len(input.Items))
	for _, item := range input.Items {
		if _, seen := requested[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, apperror.NewStorageError(err)
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	packagingCost := decimal.Zero
	costBasis := decimal.Zero
	items := make([]entity.SaleItem, 0, len(input.Items))
	decrements := make([]repository.StockDecrement, 0, len(productIDs))

	for _, item := range input.Items {
		product, exists := productMap[item.ProductID]
		if !exists {
			return nil, nil, apperror.ErrProductNotFound.WithMessage(
				fmt.Sprintf("Product %s not found", item.ProductID))
		}
		if !product.HasStock(requested[product.ID]) {
			return nil, nil, insufficientStock(product)
		}

		unitCost, err := s.policy.PackagingUnitCost(item.PackagingType)
		if err != nil {
			return nil, nil, err
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		price := item.Price.Round(pricing.MoneyPlaces)
		subtotal = subtotal.Add(price.Mul(qty))
		packagingCost = packagingCost.Add(unitCost)
		costBasis = costBasis.Add(product.CostPrice.Mul(qty))

		items = append(items, entity.SaleItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Price:         price,
			PackagingType: item.PackagingType,
			Product:       product,
		})
	}
	for _, id := range productIDs {
		decrements = append(decrements, repository.StockDecrement{ID: id, Quantity: requested[id]})
	}

	var packagingDecrement *repository.StockDecrement
	if sel := input.Packaging; sel != nil {
		if sel.Quantity < 1 {
			return nil, nil, apperror.ErrInvalidLineItem.WithMessage("Packaging quantity must be at least 1")
		}
		packaging, err := s.packagingRepo.GetByID(ctx, sel.PackagingID)
		if err != nil {
			return nil, nil, apperror.NewStorageError(err)
		}
		if packaging == nil {
			return nil, nil, apperror.ErrPackagingNotFound.WithMessage(
				fmt.Sprintf("Packaging %s not found", sel.PackagingID))
		}
		if packaging.Quantity < sel.Quantity {
			return nil, nil, insufficientPackagingStock(packaging)
		}
		packagingDecrement = &repository.StockDecrement{ID: packaging.ID, Quantity: sel.Quantity}
	}

	method := input.PaymentMethod.Canonical()
	rate, err := s.policy.InterestRate(method, installments)
	if err != nil {
		return nil, nil, err
	}
	total := pricing.ApplyInterest(subtotal, rate)

	date := s.now()
	if input.Date != nil && !input.Date.IsZero() {
		date = *input.Date
	}

	sale := &entity.Sale{
		ID:            uuid.New(),
		Subtotal:      subtotal.Round(pricing.MoneyPlaces),
		PackagingCost: packagingCost.Round(pricing.MoneyPlaces),
		Total:         total,
		Profit:        total.Sub(packagingCost).Sub(costBasis).Round(pricing.MoneyPlaces),
		PaymentMethod: method,
		Installments:  installments,
		Date:          date,
		Items:         items,
	}
	if packagingDecrement != nil {
		sale.PackagingID = &packagingDecrement.ID
		sale.PackagingQuantity = packagingDecrement.Quantity
	}

	return sale, &repository.SaleCommit{
		Sale:      sale,
		Products:  decrements,
		Packaging: packagingDecrement,
	}, nil
}

// commitError translates a failed commit. Stock that ran out between the
// validation pass and the write is reported like any other shortage.
func (s *SaleService) commitError(err error, sale *entity.Sale) error {
	var shortage *repository.StockShortageError
	if !errors.As(err, &shortage) {
		return apperror.NewStorageError(err)
	}

	if shortage.Resource == repository.StockResourcePackaging {
		return apperror.ErrInsufficientPackagingStock.WithMessage(
			fmt.Sprintf("Insufficient stock for packaging %s", shortage.ID))
	}
	for _, item := range sale.Items {
		if item.ProductID == shortage.ID && item.Product != nil {
			return insufficientStock(item.Product)
		}
	}
	return apperror.ErrInsufficientStock.WithMessage(
		fmt.Sprintf("Insufficient stock for product %s", shortage.ID))
}

// GetSale retrieves a sale by ID
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewStorageError(err)
	}
	if sale == nil {
		return nil, apperror.ErrSaleNotFound
	}
	return sale, nil
}

// ListSales lists sales newest first. Without pagination params every sale
// is returned and the pagination metadata covers a single page.
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (*pagination.PaginatedResult[entity.Sale], error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.ListSales")
	defer span.End()

	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, recordError(span, apperror.NewStorageError(err))
	}
	if sales == nil {
		sales = []entity.Sale{}
	}

	page, perPage := 1, len(sales)
	if params.Pagination != nil {
		page, perPage = params.Pagination.Page, params.Pagination.PerPage
	}
	if perPage < 1 {
		perPage = pagination.DefaultPerPage
	}
	return pagination.NewPaginatedResult(sales, pagination.NewPagination(page, perPage, total)), nil
}

// EditSale replaces the items, total and date of a sale when supplied.
// Stock levels and the other derived amounts are left as they were.
func (s *SaleService) EditSale(ctx context.Context, id uuid.UUID, input *EditSaleInput) (*entity.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "SaleService.EditSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id.String()))

	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, recordError(span, apperror.NewStorageError(err))
	}
	if sale == nil {
		return nil, recordError(span, apperror.ErrSaleNotFound)
	}

	var items []entity.SaleItem
	if input.Items != nil {
		if len(*input.Items) == 0 {
			return nil, recordError(span, apperror.ErrEmptyOrder)
		}
		items = make([]entity.SaleItem, 0, len(*input.Items))
		for i, item := range *input.Items {
			if err := validateItem(i, item); err != nil {
				return nil, recordError(span, err)
			}
			items = append(items, entity.SaleItem{
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				Price:         item.Price.Round(pricing.MoneyPlaces),
				PackagingType: item.PackagingType,
			})
		}
	}

	if input.Total != nil {
		if input.Total.IsNegative() {
			return nil, recordError(span, apperror.NewBadRequestError("Total cannot be negative"))
		}
		sale.Total = input.Total.Round(pricing.MoneyPlaces)
	}
	if input.Date != nil && !input.Date.IsZero() {
		sale.Date = *input.Date
	}

	if err := s.saleRepo.Update(ctx, sale, items); err != nil {
		return nil, recordError(span, apperror.NewStorageError(err))
	}

	if items == nil {
		return sale, nil
	}
	return s.GetSale(ctx, id)
}

// DeleteSale removes a sale and its items. Stock is not restored.
func (s *SaleService) DeleteSale(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.saleRepo.Delete(ctx, id)
	if err != nil {
		return apperror.NewStorageError(err)
	}
	if !deleted {
		return apperror.ErrSaleNotFound
	}
	return nil
}

func validateItem(index int, item SaleItemInput) error {
	if item.ProductID == uuid.Nil {
		return apperror.ErrInvalidLineItem.WithMessage(fmt.Sprintf("Item %d: product is required", index))
	}
	if item.Quantity < 1 {
		return apperror.ErrInvalidLineItem.WithMessage(fmt.Sprintf("Item %d: quantity must be at least 1", index))
	}
	if item.Price.IsNegative() {
		return apperror.ErrInvalidLineItem.WithMessage(fmt.Sprintf("Item %d: price cannot be negative", index))
	}
	return nil
}

func insufficientStock(product *entity.Product) error {
	return apperror.ErrInsufficientStock.WithMessage(
		fmt.Sprintf("Insufficient stock for product %s", product.Name))
}

func insufficientPackagingStock(packaging *entity.Packaging) error {
	return apperror.ErrInsufficientPackagingStock.WithMessage(
		fmt.Sprintf("Insufficient stock for packaging %s", packaging.Type))
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
