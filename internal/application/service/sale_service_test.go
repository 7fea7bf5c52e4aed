package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateSaleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.product(t, "Coffee", "4.00", "10.00", 10)
	tea := env.product(t, "Tea", "5.00", "15.00", 5)

	sale, err := env.sales.CreateSale(ctx, &CreateSaleInput{
		Items: []SaleItemInput{
			line(coffee.ID, 3, "10.00", enum.PackagingTypePackage),
			line(tea.ID, 2, "15.00", enum.PackagingTypeSmallBag),
		},
		PaymentMethod: "debito",
	})
	require.NoError(t, err)

	assert.True(t, dec("60.00").Equal(sale.Subtotal))
	assert.True(t, dec("9.50").Equal(sale.PackagingCost))
	assert.True(t, dec("61.13").Equal(sale.Total), sale.Total.String())
	// 61.13 - 9.50 - (3×4.00 + 2×5.00)
	assert.True(t, dec("29.63").Equal(sale.Profit), sale.Profit.String())
	assert.Equal(t, enum.PaymentMethodDebit, sale.PaymentMethod)
	assert.Equal(t, 1, sale.Installments)
	require.Len(t, sale.Items, 2)
	require.NotNil(t, sale.Items[0].Product)
	assert.Equal(t, "Coffee", sale.Items[0].Product.Name)

	assert.Equal(t, 7, env.stock(t, coffee.ID))
	assert.Equal(t, 3, env.stock(t, tea.ID))

	stored, err := env.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(stored.Total))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, tea.ID, stored.Items[1].ProductID)
}

func TestCreateSaleRoundsLinePricesToCents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Coffee", "1.00", "3.33", 10)

	sale, err := env.sales.CreateSale(ctx, &CreateSaleInput{
		Items:         []SaleItemInput{line(p.ID, 3, "3.333", enum.PackagingTypePackage)},
		PaymentMethod: enum.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.True(t, dec("9.99").Equal(sale.Subtotal), sale.Subtotal.String())
	assert.True(t, dec("3.33").Equal(sale.Items[0].Price), sale.Items[0].Price.String())

	stored, err := env.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.Subtotal.Equal(stored.Items[0].LineTotal()))

	items := []SaleItemInput{line(p.ID, 1, "2.005", enum.PackagingTypePackage)}
	edited, err := env.sales.EditSale(ctx, sale.ID, &EditSaleInput{Items: &items})
	require.NoError(t, err)
	assert.True(t, dec("2.01").Equal(edited.Items[0].Price), edited.Items[0].Price.String())
}

func TestCreateSaleInterest(t *testing.T) {
	tests := []struct {
		name         string
		method       enum.PaymentMethod
		installments int
		total        string
	}{
		{"cash carries no surcharge", enum.PaymentMethodCash, 1, "100.00"},
		{"pix carries no surcharge", enum.PaymentMethodPix, 0, "100.00"},
		{"debit", enum.PaymentMethodDebit, 1, "101.88"},
		{"credit at once", enum.PaymentMethodCredit, 1, "104.46"},
		{"credit zero installments means one", "credito", 0, "104.46"},
		{"credit 2x", enum.PaymentMethodCredit, 2, "105.81"},
		{"credit 12x", "Credit", 12, "110.77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p := env.product(t, "Coffee", "0.00", "50.00", 10)

			sale, err := env.sales.CreateSale(context.Background(), &CreateSaleInput{
				Items:         []SaleItemInput{line(p.ID, 2, "50.00", enum.PackagingTypeLargeBag)},
				PaymentMethod: tt.method,
				Installments:  tt.installments,
			})
			require.NoError(t, err)
			assert.True(t, dec(tt.total).Equal(sale.Total), sale.Total.String())
			assert.True(t, sale.Total.Sub(dec("8.00")).Equal(sale.Profit))
		})
	}
}

func TestCreateSaleValidationLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		input func(product uuid.UUID) *CreateSaleInput
		want  *apperror.AppError
	}{
		{
			name:  "empty order",
			input: func(uuid.UUID) *CreateSaleInput { return &CreateSaleInput{PaymentMethod: "cash"} },
			want:  apperror.ErrEmptyOrder,
		},
		{
			name: "missing payment method",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{line(id, 1, "10.00", enum.PackagingTypePackage)}, PaymentMethod: "  "}
			},
			want: apperror.ErrMissingPaymentMethod,
		},
		{
			name: "zero quantity",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{line(id, 0, "10.00", enum.PackagingTypePackage)}, PaymentMethod: "cash"}
			},
			want: apperror.ErrInvalidLineItem,
		},
		{
			name: "negative price",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{line(id, 1, "-1.00", enum.PackagingTypePackage)}, PaymentMethod: "cash"}
			},
			want: apperror.ErrInvalidLineItem,
		},
		{
			name: "unknown product after a valid line",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{
					line(id, 1, "10.00", enum.PackagingTypePackage),
					line(uuid.New(), 1, "10.00", enum.PackagingTypePackage),
				}, PaymentMethod: "cash"}
			},
			want: apperror.ErrProductNotFound,
		},
		{
			name: "aggregate quantity exceeds stock",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{
					line(id, 3, "10.00", enum.PackagingTypePackage),
					line(id, 3, "10.00", enum.PackagingTypePackage),
				}, PaymentMethod: "cash"}
			},
			want: apperror.ErrInsufficientStock,
		},
		{
			name: "packaging tags are case sensitive",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{line(id, 1, "10.00", "Package")}, PaymentMethod: "cash"}
			},
			want: apperror.ErrUnknownPackagingType,
		},
		{
			name: "credit beyond the installment table",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{line(id, 1, "10.00", enum.PackagingTypePackage)}, PaymentMethod: "credit", Installments: 13}
			},
			want: apperror.ErrInvalidInstallmentCount,
		},
		{
			name: "negative installments",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{Items: []SaleItemInput{line(id, 1, "10.00", enum.PackagingTypePackage)}, PaymentMethod: "debit", Installments: -1}
			},
			want: apperror.ErrInvalidInstallmentCount,
		},
		{
			name: "unknown packaging record",
			input: func(id uuid.UUID) *CreateSaleInput {
				return &CreateSaleInput{
					Items:         []SaleItemInput{line(id, 1, "10.00", enum.PackagingTypePackage)},
					PaymentMethod: "cash",
					Packaging:     &PackagingSelection{PackagingID: uuid.New(), Quantity: 1},
				}
			},
			want: apperror.ErrPackagingNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p := env.product(t, "Coffee", "4.00", "10.00", 5)

			sale, err := env.sales.CreateSale(context.Background(), tt.input(p.ID))
			assert.Nil(t, sale)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, apperror.GetAppError(err).Validation())

			assert.Equal(t, 5, env.stock(t, p.ID))
			assert.Zero(t, env.saleCount(t))
		})
	}
}

func TestCreateSaleConsumesPackagingStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.product(t, "Coffee", "4.00", "10.00", 10)
	bags := env.packaging(t, enum.PackagingTypeSmallBag, 2)

	input := func(qty int) *CreateSaleInput {
		return &CreateSaleInput{
			Items:         []SaleItemInput{line(p.ID, 1, "10.00", enum.PackagingTypeSmallBag)},
			PaymentMethod: enum.PaymentMethodCash,
			Packaging:     &PackagingSelection{PackagingID: bags.ID, Quantity: qty},
		}
	}

	_, err := env.sales.CreateSale(ctx, input(3))
	assert.True(t, errors.Is(err, apperror.ErrInsufficientPackagingStock))
	assert.Equal(t, 10, env.stock(t, p.ID))

	sale, err := env.sales.CreateSale(ctx, input(2))
	require.NoError(t, err)
	require.NotNil(t, sale.PackagingID)
	assert.Equal(t, bags.ID, *sale.PackagingID)
	assert.Equal(t, 2, sale.PackagingQuantity)
	// Cost comes from the per-line type table, not the stocked record's price.
	assert.True(t, dec("6.00").Equal(sale.PackagingCost))

	stored, err := env.packagings.GetPackaging(ctx, bags.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Quantity)
	assert.Equal(t, 9, env.stock(t, p.ID))
}

func TestCreateSaleKeepsRequestedDate(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "Coffee", "4.00", "10.00", 10)
	date := time.Date(2024, 5, 17, 15, 30, 0, 0, time.UTC)

	sale, err := env.sales.CreateSale(context.Background(), &CreateSaleInput{
		Items:         []SaleItemInput{line(p.ID, 1, "10.00", enum.PackagingTypePackage)},
		PaymentMethod: "cash",
		Date:          &date,
	})
	require.NoError(t, err)
	assert.True(t, date.Equal(sale.Date))
}

func TestCreateSaleConcurrentNeverOversells(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "Coffee", "4.00", "10.00", 5)

	const buyers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.sales.CreateSale(context.Background(), &CreateSaleInput{
				Items:         []SaleItemInput{line(p.ID, 1, "10.00", enum.PackagingTypePackage)},
				PaymentMethod: "cash",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Len(t, failures, buyers-5)
	for _, err := range failures {
		assert.True(t, errors.Is(err, apperror.ErrInsufficientStock), "got %v", err)
	}
	assert.Zero(t, env.stock(t, p.ID))
	assert.Equal(t, int64(5), env.saleCount(t))
}

func TestEditSale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.product(t, "Coffee", "4.00", "10.00", 10)
	tea := env.product(t, "Tea", "5.00", "15.00", 10)
	sale, err := env.sales.CreateSale(ctx, &CreateSaleInput{
		Items:         []SaleItemInput{line(coffee.ID, 2, "10.00", enum.PackagingTypePackage)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	items := []SaleItemInput{line(tea.ID, 4, "15.00", enum.PackagingTypeLargeBag)}
	total := dec("55.00")
	edited, err := env.sales.EditSale(ctx, sale.ID, &EditSaleInput{Items: &items, Total: &total})
	require.NoError(t, err)

	assert.True(t, total.Equal(edited.Total))
	assert.True(t, sale.Subtotal.Equal(edited.Subtotal))
	assert.True(t, sale.Profit.Equal(edited.Profit))
	require.Len(t, edited.Items, 1)
	assert.Equal(t, tea.ID, edited.Items[0].ProductID)
	require.NotNil(t, edited.Items[0].Product)
	assert.Equal(t, "Tea", edited.Items[0].Product.Name)

	// Inventory is not reconciled on edit.
	assert.Equal(t, 8, env.stock(t, coffee.ID))
	assert.Equal(t, 10, env.stock(t, tea.ID))

	date := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	edited, err = env.sales.EditSale(ctx, sale.ID, &EditSaleInput{Date: &date})
	require.NoError(t, err)
	assert.True(t, date.Equal(edited.Date))
	assert.Len(t, edited.Items, 1)
}

func TestEditSaleErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sales.EditSale(ctx, uuid.New(), &EditSaleInput{})
	assert.True(t, errors.Is(err, apperror.ErrSaleNotFound))

	p := env.product(t, "Coffee", "4.00", "10.00", 10)
	sale, err := env.sales.CreateSale(ctx, &CreateSaleInput{
		Items:         []SaleItemInput{line(p.ID, 1, "10.00", enum.PackagingTypePackage)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	empty := []SaleItemInput{}
	_, err = env.sales.EditSale(ctx, sale.ID, &EditSaleInput{Items: &empty})
	assert.True(t, errors.Is(err, apperror.ErrEmptyOrder))

	negative := dec("-1")
	_, err = env.sales.EditSale(ctx, sale.ID, &EditSaleInput{Total: &negative})
	assert.True(t, errors.Is(err, apperror.ErrBadRequest))
}

func TestDeleteSaleDoesNotRestoreStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.product(t, "Coffee", "4.00", "10.00", 10)
	sale, err := env.sales.CreateSale(ctx, &CreateSaleInput{
		Items:         []SaleItemInput{line(p.ID, 4, "10.00", enum.PackagingTypePackage)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	require.NoError(t, env.sales.DeleteSale(ctx, sale.ID))
	assert.Equal(t, 6, env.stock(t, p.ID))
	assert.Zero(t, env.saleCount(t))

	err = env.sales.DeleteSale(ctx, sale.ID)
	assert.True(t, errors.Is(err, apperror.ErrSaleNotFound))

	_, err = env.sales.GetSale(ctx, sale.ID)
	assert.True(t, errors.Is(err, apperror.ErrSaleNotFound))
}

func TestListSalesNewestFirstWithRemovedProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.product(t, "Coffee", "4.00", "10.00", 10)
	for i, day := range []int{3, 1, 2} {
		date := time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC)
		_, err := env.sales.CreateSale(ctx, &CreateSaleInput{
			Items:         []SaleItemInput{line(p.ID, 1, "10.00", enum.PackagingTypePackage)},
			PaymentMethod: "cash",
			Date:          &date,
		})
		require.NoError(t, err, "sale %d", i)
	}
	require.NoError(t, env.products.DeleteProduct(ctx, p.ID))

	result, err := env.sales.ListSales(ctx, &repository.SaleFilterParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, int64(3), result.Pagination.Total)
	assert.Equal(t, 3, result.Items[0].Date.Day())
	assert.Equal(t, 1, result.Items[2].Date.Day())
	assert.Nil(t, result.Items[0].Items[0].Product)
}

func TestCreateSaleMapsStorageFailures(t *testing.T) {
	product := entity.Product{ID: uuid.New(), Name: "Coffee", CostPrice: dec("4.00"), SalePrice: dec("10.00"), Quantity: 10}
	input := &CreateSaleInput{
		Items:         []SaleItemInput{line(product.ID, 1, "10.00", enum.PackagingTypePackage)},
		PaymentMethod: "cash",
	}

	t.Run("driver error", func(t *testing.T) {
		saleRepo := new(mockSaleRepository)
		productRepo := new(mockProductRepository)
		productRepo.On("GetByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]entity.Product{product}, nil)
		cause := errors.New("connection reset by peer")
		saleRepo.On("CreateWithStock", mock.Anything, mock.AnythingOfType("*repository.SaleCommit")).Return(cause)

		svc := NewSaleService(saleRepo, productRepo, nil, pricing.MustNewPolicy(pricing.DefaultConfig()))
		_, err := svc.CreateSale(context.Background(), input)

		assert.True(t, errors.Is(err, apperror.ErrStorageFailure))
		assert.True(t, errors.Is(err, cause))
		assert.False(t, apperror.GetAppError(err).Validation())
		saleRepo.AssertExpectations(t)
	})

	t.Run("stock taken between check and commit", func(t *testing.T) {
		saleRepo := new(mockSaleRepository)
		productRepo := new(mockProductRepository)
		productRepo.On("GetByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]entity.Product{product}, nil)
		saleRepo.On("CreateWithStock", mock.Anything, mock.Anything).
			Return(&repository.StockShortageError{Resource: repository.StockResourceProduct, ID: product.ID})

		svc := NewSaleService(saleRepo, productRepo, nil, pricing.MustNewPolicy(pricing.DefaultConfig()))
		_, err := svc.CreateSale(context.Background(), input)

		assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))
		assert.Contains(t, err.Error(), "Coffee")
	})

	t.Run("lookup error", func(t *testing.T) {
		productRepo := new(mockProductRepository)
		productRepo.On("GetByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		svc := NewSaleService(new(mockSaleRepository), productRepo, nil, pricing.MustNewPolicy(pricing.DefaultConfig()))
		_, err := svc.CreateSale(context.Background(), input)

		assert.True(t, errors.Is(err, apperror.ErrStorageFailure))
	})
}

func TestCreateSaleCommitsAggregatedDecrements(t *testing.T) {
	product := entity.Product{ID: uuid.New(), Name: "Coffee", CostPrice: dec("4.00"), Quantity: 10}
	saleRepo := new(mockSaleRepository)
	productRepo := new(mockProductRepository)
	productRepo.On("GetByIDs", mock.Anything, []uuid.UUID{product.ID}).Return([]entity.Product{product}, nil)
	saleRepo.On("CreateWithStock", mock.Anything, mock.MatchedBy(func(c *repository.SaleCommit) bool {
		return len(c.Products) == 1 && c.Products[0].Quantity == 5 && c.Packaging == nil && len(c.Sale.Items) == 2
	})).Return(nil)

	svc := NewSaleService(saleRepo, productRepo, nil, pricing.MustNewPolicy(pricing.DefaultConfig()))
	_, err := svc.CreateSale(context.Background(), &CreateSaleInput{
		Items: []SaleItemInput{
			line(product.ID, 2, "10.00", enum.PackagingTypePackage),
			line(product.ID, 3, "10.00", enum.PackagingTypePackage),
		},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	saleRepo.AssertExpectations(t)
}
