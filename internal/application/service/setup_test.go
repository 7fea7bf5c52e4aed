package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/vendas-api/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *gorm.DB
	sales         *SaleService
	products      *ProductService
	packagings    *PackagingService
	productRepo   repository.ProductRepository
	packagingRepo repository.PackagingRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	productRepo := infraRepo.NewProductRepository(db)
	packagingRepo := infraRepo.NewPackagingRepository(db)
	saleRepo := infraRepo.NewSaleRepository(db)

	return &testEnv{
		db:            db,
		sales:         NewSaleService(saleRepo, productRepo, packagingRepo, pricing.MustNewPolicy(pricing.DefaultConfig())),
		products:      NewProductService(productRepo),
		packagings:    NewPackagingService(packagingRepo),
		productRepo:   productRepo,
		packagingRepo: packagingRepo,
	}
}

func (e *testEnv) product(t *testing.T, name, cost, price string, qty int) *entity.Product {
	t.Helper()
	p, err := e.products.CreateProduct(context.Background(), &CreateProductInput{
		Name:      name,
		Brand:     "Acme",
		CostPrice: decimal.RequireFromString(cost),
		SalePrice: decimal.RequireFromString(price),
		Quantity:  qty,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) packaging(t *testing.T, packagingType enum.PackagingType, qty int) *entity.Packaging {
	t.Helper()
	p, err := e.packagings.CreatePackaging(context.Background(), &CreatePackagingInput{
		Type:     packagingType,
		Price:    decimal.RequireFromString("1.00"),
		Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := e.productRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (e *testEnv) saleCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&entity.Sale{}).Count(&count).Error)
	return count
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(id uuid.UUID, qty int, price string, packagingType enum.PackagingType) SaleItemInput {
	return SaleItemInput{ProductID: id, Quantity: qty, Price: dec(price), PackagingType: packagingType}
}

// mockSaleRepository is a testify mock of repository.SaleRepository
type mockSaleRepository struct {
	mock.Mock
}

func (m *mockSaleRepository) CreateWithStock(ctx context.Context, commit *repository.SaleCommit) error {
	return m.Called(ctx, commit).Error(0)
}

func (m *mockSaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	args := m.Called(ctx, id)
	sale, _ := args.Get(0).(*entity.Sale)
	return sale, args.Error(1)
}

func (m *mockSaleRepository) List(ctx context.Context, params *repository.SaleFilterParams) ([]entity.Sale, int64, error) {
	args := m.Called(ctx, params)
	sales, _ := args.Get(0).([]entity.Sale)
	return sales, args.Get(1).(int64), args.Error(2)
}

func (m *mockSaleRepository) Update(ctx context.Context, sale *entity.Sale, items []entity.SaleItem) error {
	return m.Called(ctx, sale, items).Error(0)
}

func (m *mockSaleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// mockProductRepository is a testify mock of repository.ProductRepository
type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*entity.Product)
	return product, args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).([]entity.Product)
	return products, args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, product *entity.Product, columns []string) error {
	return m.Called(ctx, product, columns).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	args := m.Called(ctx, params)
	products, _ := args.Get(0).([]entity.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *mockProductRepository) AtomicDecrementQuantity(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	args := m.Called(ctx, id, amount)
	return args.Bool(0), args.Error(1)
}
