package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	domainRepo "github.com/sangkips/vendas-api/internal/domain/repository"
	"gorm.io/gorm"
)

var productSortColumns = map[string]string{
	"name":       "name",
	"brand":      "brand",
	"quantity":   "quantity",
	"salePrice":  "sale_price",
	"costPrice":  "cost_price",
	"created_at": "created_at",
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDs retrieves multiple products by their IDs in a single query
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product, columns []string) error {
	return updateColumns(r.db.WithContext(ctx), product, product.ID, columns)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{})

	if params.Search != "" {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", pattern, pattern)
	}

	if params.Brand != "" {
		query = query.Where("brand = ?", params.Brand)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(orderClause(productSortColumns, params.SortBy, params.SortOrder, "name"))
	if params.Pagination != nil {
		params.Pagination.Validate()
		query = query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage)
	}

	err := query.Find(&products).Error
	return products, total, err
}

// AtomicDecrementQuantity atomically decrements stock only if sufficient quantity exists.
// Uses: UPDATE products SET quantity = quantity - amount WHERE id = ? AND quantity >= amount
func (r *productRepository) AtomicDecrementQuantity(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	return decrementStock(r.db.WithContext(ctx), &entity.Product{}, id, amount)
}

// decrementStock is the conditional write every stock decrement goes
// through. A false result means the row is missing or holds less than amount.
func decrementStock(db *gorm.DB, model interface{}, id uuid.UUID, amount int) (bool, error) {
	result := db.Model(model).
		Where("id = ? AND quantity >= ?", id, amount).
		Update("quantity", gorm.Expr("quantity - ?", amount))

	if result.Error != nil {
		return false, result.Error
	}

	// If no rows were affected, insufficient stock
	return result.RowsAffected > 0, nil
}

// updateColumns writes the named columns of model and nothing else, so a
// stale in-memory quantity never overwrites a concurrent decrement.
func updateColumns(db *gorm.DB, model interface{}, id uuid.UUID, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	return db.Model(model).
		Where("id = ?", id).
		Select(columns).
		Updates(model).Error
}

// orderClause builds an ORDER BY from a whitelisted column map.
func orderClause(columns map[string]string, sortBy, sortOrder, fallback string) string {
	column, ok := columns[sortBy]
	if !ok {
		column = fallback
	}
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}
	return column + " " + direction
}
