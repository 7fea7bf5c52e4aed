package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	domainRepo "github.com/sangkips/vendas-api/internal/domain/repository"
	"gorm.io/gorm"
)

type packagingRepository struct {
	db *gorm.DB
}

// NewPackagingRepository creates a new packaging repository
func NewPackagingRepository(db *gorm.DB) domainRepo.PackagingRepository {
	return &packagingRepository{db: db}
}

func (r *packagingRepository) Create(ctx context.Context, packaging *entity.Packaging) error {
	return r.db.WithContext(ctx).Create(packaging).Error
}

func (r *packagingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Packaging, error) {
	var packaging entity.Packaging
	err := r.db.WithContext(ctx).First(&packaging, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &packaging, nil
}

func (r *packagingRepository) Update(ctx context.Context, packaging *entity.Packaging, columns []string) error {
	return updateColumns(r.db.WithContext(ctx), packaging, packaging.ID, columns)
}

func (r *packagingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&entity.Packaging{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

func (r *packagingRepository) List(ctx context.Context, packagingType enum.PackagingType) ([]entity.Packaging, error) {
	var packagings []entity.Packaging
	query := r.db.WithContext(ctx).Model(&entity.Packaging{})
	if packagingType != "" {
		query = query.Where("type = ?", packagingType)
	}
	err := query.Order("type ASC, created_at ASC").Find(&packagings).Error
	return packagings, err
}

func (r *packagingRepository) AtomicDecrementQuantity(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	return decrementStock(r.db.WithContext(ctx), &entity.Packaging{}, id, amount)
}
