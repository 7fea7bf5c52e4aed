package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
)

// PackagingRepository defines the interface for packaging data operations.
// Lookups return (nil, nil) when the record does not exist.
type PackagingRepository interface {
	Create(ctx context.Context, packaging *entity.Packaging) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Packaging, error)
	// Update writes only the named columns, like ProductRepository.Update.
	Update(ctx context.Context, packaging *entity.Packaging, columns []string) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, packagingType enum.PackagingType) ([]entity.Packaging, error)
	// AtomicDecrementQuantity behaves like ProductRepository.AtomicDecrementQuantity.
	AtomicDecrementQuantity(ctx context.Context, id uuid.UUID, amount int) (bool, error)
}
