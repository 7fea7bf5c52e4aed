package repository

import (
	"context"

	"github.com/sangkips/vendas-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations.
// A key is reserved before its request runs and completed or released after.
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string and endpoint
	GetByKey(ctx context.Context, key string, endpoint string) (*entity.IdempotencyKey, error)
	// Reserve stores a pending record. It returns false, without error, when
	// a record for the same key and endpoint already exists.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error)
	// Complete stores the response and expiry on a reserved record
	Complete(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Release drops the record so the key can be used again
	Release(ctx context.Context, key string, endpoint string) error
	// DeleteExpired removes expired idempotency keys (for cleanup)
	DeleteExpired(ctx context.Context) error
}
