package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/pkg/pagination"
)

// StockResource names the kind of stocked record a decrement targets
type StockResource string

const (
	StockResourceProduct   StockResource = "product"
	StockResourcePackaging StockResource = "packaging"
)

// StockDecrement takes Quantity units from one stocked record
type StockDecrement struct {
	ID       uuid.UUID
	Quantity int
}

// SaleCommit is everything a sale writes. It is applied all-or-nothing.
type SaleCommit struct {
	Sale      *entity.Sale
	Products  []StockDecrement
	Packaging *StockDecrement
}

// StockShortageError is returned by CreateWithStock when a conditional
// decrement found less stock than requested at write time. Nothing from the
// commit is persisted when it is returned.
type StockShortageError struct {
	Resource StockResource
	ID       uuid.UUID
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %s", e.Resource, e.ID)
}

// SaleRepository defines the interface for the sale ledger
type SaleRepository interface {
	// CreateWithStock decrements every referenced stock record and inserts the
	// sale with its items inside one transaction.
	CreateWithStock(ctx context.Context, commit *SaleCommit) error
	// GetByID returns the sale with its items and their products resolved,
	// or (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
	// Update saves the sale's own columns and, when items is non-nil,
	// replaces its items. Stock is never touched.
	Update(ctx context.Context, sale *entity.Sale, items []entity.SaleItem) error
	// Delete removes the sale and its items. Returns false when absent.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// SaleFilterParams contains filtering parameters for sale queries.
// A nil Pagination returns every matching sale.
type SaleFilterParams struct {
	Pagination    *pagination.PaginationParams
	PaymentMethod enum.PaymentMethod
	StartDate     *time.Time
	EndDate       *time.Time
}
