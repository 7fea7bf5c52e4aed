package request

import "github.com/shopspring/decimal"

// CreatePackagingRequest represents a packaging creation request
type CreatePackagingRequest struct {
	Type     string           `json:"type" binding:"required"`
	Price    *decimal.Decimal `json:"price" binding:"required"`
	Quantity int              `json:"quantity" binding:"min=0"`
}

// UpdatePackagingRequest represents a packaging update request
type UpdatePackagingRequest struct {
	Type     *string          `json:"type" binding:"omitempty,min=1"`
	Price    *decimal.Decimal `json:"price"`
	Quantity *int             `json:"quantity" binding:"omitempty,min=0"`
}
