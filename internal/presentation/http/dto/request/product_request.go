package request

import "github.com/shopspring/decimal"

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name      string           `json:"name" binding:"required,min=1,max=255"`
	Brand     string           `json:"brand" binding:"omitempty,max=255"`
	CostPrice *decimal.Decimal `json:"costPrice" binding:"required"`
	SalePrice *decimal.Decimal `json:"salePrice" binding:"required"`
	Quantity  int              `json:"quantity" binding:"min=0"`
}

// UpdateProductRequest represents a product update request
type UpdateProductRequest struct {
	Name      *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Brand     *string          `json:"brand" binding:"omitempty,max=255"`
	CostPrice *decimal.Decimal `json:"costPrice"`
	SalePrice *decimal.Decimal `json:"salePrice"`
	Quantity  *int             `json:"quantity" binding:"omitempty,min=0"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search    string `form:"search"`
	Brand     string `form:"brand"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      string `form:"page"`
	PerPage   string `form:"per_page"`
}
