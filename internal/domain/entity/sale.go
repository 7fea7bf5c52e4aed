package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is a committed sales transaction. Derived amounts are fixed at
// creation and are not recomputed when the sale is edited.
type Sale struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	Subtotal          decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	PackagingCost     decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"packagingCost"`
	Total             decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Profit            decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"profit"`
	PaymentMethod     enum.PaymentMethod `gorm:"size:50;not null" json:"paymentMethod"`
	Installments      int                `gorm:"not null;default:1" json:"installments"`
	PackagingID       *uuid.UUID         `gorm:"type:uuid;index" json:"packagingId,omitempty"`
	PackagingQuantity int                `gorm:"not null;default:0" json:"packagingQuantity,omitempty"`
	Date              time.Time          `gorm:"not null;index" json:"date"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`

	// Relationships
	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one product line of a sale. It is owned by its sale and never
// addressed on its own.
type SaleItem struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"-"`
	SaleID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"-"`
	Position      int                `gorm:"not null;default:0" json:"-"`
	ProductID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"productId"`
	Quantity      int                `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"price"`
	PackagingType enum.PackagingType `gorm:"size:50" json:"packagingType"`

	// Product is resolved at read time; nil when the product was removed.
	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
}

// ProductRef is the display view of the product a sale line points to
type ProductRef struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MarshalJSON adds the resolved product name and price to the line
func (si SaleItem) MarshalJSON() ([]byte, error) {
	type Alias SaleItem
	var ref *ProductRef
	if si.Product != nil {
		ref = &ProductRef{ID: si.Product.ID, Name: si.Product.Name, Price: si.Product.SalePrice}
	}
	return json.Marshal(&struct {
		Alias
		Product *ProductRef `json:"product"`
	}{
		Alias:   Alias(si),
		Product: ref,
	})
}

// BeforeCreate generates a UUID before creating a new sale item
func (si *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}

// LineTotal is price × quantity, before any surcharge.
func (si *SaleItem) LineTotal() decimal.Decimal {
	return si.Price.Mul(decimal.NewFromInt(int64(si.Quantity)))
}
