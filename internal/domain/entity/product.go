package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the inventory
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Brand     string          `gorm:"size:255;not null" json:"brand"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"costPrice"`
	SalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"salePrice"`
	Quantity  int             `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// HasStock reports whether qty units can be taken from the shelf.
func (p *Product) HasStock(qty int) bool {
	return p.Quantity >= qty
}
