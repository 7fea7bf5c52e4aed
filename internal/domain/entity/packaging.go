package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Packaging is a stocked wrapping consumable (package, small bag, large bag)
type Packaging struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	Type      enum.PackagingType `gorm:"size:50;not null;index" json:"type"`
	Price     decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Quantity  int                `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	DeletedAt gorm.DeletedAt     `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new packaging record
func (p *Packaging) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Packaging model
func (Packaging) TableName() string {
	return "packagings"
}
