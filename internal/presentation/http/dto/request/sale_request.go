package request

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one line of a sale body
type SaleItemRequest struct {
	ProductID     uuid.UUID       `json:"productId"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	PackagingType string          `json:"packagingType"`
}

// PackagingSelectionRequest names the stocked packaging a sale consumes
type PackagingSelectionRequest struct {
	PackagingID uuid.UUID `json:"packagingId" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
}

// CreateSaleRequest represents a sale creation request. Business rules are
// checked by the sale service so their errors keep their own codes.
type CreateSaleRequest struct {
	Items         []SaleItemRequest          `json:"items"`
	PaymentMethod string                     `json:"paymentMethod"`
	Installments  int                        `json:"installments"`
	Packaging     *PackagingSelectionRequest `json:"packaging"`
	Date          *Date                      `json:"date"`
}

// EditSaleRequest represents a sale edit. Absent fields are kept.
type EditSaleRequest struct {
	Items *[]SaleItemRequest `json:"items"`
	Total *decimal.Decimal   `json:"total"`
	Date  *Date              `json:"date"`
}

// SaleFilterRequest represents sale listing parameters
type SaleFilterRequest struct {
	PaymentMethod string `form:"paymentMethod"`
	StartDate     string `form:"startDate"`
	EndDate       string `form:"endDate"`
	Page          string `form:"page"`
	PerPage       string `form:"per_page"`
}

// Date accepts either an RFC 3339 timestamp or a bare YYYY-MM-DD date
type Date struct {
	time.Time
}

const dateOnly = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD date (UTC midnight).
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	return t, nil
}

// IsDateOnly reports whether raw carries no time of day.
func IsDateOnly(raw string) bool {
	_, err := time.Parse(dateOnly, strings.TrimSpace(raw))
	return err == nil
}

// TimePtr returns nil for an absent date
func (d *Date) TimePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
