// Package pricing holds the read-only rate and packaging cost tables used to
// price a sale.
package pricing

import (
	"fmt"
	"sort"

	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places amounts are rounded to.
const MoneyPlaces = 2

// Config is the table set a Policy is built from. Rates are fractions
// (0.0188 for 1.88%).
type Config struct {
	DebitRate              decimal.Decimal
	CreditAtOnceRate       decimal.Decimal
	CreditInstallmentRates map[int]decimal.Decimal
	PackagingCosts         map[enum.PackagingType]decimal.Decimal
}

// DefaultCreditInstallmentRates are the card acquirer rates, in percent, for
// 2 through 12 installments.
var DefaultCreditInstallmentRates = []string{
	"5.81", "6.32", "6.83", "7.33", "7.83", "8.34", "8.83", "9.32", "9.81", "10.29", "10.77",
}

// DefaultConfig returns the tables the store has always charged.
func DefaultConfig() Config {
	installments := make(map[int]decimal.Decimal, len(DefaultCreditInstallmentRates))
	for i, pct := range DefaultCreditInstallmentRates {
		installments[i+2] = Percent(decimal.RequireFromString(pct))
	}
	return Config{
		DebitRate:              Percent(decimal.RequireFromString("1.88")),
		CreditAtOnceRate:       Percent(decimal.RequireFromString("4.46")),
		CreditInstallmentRates: installments,
		PackagingCosts: map[enum.PackagingType]decimal.Decimal{
			enum.PackagingTypePackage:  decimal.RequireFromString("3.50"),
			enum.PackagingTypeSmallBag: decimal.RequireFromString("6.00"),
			enum.PackagingTypeLargeBag: decimal.RequireFromString("8.00"),
		},
	}
}

// Percent converts a percentage into a fraction.
func Percent(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(decimal.NewFromInt(100))
}

// Policy maps payment terms to an interest rate and packaging tags to a unit
// cost. It is immutable after construction and safe for concurrent use.
type Policy struct {
	debitRate        decimal.Decimal
	creditAtOnceRate decimal.Decimal
	installmentRates map[int]decimal.Decimal
	maxInstallments  int
	packagingCosts   map[enum.PackagingType]decimal.Decimal
}

// NewPolicy copies cfg into a Policy. Installment keys must be contiguous
// from 2 upwards.
func NewPolicy(cfg Config) (*Policy, error) {
	p := &Policy{
		debitRate:        cfg.DebitRate,
		creditAtOnceRate: cfg.CreditAtOnceRate,
		installmentRates: make(map[int]decimal.Decimal, len(cfg.CreditInstallmentRates)),
		maxInstallments:  1,
		packagingCosts:   make(map[enum.PackagingType]decimal.Decimal, len(cfg.PackagingCosts)),
	}

	keys := make([]int, 0, len(cfg.CreditInstallmentRates))
	for n := range cfg.CreditInstallmentRates {
		keys = append(keys, n)
	}
	sort.Ints(keys)
	for i, n := range keys {
		if n != i+2 {
			return nil, fmt.Errorf("pricing: installment table must start at 2 and be contiguous, got %d at position %d", n, i)
		}
		p.installmentRates[n] = cfg.CreditInstallmentRates[n]
		p.maxInstallments = n
	}

	for t, cost := range cfg.PackagingCosts {
		if cost.IsNegative() {
			return nil, fmt.Errorf("pricing: negative cost for packaging %q", t)
		}
		p.packagingCosts[t] = cost
	}
	return p, nil
}

// MustNewPolicy is NewPolicy for tables known to be valid.
func MustNewPolicy(cfg Config) *Policy {
	p, err := NewPolicy(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// MaxInstallments is the largest installment count credit sales accept.
func (p *Policy) MaxInstallments() int {
	return p.maxInstallments
}

// PackagingUnitCost returns the cost of one unit of the given packaging.
func (p *Policy) PackagingUnitCost(t enum.PackagingType) (decimal.Decimal, error) {
	cost, ok := p.packagingCosts[t]
	if !ok {
		return decimal.Zero, apperror.ErrUnknownPackagingType.WithMessage(
			fmt.Sprintf("Unknown packaging type %q", string(t)))
	}
	return cost, nil
}

// InterestRate returns the surcharge fraction for a payment method and
// installment count. Methods other than debit and credit carry no surcharge.
func (p *Policy) InterestRate(method enum.PaymentMethod, installments int) (decimal.Decimal, error) {
	if installments < 1 {
		return decimal.Zero, p.invalidInstallments(installments)
	}

	switch method.Canonical() {
	case enum.PaymentMethodDebit:
		return p.debitRate, nil
	case enum.PaymentMethodCredit:
		if installments == 1 {
			return p.creditAtOnceRate, nil
		}
		rate, ok := p.installmentRates[installments]
		if !ok {
			return decimal.Zero, p.invalidInstallments(installments)
		}
		return rate, nil
	default:
		return decimal.Zero, nil
	}
}

func (p *Policy) invalidInstallments(n int) error {
	return apperror.ErrInvalidInstallmentCount.WithMessage(
		fmt.Sprintf("Invalid installment count %d: must be between 1 and %d", n, p.maxInstallments))
}

// ApplyInterest is the flat, non-compounding surcharge formula:
// subtotal × (1 + rate), rounded to cents.
func ApplyInterest(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(1).Add(rate)).Round(MoneyPlaces)
}
