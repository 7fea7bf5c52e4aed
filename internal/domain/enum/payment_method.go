package enum

import "strings"

// PaymentMethod is the tender used to settle a sale
type PaymentMethod string

const (
	PaymentMethodDebit  PaymentMethod = "debit"
	PaymentMethodCredit PaymentMethod = "credit"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPix    PaymentMethod = "pix"
)

var paymentMethodAliases = map[string]PaymentMethod{
	"debito":   PaymentMethodDebit,
	"débito":   PaymentMethodDebit,
	"credito":  PaymentMethodCredit,
	"crédito":  PaymentMethodCredit,
	"dinheiro": PaymentMethodCash,
}

func (m PaymentMethod) String() string {
	return string(m)
}

// Canonical lower-cases the method and resolves the Portuguese aliases used
// by the storefront ("debito", "credito", ...).
func (m PaymentMethod) Canonical() PaymentMethod {
	key := strings.ToLower(strings.TrimSpace(string(m)))
	if alias, ok := paymentMethodAliases[key]; ok {
		return alias
	}
	return PaymentMethod(key)
}

// IsBlank reports whether no payment method was supplied.
func (m PaymentMethod) IsBlank() bool {
	return strings.TrimSpace(string(m)) == ""
}
