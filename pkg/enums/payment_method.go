package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a customer intends to settle an order on delivery.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCash       PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPix,
	PaymentMethodCash,
}

// PaymentMethods lists the accepted methods in display order.
func PaymentMethods() []PaymentMethod {
	return append([]PaymentMethod(nil), validPaymentMethods...)
}

func (p PaymentMethod) String() string {
	return string(p)
}

// IsCash reports whether the courier has to carry change for this order.
func (p PaymentMethod) IsCash() bool {
	return p == PaymentMethodCash
}

func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod accepts the canonical value in any case.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range validPaymentMethods {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unsupported payment method %q", value)
}
