package enums

import "slices"

type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodEWallet PaymentMethod = "e_wallet"
)

var paymentMethods = []PaymentMethod{PaymentMethodCash, PaymentMethodCard, PaymentMethodEWallet}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse("payment method", value, paymentMethods)
}

// PaymentMethodNames lists the accepted tokens, e.g. for help text.
func PaymentMethodNames() []string { return names(paymentMethods) }

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return slices.Contains(paymentMethods, p) }

func (p PaymentMethod) IsCash() bool { return p == PaymentMethodCash }

// GivesChange reports whether a tender may exceed the balance, the excess going back
// to the customer. Only cash does.
func (p PaymentMethod) GivesChange() bool { return p.IsCash() }

// RequiresReference reports whether the tender must carry a processor reference.
func (p PaymentMethod) RequiresReference() bool { return p.IsValid() && !p.IsCash() }
