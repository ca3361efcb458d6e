package order

import "strings"

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentPaytm   PaymentMethod = "paytm"
	PaymentGPay    PaymentMethod = "gpay"
	PaymentPhonePe PaymentMethod = "phonepe"
	PaymentCash    PaymentMethod = "cash"
)

// DefaultPaymentMethod is used when none is chosen.
const DefaultPaymentMethod = PaymentCash

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{PaymentPaytm, PaymentGPay, PaymentPhonePe, PaymentCash}

var paymentLabels = map[PaymentMethod]string{
	PaymentPaytm:   "Paytm",
	PaymentGPay:    "Google Pay",
	PaymentPhonePe: "PhonePe",
	PaymentCash:    "Cash on Delivery",
}

// Label returns the display name, "Other" for unknown methods.
func (p PaymentMethod) Label() string {
	if l, ok := paymentLabels[p]; ok {
		return l
	}
	return "Other"
}

// Known reports whether p is accepted at checkout.
func (p PaymentMethod) Known() bool {
	_, ok := paymentLabels[p]
	return ok
}

// Online reports whether the method goes through a payment redirect.
func (p PaymentMethod) Online() bool {
	return p.Known() && p != PaymentCash
}

// ParsePaymentMethod normalizes v; empty input yields the default.
func ParsePaymentMethod(v string) PaymentMethod {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return DefaultPaymentMethod
	}
	return PaymentMethod(v)
}
