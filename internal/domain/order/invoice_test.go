package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewInvoice(t *testing.T) {
	o := Order{
		ID: "65f1c2a9b7e4d3a1c0ffee42",
		Lines: []Line{
			{MenuItemID: "p1", Name: "Pizza", UnitPrice: decimal.RequireFromString("10"), Quantity: 2},
			{MenuItemID: "s1", Name: "Salad", UnitPrice: decimal.RequireFromString("4.5"), Quantity: 1},
		},
		Status:        StatusOutForDelivery,
		PaymentMethod: PaymentCash,
	}

	inv := NewInvoice(o)

	assert.Equal(t, "INV-C0FFEE42", inv.Number)
	assert.Equal(t, "24.50", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "1.23", inv.GST.StringFixed(2))
	assert.Equal(t, "25.73", inv.GrandTotal.StringFixed(2))
	assert.Equal(t, "OUT FOR DELIVERY", inv.Status)
	assert.Equal(t, "Cash on Delivery", inv.PaymentMethod)
}

func TestInvoiceNumber_ShortID(t *testing.T) {
	assert.Equal(t, "INV-AB12", InvoiceNumber("ab12"))
}

func TestLine_DisplayName(t *testing.T) {
	assert.Equal(t, "Unknown Item", Line{}.DisplayName())
}
