package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GSTRate is the tax applied to food orders.
var GSTRate = decimal.RequireFromString("0.05")

// Invoice is the printable summary of an order.
type Invoice struct {
	Number        string
	OrderID       string
	Date          time.Time
	BillTo        DeliveryDetails
	PaymentMethod string
	Status        string
	Lines         []Line
	Subtotal      decimal.Decimal
	GST           decimal.Decimal
	GrandTotal    decimal.Decimal
}

// NewInvoice computes the invoice for o. Amounts are rounded to cents.
func NewInvoice(o Order) Invoice {
	subtotal := o.LinesTotal()
	gst := subtotal.Mul(GSTRate)

	payment := o.PaymentMethod.Label()
	if !o.PaymentMethod.Known() {
		payment = strings.ToUpper(string(o.PaymentMethod))
	}

	return Invoice{
		Number:        InvoiceNumber(o.ID),
		OrderID:       o.ID,
		Date:          o.CreatedAt,
		BillTo:        o.Delivery,
		PaymentMethod: payment,
		Status:        o.Status.Badge(),
		Lines:         o.Clone().Lines,
		Subtotal:      subtotal.Round(2),
		GST:           gst.Round(2),
		GrandTotal:    subtotal.Add(gst).Round(2),
	}
}

// InvoiceNumber is "INV-" followed by the upper-cased last 8 characters
// of the order id.
func InvoiceNumber(orderID string) string {
	tail := orderID
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	return "INV-" + strings.ToUpper(tail)
}
