package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one ordered menu item. Name and UnitPrice are empty when the
// server only returned the menu item id.
type Line struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name,omitempty"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Subtotal returns UnitPrice x Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DisplayName returns Name or a placeholder for lines without details.
func (l Line) DisplayName() string {
	if l.Name == "" {
		return "Unknown Item"
	}
	return l.Name
}

// DeliveryDetails is where and to whom an order is delivered.
type DeliveryDetails struct {
	Name    string `json:"name" validate:"notblank"`
	Address string `json:"address" validate:"notblank"`
	Phone   string `json:"phone" validate:"notblank"`
}

// Order is the client view of an order.
type Order struct {
	ID            string          `json:"id"`
	Lines         []Line          `json:"items"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Status        Status          `json:"status"`
	Delivery      DeliveryDetails `json:"deliveryDetails"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`

	// StatusUpdatedAt is when a push event last replaced Status.
	StatusUpdatedAt time.Time `json:"statusUpdatedAt,omitempty"`
}

// LinesTotal sums the line subtotals.
func (o Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount sums line quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// ShortID returns the last six characters of the id.
func (o Order) ShortID() string {
	if len(o.ID) <= 6 {
		return o.ID
	}
	return o.ID[len(o.ID)-6:]
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	cp := o
	if o.Lines != nil {
		cp.Lines = make([]Line, len(o.Lines))
		copy(cp.Lines, o.Lines)
	}
	return cp
}

// Draft is the request to place a new order.
type Draft struct {
	Items         []DraftItem     `json:"items"`
	Delivery      DeliveryDetails `json:"deliveryDetails"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

// DraftItem references a menu item by id.
type DraftItem struct {
	MenuItemID string `json:"menuItem"`
	Quantity   int    `json:"quantity"`
}
