// Package cart holds the pending order: line items keyed by menu item id,
// with totals always derived from the current lines.
package cart

import "github.com/shopspring/decimal"

// Item is the menu item snapshot handed to Add.
type Item struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

// Line is one item-and-quantity entry. Quantity is always >= 1 while the
// line is part of a cart.
type Line struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice x Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AddResult tells the caller whether Add created a line or bumped one.
type AddResult int

const (
	// Added means a new line with quantity 1 was appended.
	Added AddResult = iota
	// Incremented means an existing line's quantity went up by one.
	Incremented
)

// Cart is an ordered collection of lines. It is not safe for concurrent
// use; callers serialize access.
type Cart struct {
	lines []Line
}

// New builds a cart from lines, dropping entries without an id or with a
// quantity below 1 and merging duplicate ids in first-seen order.
func New(lines []Line) *Cart {
	c := &Cart{lines: make([]Line, 0, len(lines))}
	for _, l := range lines {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		if i := c.index(l.ID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

func (c *Cart) index(id string) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// Add consolidates item into the cart. The price of an existing line is
// left as it was.
func (c *Cart) Add(item Item) AddResult {
	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return Incremented
	}
	c.lines = append(c.lines, Line{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Image:     item.Image,
		Quantity:  1,
	})
	return Added
}

// Increase adds one to the line's quantity. Unknown ids are ignored.
func (c *Cart) Increase(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity++
	return true
}

// Decrease subtracts one from the line's quantity and removes the line
// when nothing would be left.
func (c *Cart) Decrease(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if c.lines[i].Quantity <= 1 {
		c.removeAt(i)
		return true
	}
	c.lines[i].Quantity--
	return true
}

// Remove drops the line with id. It reports whether a line was removed.
func (c *Cart) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = c.lines[:0:0]
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Find returns the line for id.
func (c *Cart) Find(id string) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// TotalItems returns the sum of all quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice returns the sum of unit price times quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	return &Cart{lines: c.Lines()}
}
