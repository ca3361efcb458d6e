// Package menu models the items customers can order and the admin form
// used to create or edit them.
package menu

import (
	"github.com/shopspring/decimal"

	"github.com/feastflow/storefront/internal/domain/cart"
	"github.com/feastflow/storefront/internal/domain/validation"
)

// Item is a menu entry.
type Item struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
}

// CartItem returns the snapshot added to a cart.
func (i Item) CartItem() cart.Item {
	return cart.Item{ID: i.ID, Name: i.Name, Price: i.Price, Image: i.Image}
}

// Payload is the body sent to create or update an item.
type Payload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

// Form is raw admin input. Price is text as typed.
type Form struct {
	Name        string
	Description string
	Price       string
	Image       string
}

// FormFor pre-fills a form from an existing item.
func FormFor(i Item) Form {
	return Form{Name: i.Name, Description: i.Description, Price: i.Price.String(), Image: i.Image}
}

// Parse validates the form and converts it into a payload.
func (f Form) Parse() (Payload, error) {
	name := validation.Clean(f.Name)
	rawPrice := validation.Clean(f.Price)

	if name == "" || rawPrice == "" {
		return Payload{}, validation.NewValidationError("name", "Name and price are required")
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil || price.IsNegative() {
		return Payload{}, validation.NewValidationError("price", "Please enter a valid price")
	}

	return Payload{
		Name:        name,
		Description: validation.Clean(f.Description),
		Price:       price,
		Image:       validation.Clean(f.Image),
	}, nil
}
