package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastflow/storefront/internal/domain/menu"
	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
)

// Response shapes vary between endpoints and server versions: lists come
// bare or inside an envelope, and order items reference the menu item by
// id or embed it.

type authResponse struct {
	Token string           `json:"token"`
	User  session.Identity `json:"user"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// decodeList accepts `[...]` or `{"<key>": [...]}`.
func decodeList[T any](data []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	raw, ok := env[key]
	if !ok {
		return nil, fmt.Errorf("response has neither a list nor %q", key)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeOne accepts `{...}` or `{"<key>": {...}}`.
func decodeOne[T any](data []byte, key string) (*T, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if raw, ok := env[key]; ok && len(raw) > 0 && raw[0] == '{' {
		data = raw
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// menuRef is an order item's menu reference: an id string, an embedded
// menu item, or null.
type menuRef struct {
	ID    string
	Name  string
	Price decimal.Decimal
	set   bool
}

func (r *menuRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		r.set = true
		return json.Unmarshal(b, &r.ID)
	default:
		var obj struct {
			ID    string          `json:"_id"`
			Name  string          `json:"name"`
			Price decimal.Decimal `json:"price"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		r.ID, r.Name, r.Price, r.set = obj.ID, obj.Name, obj.Price, true
		return nil
	}
}

type wireOrderItem struct {
	MenuItem   menuRef `json:"menuItem"`
	MenuItemID menuRef `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
}

type wireOrder struct {
	ID              string                 `json:"_id"`
	AltID           string                 `json:"id"`
	Items           []wireOrderItem        `json:"items"`
	TotalPrice      *decimal.Decimal       `json:"totalPrice"`
	Status          string                 `json:"status"`
	DeliveryDetails *order.DeliveryDetails `json:"deliveryDetails"`
	CustomerName    string                 `json:"customerName"`
	Address         string                 `json:"address"`
	Phone           string                 `json:"phone"`
	PaymentMethod   string                 `json:"paymentMethod"`
	CreatedAt       string                 `json:"createdAt"`
}

func (w wireOrder) toDomain() order.Order {
	o := order.Order{
		ID:            w.ID,
		Status:        order.Status(w.Status),
		PaymentMethod: order.PaymentMethod(w.PaymentMethod),
	}
	if o.ID == "" {
		o.ID = w.AltID
	}

	o.Lines = make([]order.Line, 0, len(w.Items))
	for _, it := range w.Items {
		ref := it.MenuItem
		if !ref.set {
			ref = it.MenuItemID
		}
		o.Lines = append(o.Lines, order.Line{
			MenuItemID: ref.ID,
			Name:       ref.Name,
			UnitPrice:  ref.Price,
			Quantity:   it.Quantity,
		})
	}

	if w.TotalPrice != nil {
		o.TotalPrice = *w.TotalPrice
	} else {
		o.TotalPrice = o.LinesTotal()
	}

	if w.DeliveryDetails != nil {
		o.Delivery = *w.DeliveryDetails
	} else {
		o.Delivery = order.DeliveryDetails{Name: w.CustomerName, Address: w.Address, Phone: w.Phone}
	}

	if w.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, w.CreatedAt); err == nil {
			o.CreatedAt = t
		}
	}
	return o
}

func toOrders(ws []wireOrder) []order.Order {
	out := make([]order.Order, len(ws))
	for i, w := range ws {
		out[i] = w.toDomain()
	}
	return out
}

// wireMenuItem accepts either "_id" or "id".
type wireMenuItem struct {
	menu.Item
	AltID string `json:"id"`
}

func (w wireMenuItem) toDomain() menu.Item {
	it := w.Item
	if it.ID == "" {
		it.ID = w.AltID
	}
	return it
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

// menuPayload sends the price as a JSON number.
type menuPayload struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Image       string      `json:"image"`
}

func toMenuPayload(p menu.Payload) menuPayload {
	return menuPayload{
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.String()),
		Image:       p.Image,
	}
}
